package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
	"github.com/humidor-social/aficionado-api/models"
)

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Token string `json:"token"`
	Admin struct {
		ID    string   `json:"id"`
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	} `json:"admin"`
}

// Admin represents the admin handler. Admins curate the cigar catalog.
type Admin struct {
	ADB databases.AdminDatabase
	CDB databases.CigarDatabase
}

// AdminLoginHandler handles admin login via email/password and returns a JWT
func (h Admin) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid request"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "email and password required"})
		return
	}

	admin, err := h.ADB.FindOne(r.Context(), bson.M{"email": email, "active": true})
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
		return
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
		return
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "server misconfigured"})
		return
	}

	claims := jwt.MapClaims{
		"sub":   admin.ID.Hex(),
		"email": admin.Email,
		"roles": admin.Roles,
		"scope": "admin",
		"typ":   "access",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "token generation failed"})
		return
	}

	var resp adminLoginResponse
	resp.Token = signed
	resp.Admin.ID = admin.ID.Hex()
	resp.Admin.Email = admin.Email
	resp.Admin.Roles = admin.Roles

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// AdminMiddleware guards catalog mutation routes with the admin JWT
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		authHeader := r.Header.Get("Authorization")
		splitToken := strings.Split(authHeader, "Bearer ")
		if len(splitToken) < 2 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "missing bearer token"}`))
			return
		}

		token, err := jwt.Parse(splitToken[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "invalid token"}`))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["scope"] != "admin" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "admin scope required"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AdminCreateCigarHandler adds a cigar to the global catalog
func (h Admin) AdminCreateCigarHandler(w http.ResponseWriter, r *http.Request) {
	var cigar models.Cigar
	err := json.NewDecoder(r.Body).Decode(&cigar)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if cigar.Name == "" || cigar.Brand == "" {
		config.ErrorStatus("cigar name and brand are required", http.StatusBadRequest, w, fmt.Errorf("missing name or brand"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	cigar.ID = primitive.NewObjectID()
	cigar.CreatedAt = now
	cigar.UpdatedAt = now

	_, err = h.CDB.InsertOne(context.Background(), cigar)
	if err != nil {
		config.ErrorStatus("failed to create cigar", http.StatusInternalServerError, w, err)
		return
	}

	responseBody, err := json.Marshal(cigar)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(responseBody)
}

// AdminUpdateCigarHandler updates catalog fields on a cigar
func (h Admin) AdminUpdateCigarHandler(w http.ResponseWriter, r *http.Request) {
	cigarID := mux.Vars(r)["cigar_id"]

	cID, err := primitive.ObjectIDFromHex(cigarID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var fields map[string]interface{}
	err = json.NewDecoder(r.Body).Decode(&fields)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	// Immutable fields are never patched
	delete(fields, "_id")
	delete(fields, "createdAt")
	fields["updatedAt"] = primitive.NewDateTimeFromTime(time.Now().UTC())

	res, err := h.CDB.UpdateOne(context.Background(), bson.M{"_id": cID}, bson.M{"$set": fields})
	if err != nil {
		config.ErrorStatus("failed to update cigar", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("cigar not found", http.StatusNotFound, w, fmt.Errorf("no cigar with id %s", cigarID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "cigar updated successfully"}`))
}

// AdminDeleteCigarHandler removes a cigar from the catalog
func (h Admin) AdminDeleteCigarHandler(w http.ResponseWriter, r *http.Request) {
	cigarID := mux.Vars(r)["cigar_id"]

	cID, err := primitive.ObjectIDFromHex(cigarID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	deletedCount, err := h.CDB.DeleteOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to delete cigar", http.StatusInternalServerError, w, err)
		return
	}
	if deletedCount == 0 {
		config.ErrorStatus("cigar not found", http.StatusNotFound, w, fmt.Errorf("no cigar with id %s", cigarID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "cigar deleted successfully"}`))
}
