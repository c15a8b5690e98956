package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
	"github.com/humidor-social/aficionado-api/models"
)

// Humidor exported for testing purposes
type Humidor struct {
	DB    databases.HumidorDatabase
	HCDB  databases.HumidorCigarDatabase
	UDB   databases.UserDatabase
	CigDB databases.CigarDatabase
}

// paidPlans are the subscription tiers exempt from the free cigar cap
var paidPlans = map[string]bool{
	"paid":    true,
	"pro":     true,
	"premium": true,
	"plus":    true,
}

func isPaidPlan(plan string) bool {
	return paidPlans[plan]
}

// checkoutRedirectURL is where a capped free user is sent to upgrade
func checkoutRedirectURL(userID string) string {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "https://aficionado-api.herokuapp.com"
	}
	return fmt.Sprintf("%s/api/v1/subscription/checkout?userId=%s", base, userID)
}

// CreateHumidorHandler creates a humidor for the requesting user
func (h Humidor) CreateHumidorHandler(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)
	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	var humidor models.Humidor
	err := json.NewDecoder(r.Body).Decode(&humidor)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if humidor.Title == "" {
		config.ErrorStatus("humidor title is required", http.StatusBadRequest, w, fmt.Errorf("humidor title is required"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	humidor.ID = primitive.NewObjectID()
	humidor.UserID = userID
	humidor.Status = models.HumidorStatusActive
	humidor.CreatedAt = now
	humidor.UpdatedAt = now

	_, err = h.DB.InsertOne(context.Background(), humidor)
	if err != nil {
		config.ErrorStatus("failed to create humidor", http.StatusInternalServerError, w, err)
		return
	}

	responseBody, err := json.Marshal(humidor)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(responseBody)
}

// UserHumidorsHandler returns all humidors belonging to a user
func (h Humidor) UserHumidorsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	if userID == "" {
		config.ErrorStatus("user_id is required", http.StatusBadRequest, w, fmt.Errorf("user_id is required"))
		return
	}

	humidors, err := h.DB.Find(context.Background(), bson.M{"userId": userID})
	if err != nil {
		config.ErrorStatus("failed to fetch humidors", http.StatusInternalServerError, w, err)
		return
	}
	if humidors == nil {
		humidors = []models.Humidor{}
	}

	b, err := json.Marshal(humidors)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateHumidorHandler renames a humidor or toggles its status, owner only
func (h Humidor) UpdateHumidorHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	humidorID := vars["humidor_id"]
	userID := requesterID(r)

	hID, err := primitive.ObjectIDFromHex(humidorID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Title  *string `json:"title"`
		Status *string `json:"status"`
	}
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now().UTC())}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Status != nil {
		if *req.Status != models.HumidorStatusActive && *req.Status != models.HumidorStatusInactive {
			config.ErrorStatus("invalid humidor status", http.StatusBadRequest, w, fmt.Errorf("status must be %q or %q", models.HumidorStatusActive, models.HumidorStatusInactive))
			return
		}
		set["status"] = *req.Status
	}

	res, err := h.DB.UpdateOne(context.Background(),
		bson.M{"_id": hID, "userId": userID},
		bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update humidor", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("humidor not found", http.StatusNotFound, w, fmt.Errorf("no humidor %s owned by user %s", humidorID, userID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "humidor updated successfully"}`))
}

// DeleteHumidorHandler deletes a humidor and its cigar entries, owner only
func (h Humidor) DeleteHumidorHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	humidorID := vars["humidor_id"]
	userID := requesterID(r)

	hID, err := primitive.ObjectIDFromHex(humidorID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	deletedCount, err := h.DB.DeleteOne(context.Background(), bson.M{"_id": hID, "userId": userID})
	if err != nil {
		config.ErrorStatus("failed to delete humidor", http.StatusInternalServerError, w, err)
		return
	}
	if deletedCount == 0 {
		config.ErrorStatus("humidor not found", http.StatusNotFound, w, fmt.Errorf("no humidor %s owned by user %s", humidorID, userID))
		return
	}

	_, err = h.HCDB.DeleteMany(context.Background(), bson.M{"humidorId": humidorID})
	if err != nil {
		config.ErrorStatus("failed to delete humidor cigars", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "humidor deleted successfully"}`))
}

// HumidorCigarsHandler returns the cigar entries in a humidor
func (h Humidor) HumidorCigarsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	humidorID := vars["humidor_id"]

	entries, err := h.HCDB.Find(context.Background(), bson.M{"humidorId": humidorID})
	if err != nil {
		config.ErrorStatus("failed to fetch humidor cigars", http.StatusInternalServerError, w, err)
		return
	}
	if entries == nil {
		entries = []models.HumidorCigar{}
	}

	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// checkCigarCap verifies the user may hold `adding` more cigars. Users
// on a paid tier are never capped; free users are limited to
// models.FreePlanCigarCap across all humidors combined.
func (h Humidor) checkCigarCap(ctx context.Context, userID string, adding int) (bool, error) {
	user, err := h.UDB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return false, err
	}
	if isPaidPlan(user.Details.Plan) {
		return true, nil
	}

	total, err := h.HCDB.TotalQuantityForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return total+adding <= models.FreePlanCigarCap, nil
}

type addCigarRequest struct {
	CigarID  string `json:"cigarId"`
	Quantity int    `json:"quantity"`
}

// AddCigarHandler adds a catalog cigar to a humidor. The catalog fields
// are denormalized onto the entry. Free users bump into the plan cap
// and get a checkout redirect instead.
func (h Humidor) AddCigarHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	humidorID := vars["humidor_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	hID, err := primitive.ObjectIDFromHex(humidorID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	humidor, err := h.DB.FindOne(context.Background(), bson.M{"_id": hID})
	if err != nil {
		config.ErrorStatus("failed to get humidor", http.StatusNotFound, w, err)
		return
	}
	if humidor.UserID != userID {
		config.ErrorStatus("humidor does not belong to user", http.StatusForbidden, w, fmt.Errorf("user %s does not own humidor %s", userID, humidorID))
		return
	}

	var req addCigarRequest
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	cigID, err := primitive.ObjectIDFromHex(req.CigarID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	allowed, err := h.checkCigarCap(context.Background(), userID, req.Quantity)
	if err != nil {
		config.ErrorStatus("failed to check cigar cap", http.StatusInternalServerError, w, err)
		return
	}
	if !allowed {
		body := fmt.Sprintf(`{"error": "free plan cigar limit reached", "limit": %d, "checkoutUrl": "%s"}`,
			models.FreePlanCigarCap, checkoutRedirectURL(userID))
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(body))
		return
	}

	cigar, err := h.CigDB.FindOne(context.Background(), bson.M{"_id": cigID})
	if err != nil {
		config.ErrorStatus("failed to get cigar from catalog", http.StatusNotFound, w, err)
		return
	}

	entry := models.HumidorCigar{
		ID:        primitive.NewObjectID(),
		HumidorID: humidorID,
		UserID:    userID,
		CigarID:   req.CigarID,
		Name:      cigar.Name,
		Brand:     cigar.Brand,
		ImageURL:  cigar.ImageURL,
		Strength:  cigar.Strength,
		Quantity:  req.Quantity,
		AddedAt:   primitive.NewDateTimeFromTime(time.Now().UTC()),
	}

	_, err = h.HCDB.InsertOne(context.Background(), entry)
	if err != nil {
		config.ErrorStatus("failed to add cigar to humidor", http.StatusInternalServerError, w, err)
		return
	}

	responseBody, err := json.Marshal(entry)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(responseBody)
}

// IncrementCigarHandler bumps the quantity of a humidor entry by one,
// subject to the free plan cap
func (h Humidor) IncrementCigarHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entryID := vars["entry_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	eID, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	allowed, err := h.checkCigarCap(context.Background(), userID, 1)
	if err != nil {
		config.ErrorStatus("failed to check cigar cap", http.StatusInternalServerError, w, err)
		return
	}
	if !allowed {
		body := fmt.Sprintf(`{"error": "free plan cigar limit reached", "limit": %d, "checkoutUrl": "%s"}`,
			models.FreePlanCigarCap, checkoutRedirectURL(userID))
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(body))
		return
	}

	res, err := h.HCDB.UpdateOne(context.Background(),
		bson.M{"_id": eID, "userId": userID},
		bson.M{"$inc": bson.M{"quantity": 1}})
	if err != nil {
		config.ErrorStatus("failed to increment quantity", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("humidor entry not found", http.StatusNotFound, w, fmt.Errorf("no entry %s owned by user %s", entryID, userID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "quantity incremented"}`))
}

// DecrementCigarHandler lowers the quantity of a humidor entry by one.
// The quantity never drops below 1: the guarded filter only matches
// entries above the floor, and a non-match is a silent no-op.
func (h Humidor) DecrementCigarHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entryID := vars["entry_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	eID, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	_, err = h.HCDB.UpdateOne(context.Background(),
		bson.M{"_id": eID, "userId": userID, "quantity": bson.M{"$gt": 1}},
		bson.M{"$inc": bson.M{"quantity": -1}})
	if err != nil {
		config.ErrorStatus("failed to decrement quantity", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "quantity decremented"}`))
}

// RemoveCigarHandler removes an entry from a humidor entirely
func (h Humidor) RemoveCigarHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entryID := vars["entry_id"]
	userID := requesterID(r)

	eID, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	deletedCount, err := h.HCDB.DeleteOne(context.Background(), bson.M{"_id": eID, "userId": userID})
	if err != nil {
		config.ErrorStatus("failed to remove cigar from humidor", http.StatusInternalServerError, w, err)
		return
	}
	if deletedCount == 0 {
		config.ErrorStatus("humidor entry not found", http.StatusNotFound, w, fmt.Errorf("no entry %s owned by user %s", entryID, userID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "cigar removed from humidor"}`))
}
