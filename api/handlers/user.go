package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
	"github.com/humidor-social/aficionado-api/models"
)

// User exported for testing purposes
type User struct {
	DB       databases.UserDatabase
	Notifier Notification
}

// defaultNotificationPrefs are merged under stored preferences on read,
// so new notification types default to enabled for existing users
var defaultNotificationPrefs = map[string]bool{
	models.NotificationTypeLike:    true,
	models.NotificationTypeComment: true,
	models.NotificationTypeFollow:  true,
	models.NotificationTypeInvite:  true,
}

// UserHandler returns a user given a userID
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", userID)

	_, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := u.DB.FindOne(context.Background(), bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	// Never leak credentials
	dbResp.Details.Password = ""
	dbResp.Details.ResetPasswordToken = ""

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UserCreateHandler creates a user
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var details models.UserDetails
	err := json.NewDecoder(r.Body).Decode(&details)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	if details.Email == "" || details.Password == "" {
		config.ErrorStatus("email and password are required", http.StatusBadRequest, w, fmt.Errorf("missing email or password"))
		return
	}

	// check if the user already exists
	existingUser, _ := u.DB.FindOne(context.Background(), bson.M{"user.email": details.Email})
	if existingUser != nil {
		config.ErrorStatus("email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	// hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(details.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	details.Password = string(hashedPassword)

	if details.Plan == "" {
		details.Plan = "free"
	}
	now := time.Now().UTC()
	details.CreatedAt = now
	details.UpdatedAt = now

	user := models.User{
		ID:      primitive.NewObjectID().Hex(),
		Details: details,
	}

	_, err = u.DB.InsertOne(context.Background(), user)
	if err != nil {
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}

	responseBody, err := json.Marshal(map[string]string{"_id": user.ID})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(responseBody)
}

// UserCheckEmailHandler checks if an email exists using POST
func (u User) UserCheckEmailHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var details models.UserDetails
	err := json.NewDecoder(r.Body).Decode(&details)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	// check if the user already exists
	existingUser, _ := u.DB.FindOne(context.Background(), bson.M{"user.email": details.Email})
	if existingUser != nil {
		config.ErrorStatus("email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// UserUpdateHandler applies a partial update to the user's core profile
// fields, self only
func (u User) UserUpdateHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if userID != requesterID(r) {
		config.ErrorStatus("users can only update their own profile", http.StatusForbidden, w, fmt.Errorf("user id mismatch"))
		return
	}

	var req struct {
		Name           *string `json:"name"`
		Username       *string `json:"username"`
		Bio            *string `json:"bio"`
		Location       *string `json:"location"`
		ProfilePicture *string `json:"profilePicture"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"user.updatedAt": time.Now().UTC()}
	if req.Name != nil {
		set["user.name"] = *req.Name
	}
	if req.Username != nil {
		set["user.username"] = *req.Username
	}
	if req.Bio != nil {
		set["user.bio"] = *req.Bio
	}
	if req.Location != nil {
		set["user.location"] = *req.Location
	}
	if req.ProfilePicture != nil {
		set["user.profilePicture"] = *req.ProfilePicture
	}

	res, err := u.DB.UpdateOne(context.Background(), bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("user not found", http.StatusNotFound, w, fmt.Errorf("no user with id %s", userID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "user updated successfully"}`))
}

// FollowUserHandler makes the requester follow the target user. A
// follow edge is written to both user documents.
func (u User) FollowUserHandler(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["user_id"]
	followerID := requesterID(r)

	if followerID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}
	if followerID == targetID {
		config.ErrorStatus("users cannot follow themselves", http.StatusBadRequest, w, fmt.Errorf("self follow"))
		return
	}

	target, err := u.DB.FindOne(context.Background(), bson.M{"_id": targetID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	// Already following?
	existing, err := u.DB.FindOne(context.Background(), bson.M{"_id": followerID, "user.following.userId": targetID})
	if err == nil && existing != nil {
		config.ErrorStatus("already following", http.StatusConflict, w, fmt.Errorf("user %s already follows %s", followerID, targetID))
		return
	}

	now := time.Now().UTC()
	_, err = u.DB.UpdateOne(context.Background(),
		bson.M{"_id": followerID},
		bson.M{"$push": bson.M{"user.following": models.FollowEdge{UserID: targetID, FollowedAt: now}}})
	if err != nil {
		config.ErrorStatus("failed to update following", http.StatusInternalServerError, w, err)
		return
	}
	_, err = u.DB.UpdateOne(context.Background(),
		bson.M{"_id": targetID},
		bson.M{"$push": bson.M{"user.followers": models.FollowEdge{UserID: followerID, FollowedAt: now}}})
	if err != nil {
		config.ErrorStatus("failed to update followers", http.StatusInternalServerError, w, err)
		return
	}

	follower, err := u.DB.FindOne(context.Background(), bson.M{"_id": followerID})
	followerName := "Someone"
	if err == nil {
		followerName = follower.Details.Name
	}
	notifErr := u.Notifier.Dispatch(context.Background(), models.Notification{
		UserID:     target.ID,
		FromUserID: followerID,
		Type:       models.NotificationTypeFollow,
		Message:    fmt.Sprintf("%s started following you", followerName),
	})
	if notifErr != nil {
		zap.S().Errorf("failed to dispatch follow notification: %v", notifErr)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "user followed successfully"}`))
}

// UnfollowUserHandler removes the follow edge from both user documents
func (u User) UnfollowUserHandler(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["user_id"]
	followerID := requesterID(r)

	if followerID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	_, err := u.DB.UpdateOne(context.Background(),
		bson.M{"_id": followerID},
		bson.M{"$pull": bson.M{"user.following": bson.M{"userId": targetID}}})
	if err != nil {
		config.ErrorStatus("failed to update following", http.StatusInternalServerError, w, err)
		return
	}
	_, err = u.DB.UpdateOne(context.Background(),
		bson.M{"_id": targetID},
		bson.M{"$pull": bson.M{"user.followers": bson.M{"userId": followerID}}})
	if err != nil {
		config.ErrorStatus("failed to update followers", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "user unfollowed successfully"}`))
}

// UserFollowersHandler returns a page of a user's followers with details
func (u User) UserFollowersHandler(w http.ResponseWriter, r *http.Request) {
	u.followListHandler(w, r, func(details models.UserDetails) []models.FollowEdge {
		return details.Followers
	})
}

// UserFollowingHandler returns a page of the users someone follows
func (u User) UserFollowingHandler(w http.ResponseWriter, r *http.Request) {
	u.followListHandler(w, r, func(details models.UserDetails) []models.FollowEdge {
		return details.Following
	})
}

func (u User) followListHandler(w http.ResponseWriter, r *http.Request, pick func(models.UserDetails) []models.FollowEdge) {
	userID := mux.Vars(r)["user_id"]

	limitParam := r.URL.Query().Get("limit")
	pageParam := r.URL.Query().Get("page")

	limit := 10 // default limit
	page := 1   // default page

	if limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil {
			limit = l
		}
	}
	if pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil {
			page = p
		}
	}

	dbResp, err := u.DB.FindOne(context.Background(), bson.M{"_id": userID})
	if err != nil {
		// Return an empty array if no user is found
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
		return
	}

	edges := pick(dbResp.Details)
	if edges == nil {
		edges = []models.FollowEdge{}
	}

	start := (page - 1) * limit
	end := start + limit
	if start > len(edges) {
		start = len(edges)
	}
	if end > len(edges) {
		end = len(edges)
	}
	paginatedEdges := edges[start:end]

	// Fetch user details for each edge
	detailedUsers := []map[string]interface{}{}
	for _, edge := range paginatedEdges {
		edgeUser, err := u.DB.FindOne(context.Background(), bson.M{"_id": edge.UserID})
		if err != nil {
			continue // Skip if user not found
		}

		detailedUsers = append(detailedUsers, map[string]interface{}{
			"userId":         edge.UserID,
			"followedAt":     edge.FollowedAt,
			"name":           edgeUser.Details.Name,
			"username":       edgeUser.Details.Username,
			"profilePicture": edgeUser.Details.ProfilePicture,
			"numFollowers":   len(edgeUser.Details.Followers),
		})
	}

	b, err := json.Marshal(detailedUsers)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// FullProfileHandler returns the extended profile for a user
func (u User) FullProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	dbResp, err := u.DB.FindOne(context.Background(), bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp.Details.FullProfile)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateFullProfileHandler replaces the extended profile, self only
func (u User) UpdateFullProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if userID != requesterID(r) {
		config.ErrorStatus("users can only update their own profile", http.StatusForbidden, w, fmt.Errorf("user id mismatch"))
		return
	}

	var profile models.FullProfile
	err := json.NewDecoder(r.Body).Decode(&profile)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	res, err := u.DB.UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"user.fullProfile": profile, "user.updatedAt": time.Now().UTC()}})
	if err != nil {
		config.ErrorStatus("failed to update full profile", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("user not found", http.StatusNotFound, w, fmt.Errorf("no user with id %s", userID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "full profile updated successfully"}`))
}

// NotificationPrefsHandler returns the user's notification preferences
// with defaults merged in for any type they have not set
func (u User) NotificationPrefsHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	dbResp, err := u.DB.FindOne(context.Background(), bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	prefs := make(map[string]bool, len(defaultNotificationPrefs))
	for k, v := range defaultNotificationPrefs {
		prefs[k] = v
	}
	for k, v := range dbResp.Details.NotificationPrefs {
		prefs[k] = v
	}

	b, err := json.Marshal(prefs)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateNotificationPrefsHandler stores the user's notification
// preferences, self only
func (u User) UpdateNotificationPrefsHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if userID != requesterID(r) {
		config.ErrorStatus("users can only update their own preferences", http.StatusForbidden, w, fmt.Errorf("user id mismatch"))
		return
	}

	var prefs map[string]bool
	err := json.NewDecoder(r.Body).Decode(&prefs)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	res, err := u.DB.UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"user.notificationPrefs": prefs, "user.updatedAt": time.Now().UTC()}})
	if err != nil {
		config.ErrorStatus("failed to update notification preferences", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("user not found", http.StatusNotFound, w, fmt.Errorf("no user with id %s", userID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "notification preferences updated successfully"}`))
}
