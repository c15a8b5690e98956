package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
	"github.com/humidor-social/aficionado-api/models"
)

// PushToken exported for testing purposes
type PushToken struct {
	DB databases.PushTokenDatabase
}

type registerTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterPushTokenHandler stores an Expo push token for the requesting
// user. Registration is an upsert keyed on the token itself, so a device
// changing hands moves the token to its new owner.
func (pt PushToken) RegisterPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)
	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	var req registerTokenRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Token == "" {
		config.ErrorStatus("token is required", http.StatusBadRequest, w, fmt.Errorf("missing token"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	filter := bson.M{"token": req.Token}
	update := bson.M{
		"$set": bson.M{
			"userId":    userID,
			"platform":  req.Platform,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"token":     req.Token,
			"createdAt": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err = pt.DB.UpdateOne(context.Background(), filter, update, opts)
	if err != nil {
		config.ErrorStatus("failed to register push token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "push token registered"}`))
}

// UnregisterPushTokenHandler removes a push token, used on logout
func (pt PushToken) UnregisterPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req registerTokenRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Token == "" {
		config.ErrorStatus("token is required", http.StatusBadRequest, w, fmt.Errorf("missing token"))
		return
	}

	deletedCount, err := pt.DB.DeleteOne(context.Background(), bson.M{"token": req.Token})
	if err != nil {
		config.ErrorStatus("failed to unregister push token", http.StatusInternalServerError, w, err)
		return
	}
	if deletedCount == 0 {
		config.ErrorStatus("push token not found", http.StatusNotFound, w, fmt.Errorf("no push token on record"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "push token unregistered"}`))
}

// UserPushTokensHandler lists the push tokens registered for a user
func (pt PushToken) UserPushTokensHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	tokens, err := pt.DB.Find(context.Background(), bson.M{"userId": userID})
	if err != nil {
		config.ErrorStatus("failed to fetch push tokens", http.StatusInternalServerError, w, err)
		return
	}
	if tokens == nil {
		tokens = []models.PushToken{}
	}

	b, err := json.Marshal(tokens)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
