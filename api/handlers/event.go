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

// Event exported for testing purposes
type Event struct {
	DB  databases.EventDatabase
	ADB databases.AttendeeDatabase
	MDB databases.MemberDatabase
	Hub *Hub
}

// CreateEventHandler creates an event in a club, members only
func (e Event) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	_, err := e.MDB.FindOne(context.Background(), bson.M{"clubId": clubID, "userId": userID})
	if err != nil {
		config.ErrorStatus("only club members can create events", http.StatusForbidden, w, err)
		return
	}

	var event models.ClubEvent
	err = json.NewDecoder(r.Body).Decode(&event)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if event.Title == "" {
		config.ErrorStatus("event title is required", http.StatusBadRequest, w, fmt.Errorf("event title is required"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	event.ID = primitive.NewObjectID()
	event.ClubID = clubID
	event.CreatedBy = userID
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err = e.DB.InsertOne(context.Background(), event)
	if err != nil {
		config.ErrorStatus("failed to create event", http.StatusInternalServerError, w, err)
		return
	}

	responseBody, err := json.Marshal(event)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(responseBody)
}

// ClubEventsHandler returns all events for a club, soonest first
func (e Event) ClubEventsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]

	opts := options.Find().SetSort(bson.M{"startsAt": 1})
	events, err := e.DB.Find(context.Background(), bson.M{"clubId": clubID}, opts)
	if err != nil {
		config.ErrorStatus("failed to fetch club events", http.StatusInternalServerError, w, err)
		return
	}
	if events == nil {
		events = []models.ClubEvent{}
	}

	b, err := json.Marshal(events)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// EventHandler returns an event by ID
func (e Event) EventHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID := vars["event_id"]

	eID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	event, err := e.DB.FindOne(context.Background(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(event)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateEventHandler applies a partial update to an event, creator only
func (e Event) UpdateEventHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID := vars["event_id"]
	userID := requesterID(r)

	eID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	event, err := e.DB.FindOne(context.Background(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
		return
	}
	if event.CreatedBy != userID {
		config.ErrorStatus("only the event creator can update the event", http.StatusForbidden, w, fmt.Errorf("user %s did not create event %s", userID, eventID))
		return
	}

	var req struct {
		Title       *string             `json:"title"`
		Description *string             `json:"description"`
		Location    *string             `json:"location"`
		ImageURL    *string             `json:"imageUrl"`
		StartsAt    *primitive.DateTime `json:"startsAt"`
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
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Location != nil {
		set["location"] = *req.Location
	}
	if req.ImageURL != nil {
		set["imageUrl"] = *req.ImageURL
	}
	if req.StartsAt != nil {
		set["startsAt"] = *req.StartsAt
	}

	_, err = e.DB.UpdateOne(context.Background(), bson.M{"_id": eID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update event", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "event updated successfully"}`))
}

// DeleteEventHandler deletes an event and its attendee records, creator only
func (e Event) DeleteEventHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID := vars["event_id"]
	userID := requesterID(r)

	eID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	event, err := e.DB.FindOne(context.Background(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
		return
	}
	if event.CreatedBy != userID {
		config.ErrorStatus("only the event creator can delete the event", http.StatusForbidden, w, fmt.Errorf("user %s did not create event %s", userID, eventID))
		return
	}

	_, err = e.DB.DeleteOne(context.Background(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to delete event", http.StatusInternalServerError, w, err)
		return
	}

	_, err = e.ADB.DeleteMany(context.Background(), bson.M{"eventId": eventID})
	if err != nil {
		config.ErrorStatus("failed to delete event attendees", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "event deleted successfully"}`))
}

// AttendEventHandler marks the requesting user as attending an event
func (e Event) AttendEventHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID := vars["event_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	eID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	event, err := e.DB.FindOne(context.Background(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
		return
	}

	if _, err := e.ADB.FindOne(context.Background(), bson.M{"eventId": eventID, "userId": userID}); err == nil {
		config.ErrorStatus("already attending", http.StatusConflict, w, fmt.Errorf("user %s is already attending event %s", userID, eventID))
		return
	}

	attendee := models.EventAttendee{
		ID:       primitive.NewObjectID(),
		EventID:  eventID,
		ClubID:   event.ClubID,
		UserID:   userID,
		JoinedAt: primitive.NewDateTimeFromTime(time.Now().UTC()),
	}
	_, err = e.ADB.InsertOne(context.Background(), attendee)
	if err != nil {
		config.ErrorStatus("failed to create attendee", http.StatusInternalServerError, w, err)
		return
	}

	if e.Hub != nil {
		e.Hub.Publish(TopicEventAttendees(eventID), "attendee_joined", attendee)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "attending event"}`))
}

// UnattendEventHandler removes the requesting user from an event
func (e Event) UnattendEventHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID := vars["event_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	deletedCount, err := e.ADB.DeleteOne(context.Background(), bson.M{"eventId": eventID, "userId": userID})
	if err != nil {
		config.ErrorStatus("failed to delete attendee", http.StatusInternalServerError, w, err)
		return
	}
	if deletedCount == 0 {
		config.ErrorStatus("attendee not found", http.StatusNotFound, w, fmt.Errorf("user %s is not attending event %s", userID, eventID))
		return
	}

	if e.Hub != nil {
		e.Hub.Publish(TopicEventAttendees(eventID), "attendee_left", map[string]string{"eventId": eventID, "userId": userID})
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "no longer attending event"}`))
}

// EventAttendeesHandler returns the attendees of an event and their count
func (e Event) EventAttendeesHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID := vars["event_id"]

	attendees, err := e.ADB.Find(context.Background(), bson.M{"eventId": eventID})
	if err != nil {
		config.ErrorStatus("failed to fetch attendees", http.StatusInternalServerError, w, err)
		return
	}
	if attendees == nil {
		attendees = []models.EventAttendee{}
	}

	responseBody, err := json.Marshal(map[string]interface{}{
		"count":     len(attendees),
		"attendees": attendees,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseBody)
}
