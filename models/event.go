package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ClubEvent holds the structure for the club_events collection in mongo
type ClubEvent struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ClubID      string             `json:"clubId" bson:"clubId"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Location    string             `json:"location" bson:"location"`
	ImageURL    string             `json:"imageUrl" bson:"imageUrl"`
	StartsAt    primitive.DateTime `json:"startsAt" bson:"startsAt"`
	CreatedBy   string             `json:"createdBy" bson:"createdBy"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt   primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// EventAttendee holds the structure for the event_attendees collection in mongo
type EventAttendee struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	EventID  string             `json:"eventId" bson:"eventId"`
	ClubID   string             `json:"clubId" bson:"clubId"`
	UserID   string             `json:"userId" bson:"userId"`
	JoinedAt primitive.DateTime `json:"joinedAt" bson:"joinedAt"`
}
