package models

import "time"

// Invite represents the structure of an invite document in MongoDB.
// The _id is derived deterministically from (clubId, senderId) so a
// second invite from the same sender to the same club collides on
// insert instead of creating a duplicate pending invite.
type Invite struct {
	ID          string    `json:"_id" bson:"_id"`
	ClubID      string    `json:"clubId" bson:"clubId"`
	ClubName    string    `json:"clubName" bson:"clubName"`
	SenderID    string    `json:"senderId" bson:"senderId"`
	RecipientID string    `json:"recipientId" bson:"recipientId"`
	Status      string    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
