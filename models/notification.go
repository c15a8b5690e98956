package models

import "time"

// Notification types
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeFollow  = "follow"
	NotificationTypeInvite  = "invite"
)

// Notification holds the structure for the notifications collection in mongo
type Notification struct {
	ID          string    `json:"_id" bson:"_id"`
	UserID      string    `json:"userId" bson:"userId"`
	FromUserID  string    `json:"fromUserId" bson:"fromUserId"`
	Type        string    `json:"type" bson:"type"`
	Message     string    `json:"message" bson:"message"`
	ClubID      string    `json:"clubId,omitempty" bson:"clubId,omitempty"`
	ClubName    string    `json:"clubName,omitempty" bson:"clubName,omitempty"`
	PostID      string    `json:"postId,omitempty" bson:"postId,omitempty"`
	CommentText string    `json:"commentText,omitempty" bson:"commentText,omitempty"`
	Read        bool      `json:"read" bson:"read"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
