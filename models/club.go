package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Club privacy values
const (
	ClubPrivacyPublic  = "public"
	ClubPrivacyPrivate = "private"
)

// Tag limits enforced at create and edit time
const (
	MaxTagsOnCreate = 4
	MaxTagsOnEdit   = 5
)

// Club holds the structure for the clubs collection in mongo
type Club struct {
	ID                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name               string             `json:"name" bson:"name"`
	Description        string             `json:"description" bson:"description"`
	Type               string             `json:"type" bson:"type"`
	Privacy            string             `json:"privacy" bson:"privacy"`
	Tags               []string           `json:"tags" bson:"tags"`
	Location           string             `json:"location" bson:"location"`
	OwnerID            string             `json:"ownerId" bson:"ownerId"`
	ImageURL           string             `json:"imageUrl" bson:"imageUrl"`
	BackgroundImageURL string             `json:"backgroundImageUrl" bson:"backgroundImageUrl"`
	CreatedAt          primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt          primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// ClubMember holds the structure for the club_members collection in mongo.
// One document per (club, user) pair.
type ClubMember struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ClubID   string             `json:"clubId" bson:"clubId"`
	UserID   string             `json:"userId" bson:"userId"`
	Role     string             `json:"role" bson:"role"`
	JoinedAt primitive.DateTime `json:"joinedAt" bson:"joinedAt"`
}
