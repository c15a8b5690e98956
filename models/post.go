package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ClubPost holds the structure for the club_posts collection in mongo
type ClubPost struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ClubID    string             `json:"clubId" bson:"clubId"`
	AuthorID  string             `json:"authorId" bson:"authorId"`
	Body      string             `json:"body" bson:"body"`
	ImageURL  string             `json:"imageUrl" bson:"imageUrl"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// PostLike holds the structure for the post_likes collection in mongo.
// One document per (post, user) pair; liking twice toggles the like off.
type PostLike struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PostID    string             `json:"postId" bson:"postId"`
	ClubID    string             `json:"clubId" bson:"clubId"`
	UserID    string             `json:"userId" bson:"userId"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// PostComment holds the structure for the post_comments collection in mongo
type PostComment struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PostID    string             `json:"postId" bson:"postId"`
	ClubID    string             `json:"clubId" bson:"clubId"`
	AuthorID  string             `json:"authorId" bson:"authorId"`
	Body      string             `json:"body" bson:"body"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
