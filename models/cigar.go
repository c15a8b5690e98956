package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Cigar holds the structure for the cigars catalog collection in mongo
type Cigar struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Brand        string             `json:"brand" bson:"brand"`
	Manufacturer string             `json:"manufacturer" bson:"manufacturer"`
	Origin       string             `json:"origin" bson:"origin"`
	Wrapper      string             `json:"wrapper" bson:"wrapper"`
	Binder       string             `json:"binder" bson:"binder"`
	Filler       string             `json:"filler" bson:"filler"`
	Strength     string             `json:"strength" bson:"strength"`
	ImageURL     string             `json:"imageUrl" bson:"imageUrl"`
	Rating       float64            `json:"rating" bson:"rating"`
	CreatedAt    primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt    primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
