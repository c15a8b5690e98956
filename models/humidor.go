package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Humidor status values
const (
	HumidorStatusActive   = "active"
	HumidorStatusInactive = "inactive"
)

// FreePlanCigarCap is the maximum summed quantity across all humidors
// for users without a paid plan
const FreePlanCigarCap = 6

// Humidor holds the structure for the humidors collection in mongo
type Humidor struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Title     string             `json:"title" bson:"title"`
	Status    string             `json:"status" bson:"status"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// HumidorCigar holds the structure for the humidor_cigars collection in
// mongo. Each entry is a denormalized copy of a catalog cigar plus a
// quantity, so humidor rows render without a catalog lookup.
type HumidorCigar struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	HumidorID string             `json:"humidorId" bson:"humidorId"`
	UserID    string             `json:"userId" bson:"userId"`
	CigarID   string             `json:"cigarId" bson:"cigarId"`
	Name      string             `json:"name" bson:"name"`
	Brand     string             `json:"brand" bson:"brand"`
	ImageURL  string             `json:"imageUrl" bson:"imageUrl"`
	Strength  string             `json:"strength" bson:"strength"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	AddedAt   primitive.DateTime `json:"addedAt" bson:"addedAt"`
}

// QuantityTotal is the result shape of the humidor quantity sum aggregation
type QuantityTotal struct {
	Total int `json:"total" bson:"total"`
}
