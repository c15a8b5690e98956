package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Admin holds the structure for the admins collection in mongo. Admins
// maintain the global cigar catalog.
type Admin struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email    string             `json:"email" bson:"email"`
	Password string             `json:"-" bson:"password"`
	Roles    []string           `json:"roles" bson:"roles"`
	Active   bool               `json:"active" bson:"active"`
}

// SchedulerLock is a mongo-backed lease used to keep cron jobs from
// running on more than one instance at a time
type SchedulerLock struct {
	ID        string             `json:"_id" bson:"_id"`
	Holder    string             `json:"holder" bson:"holder"`
	ExpiresAt primitive.DateTime `json:"expiresAt" bson:"expiresAt"`
}
