package models

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Name                 string            `json:"name" bson:"name"`
	Username             string            `json:"username" bson:"username"`
	Email                string            `json:"email" bson:"email"`
	Password             string            `json:"password" bson:"password"`
	ProfilePicture       string            `json:"profilePicture" bson:"profilePicture"`
	Bio                  string            `json:"bio" bson:"bio"`
	Location             string            `json:"location" bson:"location"`
	Plan                 string            `json:"plan" bson:"plan"`
	StripeSubscriptionID string            `json:"stripeSubscriptionId" bson:"stripeSubscriptionId"`
	Followers            []FollowEdge      `json:"followers" bson:"followers"`
	Following            []FollowEdge      `json:"following" bson:"following"`
	JoinedClubs          []JoinedClub      `json:"joinedClubs" bson:"joinedClubs"`
	FullProfile          FullProfile       `json:"fullProfile" bson:"fullProfile"`
	NotificationPrefs    map[string]bool   `json:"notificationPrefs" bson:"notificationPrefs"`
	ResetPasswordToken   string            `json:"resetPasswordToken" bson:"resetPasswordToken"`
	CreatedAt            interface{}       `json:"createdAt" bson:"createdAt"`
	UpdatedAt            interface{}       `json:"updatedAt" bson:"updatedAt"`
}

// FollowEdge is a single entry in a user's followers or following list
type FollowEdge struct {
	UserID     string      `json:"userId" bson:"userId"`
	FollowedAt interface{} `json:"followedAt" bson:"followedAt"`
}

// JoinedClub mirrors a club membership on the user document so the
// client can render "my clubs" without a second query
type JoinedClub struct {
	ClubID   string      `json:"clubId" bson:"clubId"`
	ClubName string      `json:"clubName" bson:"clubName"`
	Role     string      `json:"role" bson:"role"`
	JoinedAt interface{} `json:"joinedAt" bson:"joinedAt"`
}

// FullProfile holds the extended per-user profile, separate from the
// core user fields
type FullProfile struct {
	Bio            string   `json:"bio" bson:"bio"`
	FavoriteCigars []string `json:"favoriteCigars" bson:"favoriteCigars"`
	RarestCigars   []string `json:"rarestCigars" bson:"rarestCigars"`
	DrinkPairings  []string `json:"drinkPairings" bson:"drinkPairings"`
}
