package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
	"github.com/humidor-social/aficionado-api/models"
)

// Club exported for testing purposes
type Club struct {
	DB  databases.ClubDatabase
	MDB databases.MemberDatabase
	UDB databases.UserDatabase
	IDB databases.InviteDatabase
	PDB databases.PostDatabase
	EDB databases.EventDatabase
	Hub *Hub
}

// CreateClubHandler creates a new club and enrolls the creator as owner
func (c Club) CreateClubHandler(w http.ResponseWriter, r *http.Request) {
	ownerID := requesterID(r)
	if ownerID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	var club models.Club
	err := json.NewDecoder(r.Body).Decode(&club)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if club.Name == "" {
		config.ErrorStatus("club name is required", http.StatusBadRequest, w, fmt.Errorf("club name is required"))
		return
	}
	if len(club.Tags) > models.MaxTagsOnCreate {
		config.ErrorStatus("too many tags", http.StatusBadRequest, w, fmt.Errorf("a club can be created with at most %d tags", models.MaxTagsOnCreate))
		return
	}
	if club.Privacy != models.ClubPrivacyPrivate {
		club.Privacy = models.ClubPrivacyPublic
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	club.ID = primitive.NewObjectID()
	club.OwnerID = ownerID
	club.CreatedAt = now
	club.UpdatedAt = now

	_, err = c.DB.InsertOne(context.Background(), club)
	if err != nil {
		config.ErrorStatus("failed to create club", http.StatusInternalServerError, w, err)
		return
	}

	member := models.ClubMember{
		ClubID:   club.ID.Hex(),
		UserID:   ownerID,
		Role:     "owner",
		JoinedAt: now,
	}
	_, err = c.MDB.InsertOne(context.Background(), member)
	if err != nil {
		config.ErrorStatus("failed to create owner membership", http.StatusInternalServerError, w, err)
		return
	}

	joined := models.JoinedClub{
		ClubID:   club.ID.Hex(),
		ClubName: club.Name,
		Role:     "owner",
		JoinedAt: now,
	}
	_, err = c.UDB.UpdateOne(context.Background(),
		bson.M{"_id": ownerID},
		bson.M{"$addToSet": bson.M{"user.joinedClubs": joined}})
	if err != nil {
		config.ErrorStatus("failed to update user clubs", http.StatusInternalServerError, w, err)
		return
	}

	responseBody, err := json.Marshal(club)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(responseBody)
}

// ClubHandler returns a club by ID
func (c Club) ClubHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]

	cID, err := primitive.ObjectIDFromHex(clubID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get club by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// updatableClubFields are the only fields an owner can change after
// creation
type updateClubRequest struct {
	Name               *string   `json:"name"`
	Description        *string   `json:"description"`
	Type               *string   `json:"type"`
	Privacy            *string   `json:"privacy"`
	Tags               *[]string `json:"tags"`
	Location           *string   `json:"location"`
	ImageURL           *string   `json:"imageUrl"`
	BackgroundImageURL *string   `json:"backgroundImageUrl"`
}

// UpdateClubHandler applies a partial update to a club, owner only
func (c Club) UpdateClubHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]
	userID := requesterID(r)

	cID, err := primitive.ObjectIDFromHex(clubID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	club, err := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get club by ID", http.StatusNotFound, w, err)
		return
	}
	if club.OwnerID != userID {
		config.ErrorStatus("only the club owner can update the club", http.StatusForbidden, w, fmt.Errorf("user %s is not the owner", userID))
		return
	}

	var req updateClubRequest
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if req.Tags != nil && len(*req.Tags) > models.MaxTagsOnEdit {
		config.ErrorStatus("too many tags", http.StatusBadRequest, w, fmt.Errorf("a club can carry at most %d tags", models.MaxTagsOnEdit))
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now().UTC())}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Type != nil {
		set["type"] = *req.Type
	}
	if req.Privacy != nil {
		set["privacy"] = *req.Privacy
	}
	if req.Tags != nil {
		set["tags"] = *req.Tags
	}
	if req.Location != nil {
		set["location"] = *req.Location
	}
	if req.ImageURL != nil {
		set["imageUrl"] = *req.ImageURL
	}
	if req.BackgroundImageURL != nil {
		set["backgroundImageUrl"] = *req.BackgroundImageURL
	}

	_, err = c.DB.UpdateOne(context.Background(), bson.M{"_id": cID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update club", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "club updated successfully"}`))
}

// DeleteClubHandler deletes a club and all of its dependent documents
func (c Club) DeleteClubHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]
	userID := requesterID(r)

	cID, err := primitive.ObjectIDFromHex(clubID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	club, err := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get club by ID", http.StatusNotFound, w, err)
		return
	}
	if club.OwnerID != userID {
		config.ErrorStatus("only the club owner can delete the club", http.StatusForbidden, w, fmt.Errorf("user %s is not the owner", userID))
		return
	}

	_, err = c.DB.DeleteOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to delete club", http.StatusInternalServerError, w, err)
		return
	}

	// Cascade. Memberships, posts, events and invites all key off the
	// club id; the joinedClubs mirror is pulled from every member doc.
	if _, err := c.MDB.DeleteMany(context.Background(), bson.M{"clubId": clubID}); err != nil {
		zap.S().Errorf("failed to delete memberships for club %s: %v", clubID, err)
	}
	if c.PDB != nil {
		if _, err := c.PDB.DeleteMany(context.Background(), bson.M{"clubId": clubID}); err != nil {
			zap.S().Errorf("failed to delete posts for club %s: %v", clubID, err)
		}
	}
	if c.EDB != nil {
		if _, err := c.EDB.DeleteMany(context.Background(), bson.M{"clubId": clubID}); err != nil {
			zap.S().Errorf("failed to delete events for club %s: %v", clubID, err)
		}
	}
	if c.IDB != nil {
		if _, err := c.IDB.DeleteMany(context.Background(), bson.M{"clubId": clubID}); err != nil {
			zap.S().Errorf("failed to delete invites for club %s: %v", clubID, err)
		}
	}
	_, err = c.UDB.UpdateMany(context.Background(),
		bson.M{"user.joinedClubs.clubId": clubID},
		bson.M{"$pull": bson.M{"user.joinedClubs": bson.M{"clubId": clubID}}})
	if err != nil {
		zap.S().Errorf("failed to pull joinedClubs mirror for club %s: %v", clubID, err)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "club deleted successfully"}`))
}

// JoinClubHandler adds the requesting user as a member of a public club
func (c Club) JoinClubHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	cID, err := primitive.ObjectIDFromHex(clubID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	club, err := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get club by ID", http.StatusNotFound, w, err)
		return
	}
	if club.Privacy == models.ClubPrivacyPrivate {
		config.ErrorStatus("private club", http.StatusForbidden, w, fmt.Errorf("club %s requires an invite", clubID))
		return
	}

	if _, err := c.MDB.FindOne(context.Background(), bson.M{"clubId": clubID, "userId": userID}); err == nil {
		config.ErrorStatus("already a member", http.StatusConflict, w, fmt.Errorf("user %s is already a member of club %s", userID, clubID))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	member := models.ClubMember{
		ClubID:   clubID,
		UserID:   userID,
		Role:     "member",
		JoinedAt: now,
	}
	_, err = c.MDB.InsertOne(context.Background(), member)
	if err != nil {
		config.ErrorStatus("failed to create membership", http.StatusInternalServerError, w, err)
		return
	}

	joined := models.JoinedClub{
		ClubID:   clubID,
		ClubName: club.Name,
		Role:     "member",
		JoinedAt: now,
	}
	_, err = c.UDB.UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"user.joinedClubs": joined}})
	if err != nil {
		config.ErrorStatus("failed to update user clubs", http.StatusInternalServerError, w, err)
		return
	}

	if c.Hub != nil {
		c.Hub.Publish(TopicClubMembers(clubID), "member_joined", member)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "club joined successfully"}`))
}

// LeaveClubHandler removes the requesting user from a club. The
// membership doc, the joinedClubs mirror and any invites tied to the
// member are all removed together.
func (c Club) LeaveClubHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	deletedCount, err := c.MDB.DeleteOne(context.Background(), bson.M{"clubId": clubID, "userId": userID})
	if err != nil {
		config.ErrorStatus("failed to delete membership", http.StatusInternalServerError, w, err)
		return
	}
	if deletedCount == 0 {
		config.ErrorStatus("membership not found", http.StatusNotFound, w, fmt.Errorf("user %s is not a member of club %s", userID, clubID))
		return
	}

	_, err = c.UDB.UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"user.joinedClubs": bson.M{"clubId": clubID}}})
	if err != nil {
		config.ErrorStatus("failed to update user clubs", http.StatusInternalServerError, w, err)
		return
	}

	if c.IDB != nil {
		if _, err := CleanupClubInvites(context.Background(), c.IDB, clubID, userID); err != nil {
			zap.S().Errorf("failed to clean up invites for user %s leaving club %s: %v", userID, clubID, err)
		}
	}

	if c.Hub != nil {
		c.Hub.Publish(TopicClubMembers(clubID), "member_left", map[string]string{"clubId": clubID, "userId": userID})
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "club left successfully"}`))
}

// ClubMembersHandler returns the members of a club with user details
func (c Club) ClubMembersHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]

	members, err := c.MDB.Find(context.Background(), bson.M{"clubId": clubID})
	if err != nil {
		config.ErrorStatus("failed to fetch club members", http.StatusInternalServerError, w, err)
		return
	}

	detailedMembers := []map[string]interface{}{}
	for _, member := range members {
		user, err := c.UDB.FindOne(context.Background(), bson.M{"_id": member.UserID})
		if err != nil {
			// Skip members whose user doc is gone
			continue
		}
		detailedMembers = append(detailedMembers, map[string]interface{}{
			"userId":         member.UserID,
			"role":           member.Role,
			"joinedAt":       member.JoinedAt,
			"name":           user.Details.Name,
			"username":       user.Details.Username,
			"profilePicture": user.Details.ProfilePicture,
		})
	}

	responseBody, err := json.Marshal(detailedMembers)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseBody)
}

// ClubsHandler returns all public clubs, paginated
func (c Club) ClubsHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	page := getPage(0, r)
	skip64 := int64(page * Limit)
	dbResp, err := c.DB.Find(context.TODO(),
		bson.M{"privacy": models.ClubPrivacyPublic},
		&options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get clubs", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Club{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UserClubsHandler returns the clubs a user has joined
func (c Club) UserClubsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	if userID == "" {
		config.ErrorStatus("user_id is required", http.StatusBadRequest, w, fmt.Errorf("user_id is required"))
		return
	}

	memberships, err := c.MDB.Find(context.Background(), bson.M{"userId": userID})
	if err != nil {
		config.ErrorStatus("failed to fetch memberships", http.StatusInternalServerError, w, err)
		return
	}

	clubs := []models.Club{}
	for _, membership := range memberships {
		cID, err := primitive.ObjectIDFromHex(membership.ClubID)
		if err != nil {
			continue
		}
		club, err := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
		if err != nil {
			continue
		}
		clubs = append(clubs, *club)
	}

	b, err := json.Marshal(clubs)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// getPage returns the requested page number, defaulting to the first
// page when the query param is absent or malformed
func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Warnf(fmt.Sprintf("failed to convert page to int, got: %v", Page))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			Page = 0
		}
	}
	return Page
}
