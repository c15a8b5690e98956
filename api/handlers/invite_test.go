package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/humidor-social/aficionado-api/api/handlers"
	"github.com/humidor-social/aficionado-api/databases/mocks"
	"github.com/humidor-social/aficionado-api/models"
)

func TestInviteDocID(t *testing.T) {
	assert.Equal(t, "club1_sender1", handlers.InviteDocID("club1", "sender1"))

	// Same inputs always produce the same id
	assert.Equal(t, handlers.InviteDocID("club1", "sender1"), handlers.InviteDocID("club1", "sender1"))
	assert.NotEqual(t, handlers.InviteDocID("club1", "sender1"), handlers.InviteDocID("club1", "sender2"))
}

func TestInvite_SendInviteHandler_Duplicate(t *testing.T) {
	mockInviteDB := &mocks.InviteDatabase{}
	mockMemberDB := &mocks.MemberDatabase{}
	mockUserDB := &mocks.UserDatabase{}
	mockClubDB := &mocks.ClubDatabase{}

	clubID := "507f1f77bcf86cd799439011"

	mockClubDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Club{Name: "Maduro Lounge"}, nil)
	mockMemberDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.ClubMember{ClubID: clubID, UserID: "sender1"}, nil)
	mockUserDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: "recipient1"}, nil)

	dupErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	mockInviteDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, dupErr)

	i := handlers.Invite{
		IDB: mockInviteDB,
		MDB: mockMemberDB,
		UDB: mockUserDB,
		CDB: mockClubDB,
	}

	body := []byte(`{"clubId": "` + clubID + `", "recipientId": "recipient1"}`)
	req := httptest.NewRequest("POST", "/api/v1/invite", bytes.NewBuffer(body))
	req.Header.Set("X-User-ID", "sender1")
	rr := httptest.NewRecorder()

	i.SendInviteHandler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already invited")

	// The insert carries the deterministic id
	mockInviteDB.AssertCalled(t, "InsertOne", mock.Anything, mock.MatchedBy(func(invite models.Invite) bool {
		return invite.ID == handlers.InviteDocID(clubID, "sender1")
	}))
}

func TestInvite_SendInviteHandler_NonMember(t *testing.T) {
	mockInviteDB := &mocks.InviteDatabase{}
	mockMemberDB := &mocks.MemberDatabase{}
	mockUserDB := &mocks.UserDatabase{}
	mockClubDB := &mocks.ClubDatabase{}

	clubID := "507f1f77bcf86cd799439011"

	mockClubDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Club{Name: "Maduro Lounge"}, nil)
	mockMemberDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	i := handlers.Invite{
		IDB: mockInviteDB,
		MDB: mockMemberDB,
		UDB: mockUserDB,
		CDB: mockClubDB,
	}

	body := []byte(`{"clubId": "` + clubID + `", "recipientId": "recipient1"}`)
	req := httptest.NewRequest("POST", "/api/v1/invite", bytes.NewBuffer(body))
	req.Header.Set("X-User-ID", "stranger1")
	rr := httptest.NewRecorder()

	i.SendInviteHandler(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "only club members can send invites")
	mockInviteDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestInvite_AcceptInviteHandler_AlreadyMember(t *testing.T) {
	mockInviteDB := &mocks.InviteDatabase{}
	mockMemberDB := &mocks.MemberDatabase{}

	clubID := "507f1f77bcf86cd799439011"
	inviteID := handlers.InviteDocID(clubID, "sender1")

	mockInviteDB.On("FindOne", mock.Anything, bson.M{"_id": inviteID}).
		Return(&models.Invite{ID: inviteID, ClubID: clubID, ClubName: "Maduro Lounge", SenderID: "sender1", RecipientID: "user1"}, nil)
	// The recipient joined through the join endpoint before accepting
	mockMemberDB.On("FindOne", mock.Anything, bson.M{"clubId": clubID, "userId": "user1"}).
		Return(&models.ClubMember{ClubID: clubID, UserID: "user1"}, nil)
	mockInviteDB.On("DeleteOne", mock.Anything, bson.M{"_id": inviteID}).Return(int64(1), nil).Once()

	i := handlers.Invite{IDB: mockInviteDB, MDB: mockMemberDB}

	req := httptest.NewRequest("POST", "/api/v1/invite/"+inviteID+"/accept", nil)
	req = mux.SetURLVars(req, map[string]string{"invite_id": inviteID})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	i.AcceptInviteHandler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already a member")
	// No second membership document, and the stale invite is gone
	mockMemberDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	mockInviteDB.AssertExpectations(t)
}

func TestInvite_AcceptInviteHandler_Success(t *testing.T) {
	mockInviteDB := &mocks.InviteDatabase{}
	mockMemberDB := &mocks.MemberDatabase{}
	mockUserDB := &mocks.UserDatabase{}
	mockNotificationDB := &mocks.NotificationDatabase{}

	clubID := "507f1f77bcf86cd799439011"
	inviteID := handlers.InviteDocID(clubID, "sender1")

	mockInviteDB.On("FindOne", mock.Anything, bson.M{"_id": inviteID}).
		Return(&models.Invite{ID: inviteID, ClubID: clubID, ClubName: "Maduro Lounge", SenderID: "sender1", RecipientID: "user1"}, nil)
	mockMemberDB.On("FindOne", mock.Anything, bson.M{"clubId": clubID, "userId": "user1"}).
		Return(nil, mongo.ErrNoDocuments)
	mockMemberDB.On("InsertOne", mock.Anything, mock.MatchedBy(func(member models.ClubMember) bool {
		return member.ClubID == clubID && member.UserID == "user1" && member.Role == "member"
	})).Return(nil, nil)
	mockUserDB.On("UpdateOne", mock.Anything, bson.M{"_id": "user1"}, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)
	mockInviteDB.On("DeleteOne", mock.Anything, bson.M{"_id": inviteID}).Return(int64(1), nil)
	mockUserDB.On("FindOne", mock.Anything, bson.M{"_id": "user1"}).
		Return(&models.User{ID: "user1"}, nil)
	mockNotificationDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	i := handlers.Invite{
		IDB:      mockInviteDB,
		MDB:      mockMemberDB,
		UDB:      mockUserDB,
		Notifier: handlers.Notification{NDB: mockNotificationDB},
	}

	req := httptest.NewRequest("POST", "/api/v1/invite/"+inviteID+"/accept", nil)
	req = mux.SetURLVars(req, map[string]string{"invite_id": inviteID})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	i.AcceptInviteHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "invite accepted successfully")
	mockMemberDB.AssertExpectations(t)
}

func TestCleanupClubInvites(t *testing.T) {
	mockInviteDB := &mocks.InviteDatabase{}

	clubID := "507f1f77bcf86cd799439011"
	userID := "user1"

	// Invites addressed to the departing member for this club
	mockInviteDB.On("DeleteMany", mock.Anything, bson.M{"clubId": clubID, "recipientId": userID}).
		Return(int64(2), nil).Once()

	// Invites the member sent, keyed by the club id prefix
	mockInviteDB.On("DeleteMany", mock.Anything, bson.M{
		"_id":      bson.M{"$regex": "^" + clubID + "_"},
		"senderId": userID,
	}).Return(int64(1), nil).Once()

	// Legacy rows where only the denormalized fields link the invite to
	// the club
	legacy := models.Invite{ID: "legacy1", ClubName: clubID, SenderID: "other1", RecipientID: userID}
	unrelated := models.Invite{ID: "other_club", ClubID: "different", SenderID: userID}
	mockInviteDB.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Invite{legacy, unrelated}, nil)
	mockInviteDB.On("DeleteOne", mock.Anything, bson.M{"_id": "legacy1"}).Return(int64(1), nil).Once()

	total, err := handlers.CleanupClubInvites(context.Background(), mockInviteDB, clubID, userID)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), total)
	mockInviteDB.AssertNotCalled(t, "DeleteOne", mock.Anything, bson.M{"_id": "other_club"})
}
