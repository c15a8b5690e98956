package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/api/handlers"
	"github.com/humidor-social/aficionado-api/databases/mocks"
	"github.com/humidor-social/aficionado-api/models"
)

func TestClub_CreateClubHandler_TooManyTags(t *testing.T) {
	mockClubDB := &mocks.ClubDatabase{}

	c := handlers.Club{DB: mockClubDB}

	body := []byte(`{"name": "Maduro Lounge", "tags": ["t1", "t2", "t3", "t4", "t5"]}`)
	req := httptest.NewRequest("POST", "/api/v1/club", bytes.NewBuffer(body))
	req.Header.Set("X-User-ID", "owner1")
	rr := httptest.NewRecorder()

	c.CreateClubHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "too many tags")
	mockClubDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestClub_CreateClubHandler_DefaultsToPublic(t *testing.T) {
	mockClubDB := &mocks.ClubDatabase{}
	mockMemberDB := &mocks.MemberDatabase{}
	mockUserDB := &mocks.UserDatabase{}

	mockClubDB.On("InsertOne", mock.Anything, mock.MatchedBy(func(club models.Club) bool {
		return club.Privacy == models.ClubPrivacyPublic && club.OwnerID == "owner1"
	})).Return(nil, nil)
	mockMemberDB.On("InsertOne", mock.Anything, mock.MatchedBy(func(member models.ClubMember) bool {
		return member.Role == "owner" && member.UserID == "owner1"
	})).Return(nil, nil)
	mockUserDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	c := handlers.Club{DB: mockClubDB, MDB: mockMemberDB, UDB: mockUserDB}

	body := []byte(`{"name": "Maduro Lounge", "tags": ["maduro", "nightlife"]}`)
	req := httptest.NewRequest("POST", "/api/v1/club", bytes.NewBuffer(body))
	req.Header.Set("X-User-ID", "owner1")
	rr := httptest.NewRecorder()

	c.CreateClubHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	mockClubDB.AssertExpectations(t)
	mockMemberDB.AssertExpectations(t)
}

func TestClub_UpdateClubHandler_TooManyTags(t *testing.T) {
	mockClubDB := &mocks.ClubDatabase{}

	mockClubDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Club{OwnerID: "owner1"}, nil)

	c := handlers.Club{DB: mockClubDB}

	body := []byte(`{"tags": ["t1", "t2", "t3", "t4", "t5", "t6"]}`)
	req := httptest.NewRequest("PATCH", "/api/v1/club/507f1f77bcf86cd799439011", bytes.NewBuffer(body))
	req = mux.SetURLVars(req, map[string]string{"club_id": "507f1f77bcf86cd799439011"})
	req.Header.Set("X-User-ID", "owner1")
	rr := httptest.NewRecorder()

	c.UpdateClubHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "too many tags")
	mockClubDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestClub_JoinClubHandler_PrivateClub(t *testing.T) {
	mockClubDB := &mocks.ClubDatabase{}
	mockMemberDB := &mocks.MemberDatabase{}

	mockClubDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Club{
		Name:    "Secret Society",
		Privacy: models.ClubPrivacyPrivate,
	}, nil)

	c := handlers.Club{DB: mockClubDB, MDB: mockMemberDB}

	req := httptest.NewRequest("POST", "/api/v1/club/507f1f77bcf86cd799439011/join", nil)
	req = mux.SetURLVars(req, map[string]string{"club_id": "507f1f77bcf86cd799439011"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	c.JoinClubHandler(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "private club")
	mockMemberDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestClub_JoinClubHandler_AlreadyMember(t *testing.T) {
	mockClubDB := &mocks.ClubDatabase{}
	mockMemberDB := &mocks.MemberDatabase{}

	mockClubDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Club{
		Name:    "Maduro Lounge",
		Privacy: models.ClubPrivacyPublic,
	}, nil)
	mockMemberDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.ClubMember{UserID: "user1"}, nil)

	c := handlers.Club{DB: mockClubDB, MDB: mockMemberDB}

	req := httptest.NewRequest("POST", "/api/v1/club/507f1f77bcf86cd799439011/join", nil)
	req = mux.SetURLVars(req, map[string]string{"club_id": "507f1f77bcf86cd799439011"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	c.JoinClubHandler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already a member")
	mockMemberDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestClub_ClubsHandler_PageIsRequestScoped(t *testing.T) {
	mockClubDB := &mocks.ClubDatabase{}

	mockClubDB.On("Find", mock.Anything, mock.Anything, mock.MatchedBy(func(opts *options.FindOptions) bool {
		return opts.Skip != nil && *opts.Skip == 20
	})).Return([]models.Club{}, nil).Once()
	mockClubDB.On("Find", mock.Anything, mock.Anything, mock.MatchedBy(func(opts *options.FindOptions) bool {
		return opts.Skip != nil && *opts.Skip == 0
	})).Return([]models.Club{}, nil).Once()

	c := handlers.Club{DB: mockClubDB}

	req := httptest.NewRequest("GET", "/api/v1/clubs?limit=10&page=2", nil)
	rr := httptest.NewRecorder()
	c.ClubsHandler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// A later request without a page param starts back at the first page
	req = httptest.NewRequest("GET", "/api/v1/clubs?limit=10", nil)
	rr = httptest.NewRecorder()
	c.ClubsHandler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	mockClubDB.AssertExpectations(t)
}
