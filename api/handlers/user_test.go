package handlers_test

import (
	"bytes"
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

func TestUser_UserHandler_BadHex(t *testing.T) {
	mockUserDB := &mocks.UserDatabase{}

	u := handlers.User{DB: mockUserDB}

	req := httptest.NewRequest("GET", "/api/v1/user/asdf", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "asdf"})
	rr := httptest.NewRecorder()

	u.UserHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	expected := `{"response": "failed to get objectID from Hex, the provided hex string is not a valid ObjectID"}`
	assert.Equal(t, expected, rr.Body.String())
	mockUserDB.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestUser_UserHandler_StripsCredentials(t *testing.T) {
	mockUserDB := &mocks.UserDatabase{}

	mockUserDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID: "507f1f77bcf86cd799439011",
		Details: models.UserDetails{
			Name:               "Ernesto",
			Password:           "$2a$10$secret",
			ResetPasswordToken: "token123",
		},
	}, nil)

	u := handlers.User{DB: mockUserDB}

	req := httptest.NewRequest("GET", "/api/v1/user/507f1f77bcf86cd799439011", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "507f1f77bcf86cd799439011"})
	rr := httptest.NewRecorder()

	u.UserHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "$2a$10$secret")
	assert.NotContains(t, rr.Body.String(), "token123")
}

func TestUser_UserCreateHandler_MissingFields(t *testing.T) {
	mockUserDB := &mocks.UserDatabase{}

	u := handlers.User{DB: mockUserDB}

	body := []byte(`{"email": "ernesto@example.com"}`)
	req := httptest.NewRequest("POST", "/api/v1/user/create-user", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	u.UserCreateHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "email and password are required")
	mockUserDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestUser_UserCreateHandler_DuplicateEmail(t *testing.T) {
	mockUserDB := &mocks.UserDatabase{}

	mockUserDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: "existing1"}, nil)

	u := handlers.User{DB: mockUserDB}

	body := []byte(`{"email": "ernesto@example.com", "password": "hunter2"}`)
	req := httptest.NewRequest("POST", "/api/v1/user/create-user", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	u.UserCreateHandler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "email already exists")
	mockUserDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestUser_FollowUserHandler_SelfFollow(t *testing.T) {
	mockUserDB := &mocks.UserDatabase{}

	u := handlers.User{DB: mockUserDB}

	req := httptest.NewRequest("POST", "/api/v1/user/user1/follow", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "user1"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	u.FollowUserHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "users cannot follow themselves")
}

func TestUser_FollowUserHandler_AlreadyFollowing(t *testing.T) {
	mockUserDB := &mocks.UserDatabase{}
	mockNotificationDB := &mocks.NotificationDatabase{}

	// Target user exists
	mockUserDB.On("FindOne", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && len(m) == 1
	})).Return(&models.User{ID: "target1"}, nil)
	// The follow edge already exists
	mockUserDB.On("FindOne", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && len(m) == 2
	})).Return(&models.User{ID: "user1"}, nil)

	u := handlers.User{DB: mockUserDB, Notifier: handlers.Notification{NDB: mockNotificationDB}}

	req := httptest.NewRequest("POST", "/api/v1/user/target1/follow", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "target1"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	u.FollowUserHandler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already following")
	mockUserDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	mockNotificationDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUser_UnfollowUserHandler_RemovesBothEdges(t *testing.T) {
	mockUserDB := &mocks.UserDatabase{}

	mockUserDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Twice()

	u := handlers.User{DB: mockUserDB}

	req := httptest.NewRequest("POST", "/api/v1/user/target1/unfollow", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "target1"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	u.UnfollowUserHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockUserDB.AssertNumberOfCalls(t, "UpdateOne", 2)
}
