package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/humidor-social/aficionado-api/api/handlers"
	"github.com/humidor-social/aficionado-api/databases/mocks"
	"github.com/humidor-social/aficionado-api/models"
)

func TestEvent_AttendEventHandler_AlreadyAttending(t *testing.T) {
	mockEventDB := &mocks.EventDatabase{}
	mockAttendeeDB := &mocks.AttendeeDatabase{}

	mockEventDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.ClubEvent{
		Title:  "Herf Night",
		ClubID: "507f1f77bcf86cd799439011",
	}, nil)
	mockAttendeeDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.EventAttendee{UserID: "user1"}, nil)

	e := handlers.Event{DB: mockEventDB, ADB: mockAttendeeDB}

	req := httptest.NewRequest("POST", "/api/v1/event/507f1f77bcf86cd799439012/attend", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "507f1f77bcf86cd799439012"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	e.AttendEventHandler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already attending")
	mockAttendeeDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestEvent_AttendEventHandler_Success(t *testing.T) {
	mockEventDB := &mocks.EventDatabase{}
	mockAttendeeDB := &mocks.AttendeeDatabase{}

	mockEventDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.ClubEvent{
		Title:  "Herf Night",
		ClubID: "507f1f77bcf86cd799439011",
	}, nil)
	mockAttendeeDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	mockAttendeeDB.On("InsertOne", mock.Anything, mock.MatchedBy(func(attendee models.EventAttendee) bool {
		return attendee.UserID == "user1" && attendee.EventID == "507f1f77bcf86cd799439012"
	})).Return(nil, nil)

	e := handlers.Event{DB: mockEventDB, ADB: mockAttendeeDB}

	req := httptest.NewRequest("POST", "/api/v1/event/507f1f77bcf86cd799439012/attend", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "507f1f77bcf86cd799439012"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	e.AttendEventHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"message": "attending event"}`, rr.Body.String())
	mockAttendeeDB.AssertExpectations(t)
}

func TestEvent_UnattendEventHandler_NotAttending(t *testing.T) {
	mockAttendeeDB := &mocks.AttendeeDatabase{}

	mockAttendeeDB.On("DeleteOne", mock.Anything, mock.Anything).Return(int64(0), nil)

	e := handlers.Event{ADB: mockAttendeeDB}

	req := httptest.NewRequest("DELETE", "/api/v1/event/507f1f77bcf86cd799439012/unattend", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "507f1f77bcf86cd799439012"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	e.UnattendEventHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "attendee not found")
}
