package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/humidor-social/aficionado-api/api/handlers"
	"github.com/humidor-social/aficionado-api/databases/mocks"
	"github.com/humidor-social/aficionado-api/models"
)

func TestDedupeFollowNotifications(t *testing.T) {
	tests := []struct {
		name     string
		input    []models.Notification
		expected []string
	}{
		{
			name:     "empty input",
			input:    []models.Notification{},
			expected: []string{},
		},
		{
			name: "duplicate follows from one sender collapse to the first",
			input: []models.Notification{
				{ID: "n1", FromUserID: "alice", Type: models.NotificationTypeFollow},
				{ID: "n2", FromUserID: "alice", Type: models.NotificationTypeFollow},
				{ID: "n3", FromUserID: "alice", Type: models.NotificationTypeFollow},
			},
			expected: []string{"n1"},
		},
		{
			name: "follows from distinct senders all survive",
			input: []models.Notification{
				{ID: "n1", FromUserID: "alice", Type: models.NotificationTypeFollow},
				{ID: "n2", FromUserID: "bob", Type: models.NotificationTypeFollow},
			},
			expected: []string{"n1", "n2"},
		},
		{
			name: "other types are never collapsed",
			input: []models.Notification{
				{ID: "n1", FromUserID: "alice", Type: models.NotificationTypeLike},
				{ID: "n2", FromUserID: "alice", Type: models.NotificationTypeLike},
				{ID: "n3", FromUserID: "alice", Type: models.NotificationTypeFollow},
				{ID: "n4", FromUserID: "alice", Type: models.NotificationTypeFollow},
				{ID: "n5", FromUserID: "alice", Type: models.NotificationTypeComment},
			},
			expected: []string{"n1", "n2", "n3", "n5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := handlers.DedupeFollowNotifications(tt.input)

			ids := make([]string, 0, len(result))
			for _, n := range result {
				ids = append(ids, n.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestNotification_Dispatch_FollowUpserts(t *testing.T) {
	mockNotificationDB := &mocks.NotificationDatabase{}

	mockNotificationDB.On("UpdateOne", mock.Anything, bson.M{
		"userId":     "bob",
		"fromUserId": "alice",
		"type":       models.NotificationTypeFollow,
	}, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)

	n := handlers.Notification{NDB: mockNotificationDB}

	err := n.Dispatch(context.Background(), models.Notification{
		UserID:     "bob",
		FromUserID: "alice",
		Type:       models.NotificationTypeFollow,
		Message:    "alice started following you",
	})

	assert.NoError(t, err)
	mockNotificationDB.AssertExpectations(t)
	mockNotificationDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestNotification_Dispatch_OtherTypesInsert(t *testing.T) {
	mockNotificationDB := &mocks.NotificationDatabase{}

	mockNotificationDB.On("InsertOne", mock.Anything, mock.MatchedBy(func(notification models.Notification) bool {
		return notification.ID != "" && !notification.CreatedAt.IsZero()
	})).Return(nil, nil)

	n := handlers.Notification{NDB: mockNotificationDB}

	err := n.Dispatch(context.Background(), models.Notification{
		UserID:     "bob",
		FromUserID: "alice",
		Type:       models.NotificationTypeLike,
		Message:    "alice liked your post",
	})

	assert.NoError(t, err)
	mockNotificationDB.AssertExpectations(t)
	mockNotificationDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
