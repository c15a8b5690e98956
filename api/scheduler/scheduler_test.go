package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/humidor-social/aficionado-api/databases/mocks"
	"github.com/humidor-social/aficionado-api/models"
)

func newTestScheduler(
	iDB *mocks.InviteDatabase,
	cDB *mocks.ClubDatabase,
	uDB *mocks.UserDatabase,
	nDB *mocks.NotificationDatabase,
	ptDB *mocks.PushTokenDatabase,
	lockDB *mocks.SchedulerLockDatabase,
) *Scheduler {
	return NewScheduler(iDB, cDB, uDB, nDB, ptDB, lockDB)
}

func TestScheduler_PruneStaleNotifications(t *testing.T) {
	mockLockDB := &mocks.SchedulerLockDatabase{}
	mockNotificationDB := &mocks.NotificationDatabase{}

	mockLockDB.On("TryAcquireLock", mock.Anything, "notification_pruning_job", mock.Anything, mock.Anything).Return(true, nil)
	mockLockDB.On("ReleaseLock", mock.Anything, "notification_pruning_job", mock.Anything).Return(nil)
	mockNotificationDB.On("DeleteMany", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && m["read"] == true
	})).Return(int64(3), nil)

	s := newTestScheduler(&mocks.InviteDatabase{}, &mocks.ClubDatabase{}, &mocks.UserDatabase{}, mockNotificationDB, &mocks.PushTokenDatabase{}, mockLockDB)
	s.pruneStaleNotifications()

	mockNotificationDB.AssertExpectations(t)
	mockLockDB.AssertExpectations(t)
}

func TestScheduler_PruneStaleNotifications_LockHeldElsewhere(t *testing.T) {
	mockLockDB := &mocks.SchedulerLockDatabase{}
	mockNotificationDB := &mocks.NotificationDatabase{}

	mockLockDB.On("TryAcquireLock", mock.Anything, "notification_pruning_job", mock.Anything, mock.Anything).Return(false, nil)

	s := newTestScheduler(&mocks.InviteDatabase{}, &mocks.ClubDatabase{}, &mocks.UserDatabase{}, mockNotificationDB, &mocks.PushTokenDatabase{}, mockLockDB)
	s.pruneStaleNotifications()

	mockNotificationDB.AssertNotCalled(t, "DeleteMany", mock.Anything, mock.Anything)
	mockLockDB.AssertNotCalled(t, "ReleaseLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduler_SweepOrphanedInvites(t *testing.T) {
	mockLockDB := &mocks.SchedulerLockDatabase{}
	mockInviteDB := &mocks.InviteDatabase{}
	mockClubDB := &mocks.ClubDatabase{}
	mockUserDB := &mocks.UserDatabase{}

	mockLockDB.On("TryAcquireLock", mock.Anything, "orphaned_invite_job", mock.Anything, mock.Anything).Return(true, nil)
	mockLockDB.On("ReleaseLock", mock.Anything, "orphaned_invite_job", mock.Anything).Return(nil)

	deadClub := "507f1f77bcf86cd799439011"
	liveClub := "507f1f77bcf86cd799439012"
	invites := []models.Invite{
		{ID: deadClub + "_sender1", ClubID: deadClub, SenderID: "sender1", RecipientID: "recipient1"},
		{ID: liveClub + "_sender1", ClubID: liveClub, SenderID: "sender1", RecipientID: "recipient1"},
		{ID: liveClub + "_sender2", ClubID: liveClub, SenderID: "sender2", RecipientID: "ghost1"},
	}
	mockInviteDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(invites, nil)

	deadOID, _ := primitive.ObjectIDFromHex(deadClub)
	mockClubDB.On("FindOne", mock.Anything, bson.M{"_id": deadOID}).Return(nil, mongo.ErrNoDocuments)
	mockClubDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Club{Name: "Live Club"}, nil)

	mockUserDB.On("FindOne", mock.Anything, bson.M{"_id": "recipient1"}).Return(&models.User{ID: "recipient1"}, nil)
	mockUserDB.On("FindOne", mock.Anything, bson.M{"_id": "ghost1"}).Return(nil, mongo.ErrNoDocuments)

	mockInviteDB.On("DeleteOne", mock.Anything, bson.M{"_id": deadClub + "_sender1"}).Return(int64(1), nil).Once()
	mockInviteDB.On("DeleteOne", mock.Anything, bson.M{"_id": liveClub + "_sender2"}).Return(int64(1), nil).Once()

	s := newTestScheduler(mockInviteDB, mockClubDB, mockUserDB, &mocks.NotificationDatabase{}, &mocks.PushTokenDatabase{}, mockLockDB)
	s.sweepOrphanedInvites()

	mockInviteDB.AssertExpectations(t)
	mockInviteDB.AssertNotCalled(t, "DeleteOne", mock.Anything, bson.M{"_id": liveClub + "_sender1"})
}

func TestScheduler_PruneDeadPushTokens(t *testing.T) {
	mockLockDB := &mocks.SchedulerLockDatabase{}
	mockPushTokenDB := &mocks.PushTokenDatabase{}

	mockLockDB.On("TryAcquireLock", mock.Anything, "push_token_pruning_job", mock.Anything, mock.Anything).Return(true, nil)
	mockLockDB.On("ReleaseLock", mock.Anything, "push_token_pruning_job", mock.Anything).Return(nil)
	mockPushTokenDB.On("DeleteMany", mock.Anything, mock.Anything).Return(int64(7), nil)

	s := newTestScheduler(&mocks.InviteDatabase{}, &mocks.ClubDatabase{}, &mocks.UserDatabase{}, &mocks.NotificationDatabase{}, mockPushTokenDB, mockLockDB)
	s.pruneDeadPushTokens()

	mockPushTokenDB.AssertExpectations(t)
	mockLockDB.AssertExpectations(t)
}

func TestNewScheduler_GeneratesInstanceID(t *testing.T) {
	s := newTestScheduler(&mocks.InviteDatabase{}, &mocks.ClubDatabase{}, &mocks.UserDatabase{}, &mocks.NotificationDatabase{}, &mocks.PushTokenDatabase{}, &mocks.SchedulerLockDatabase{})
	assert.NotEmpty(t, s.instanceID)
}
