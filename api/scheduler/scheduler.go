package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/humidor-social/aficionado-api/databases"
)

// How many invites a single orphan sweep will inspect. The job runs
// daily, so a backlog larger than this drains over several runs.
const orphanScanLimit = 500

// Stale read notifications and unused push tokens are pruned after
// these windows.
const (
	notificationRetention = 90 * 24 * time.Hour
	pushTokenRetention    = 180 * 24 * time.Hour
)

// Scheduler handles periodic background cleanup jobs
type Scheduler struct {
	cron       *cron.Cron
	IDB        databases.InviteDatabase
	CDB        databases.ClubDatabase
	UDB        databases.UserDatabase
	NDB        databases.NotificationDatabase
	PTDB       databases.PushTokenDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	iDB databases.InviteDatabase,
	cDB databases.ClubDatabase,
	uDB databases.UserDatabase,
	nDB databases.NotificationDatabase,
	ptDB databases.PushTokenDatabase,
	lockDB databases.SchedulerLockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		IDB:        iDB,
		CDB:        cDB,
		UDB:        uDB,
		NDB:        nDB,
		PTDB:       ptDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep invites whose club or recipient no longer exists daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.sweepOrphanedInvites)
	if err != nil {
		zap.S().Errorw("failed to register orphaned invite job", "error", err)
	}

	// Prune read notifications past the retention window daily at 4 AM UTC
	_, err = s.cron.AddFunc("0 4 * * *", s.pruneStaleNotifications)
	if err != nil {
		zap.S().Errorw("failed to register notification pruning job", "error", err)
	}

	// Prune push tokens that have not been refreshed, weekly on Sunday at 5 AM UTC
	_, err = s.cron.AddFunc("0 5 * * 0", s.pruneDeadPushTokens)
	if err != nil {
		zap.S().Errorw("failed to register push token pruning job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Cleanup scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Cleanup scheduler stopped")
}

// sweepOrphanedInvites deletes pending invites whose club has been
// deleted or whose recipient account no longer exists. Invite rows are
// normally removed when a club is deleted or a member leaves, so this
// catches writes that raced those cleanups.
func (s *Scheduler) sweepOrphanedInvites() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "orphaned_invite_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for orphaned invite job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Orphaned invite job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "orphaned_invite_job", s.instanceID)

	zap.S().Infow("Running orphaned invite sweep", "instance", s.instanceID)

	invites, err := s.IDB.Find(ctx, bson.M{}, databases.PaginatedOpts(orphanScanLimit, 1))
	if err != nil {
		zap.S().Errorw("failed to list invites", "error", err)
		return
	}

	deleted := 0
	for _, invite := range invites {
		orphaned := false

		cID, err := primitive.ObjectIDFromHex(invite.ClubID)
		if err != nil {
			// The club id never parsed, nothing can accept this invite
			orphaned = true
		} else if _, err := s.CDB.FindOne(ctx, bson.M{"_id": cID}); err != nil {
			if err != mongo.ErrNoDocuments {
				zap.S().Errorw("failed to look up invite club", "inviteId", invite.ID, "error", err)
				continue
			}
			orphaned = true
		}

		if !orphaned {
			if _, err := s.UDB.FindOne(ctx, bson.M{"_id": invite.RecipientID}); err != nil {
				if err != mongo.ErrNoDocuments {
					zap.S().Errorw("failed to look up invite recipient", "inviteId", invite.ID, "error", err)
					continue
				}
				orphaned = true
			}
		}

		if !orphaned {
			continue
		}

		if _, err := s.IDB.DeleteOne(ctx, bson.M{"_id": invite.ID}); err != nil {
			zap.S().Errorw("failed to delete orphaned invite", "inviteId", invite.ID, "error", err)
			continue
		}
		deleted++
	}

	zap.S().Infow("Orphaned invite sweep complete",
		"scanned", len(invites),
		"deleted", deleted,
	)
}

// pruneStaleNotifications removes read notifications older than the
// retention window
func (s *Scheduler) pruneStaleNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "notification_pruning_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for notification pruning job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Notification pruning job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "notification_pruning_job", s.instanceID)

	cutoff := time.Now().UTC().Add(-notificationRetention)
	deleted, err := s.NDB.DeleteMany(ctx, bson.M{
		"read":      true,
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		zap.S().Errorw("failed to prune stale notifications", "error", err)
		return
	}

	zap.S().Infow("Notification pruning complete", "deleted", deleted, "instance", s.instanceID)
}

// pruneDeadPushTokens removes push tokens that have not been
// re-registered within the retention window. Active clients refresh
// their token on every app launch.
func (s *Scheduler) pruneDeadPushTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "push_token_pruning_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for push token pruning job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Push token pruning job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "push_token_pruning_job", s.instanceID)

	cutoff := primitive.NewDateTimeFromTime(time.Now().UTC().Add(-pushTokenRetention))
	deleted, err := s.PTDB.DeleteMany(ctx, bson.M{
		"updatedAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		zap.S().Errorw("failed to prune dead push tokens", "error", err)
		return
	}

	zap.S().Infow("Push token pruning complete", "deleted", deleted, "instance", s.instanceID)
}
