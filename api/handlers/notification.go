package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
	"github.com/humidor-social/aficionado-api/models"
)

// Notification exported for testing purposes
type Notification struct {
	NDB  databases.NotificationDatabase
	UDB  databases.UserDatabase
	PTDB databases.PushTokenDatabase
	Hub  *Hub
}

// DedupeFollowNotifications keeps the first occurrence per sender among
// follow notifications and leaves every other type untouched. Input is
// expected sorted newest first, so "first" means "most recent".
func DedupeFollowNotifications(notifications []models.Notification) []models.Notification {
	seen := make(map[string]bool)
	result := make([]models.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.Type == models.NotificationTypeFollow {
			if seen[n.FromUserID] {
				continue
			}
			seen[n.FromUserID] = true
		}
		result = append(result, n)
	}
	return result
}

// AddNotificationHandler creates a notification for a user
func (n Notification) AddNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var notification models.Notification
	err := json.NewDecoder(r.Body).Decode(&notification)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if notification.UserID == "" || notification.FromUserID == "" || notification.Type == "" {
		config.ErrorStatus("userId, fromUserId and type are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}

	err = n.Dispatch(context.Background(), notification)
	if err != nil {
		config.ErrorStatus("failed to create notification", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "notification created successfully"}`))
}

// Dispatch persists a notification, delivers it to live subscribers and
// fans it out to the recipient's registered push tokens. Follow
// notifications are upserted keyed on (recipient, sender, type) so a
// re-follow never stacks a second row.
func (n Notification) Dispatch(ctx context.Context, notification models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	if notification.Type == models.NotificationTypeFollow {
		filter := bson.M{
			"userId":     notification.UserID,
			"fromUserId": notification.FromUserID,
			"type":       models.NotificationTypeFollow,
		}
		update := bson.M{
			"$set": bson.M{
				"fromUserId": notification.FromUserID,
				"message":    notification.Message,
				"read":       false,
				"createdAt":  notification.CreatedAt,
			},
			"$setOnInsert": bson.M{"_id": notification.ID},
		}
		opts := options.Update().SetUpsert(true)
		_, err := n.NDB.UpdateOne(ctx, filter, update, opts)
		if err != nil {
			return err
		}
	} else {
		_, err := n.NDB.InsertOne(ctx, notification)
		if err != nil {
			return err
		}
	}

	if n.Hub != nil {
		n.Hub.Publish(TopicUserNotifications(notification.UserID), "notification", notification)
	}

	n.pushToDevices(ctx, notification)
	return nil
}

// pushToDevices sends the notification through Expo, honoring the
// recipient's notification preferences, and prunes tokens Expo reports
// as unregistered. Failures are logged, never surfaced to the caller.
func (n Notification) pushToDevices(ctx context.Context, notification models.Notification) {
	if n.PTDB == nil {
		return
	}

	if n.UDB != nil {
		recipient, err := n.UDB.FindOne(ctx, bson.M{"_id": notification.UserID})
		if err == nil && recipient.Details.NotificationPrefs != nil {
			if enabled, ok := recipient.Details.NotificationPrefs[notification.Type]; ok && !enabled {
				return
			}
		}
	}

	tokens, err := n.PTDB.Find(ctx, bson.M{"userId": notification.UserID})
	if err != nil {
		zap.S().Errorf("failed to fetch push tokens for user %s: %v", notification.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	data := map[string]interface{}{
		"type":           notification.Type,
		"notificationId": notification.ID,
	}
	if notification.ClubID != "" {
		data["clubId"] = notification.ClubID
	}
	if notification.PostID != "" {
		data["postId"] = notification.PostID
	}

	staleTokens, err := SendExpoPushNotifications(tokenStrings, pushTitleFor(notification), notification.Message, data)
	if err != nil {
		zap.S().Errorf("failed to send push notifications for user %s: %v", notification.UserID, err)
		return
	}

	if len(staleTokens) > 0 {
		_, err := n.PTDB.DeleteMany(ctx, bson.M{"token": bson.M{"$in": staleTokens}})
		if err != nil {
			zap.S().Errorf("failed to prune %d stale push tokens: %v", len(staleTokens), err)
		}
	}
}

func pushTitleFor(notification models.Notification) string {
	switch notification.Type {
	case models.NotificationTypeLike:
		return "New like"
	case models.NotificationTypeComment:
		return "New comment"
	case models.NotificationTypeFollow:
		return "New follower"
	case models.NotificationTypeInvite:
		if notification.ClubName != "" {
			return fmt.Sprintf("Invitation to %s", notification.ClubName)
		}
		return "Club invitation"
	}
	return "Notification"
}

// GetUserNotificationsHandler returns all notifications for a user,
// newest first, with duplicate follow rows collapsed and sender details
// attached
func (n Notification) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	if userID == "" {
		config.ErrorStatus("user_id is required", http.StatusBadRequest, w, fmt.Errorf("user_id is required"))
		return
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	dbResp, err := n.NDB.Find(context.Background(), bson.M{"userId": userID}, opts)
	if err != nil {
		config.ErrorStatus("failed to fetch user notifications", http.StatusInternalServerError, w, err)
		return
	}

	notifications := DedupeFollowNotifications(dbResp)

	detailedNotifications := []map[string]interface{}{}
	for _, notification := range notifications {
		sender, err := n.UDB.FindOne(context.Background(), bson.M{"_id": notification.FromUserID})
		if err != nil {
			// Skip this notification if the sender is not found
			continue
		}

		// Calculate timeAgo
		duration := time.Now().Sub(notification.CreatedAt)
		var timeAgo string
		seconds := duration.Seconds()
		minutes := duration.Minutes()
		hours := duration.Hours()
		if seconds < 60 {
			timeAgo = fmt.Sprintf("%.0f seconds ago", seconds)
		} else if minutes < 60 {
			timeAgo = fmt.Sprintf("%.0f minutes ago", minutes)
		} else if hours <= 24 {
			timeAgo = fmt.Sprintf("%.0f hours ago", hours)
		} else if hours <= 24*365 {
			days := hours / 24
			timeAgo = fmt.Sprintf("%.0f days ago", days)
		} else {
			years := hours / (24 * 365)
			timeAgo = fmt.Sprintf("%.0f years ago", years)
		}

		detailedNotification := map[string]interface{}{
			"notificationId":       notification.ID,
			"fromUserId":           notification.FromUserID,
			"type":                 notification.Type,
			"message":              notification.Message,
			"clubId":               notification.ClubID,
			"clubName":             notification.ClubName,
			"postId":               notification.PostID,
			"commentText":          notification.CommentText,
			"read":                 notification.Read,
			"createdAt":            notification.CreatedAt,
			"senderName":           sender.Details.Name,
			"senderUsername":       sender.Details.Username,
			"senderProfilePicture": sender.Details.ProfilePicture,
			"timeAgo":              timeAgo,
		}
		detailedNotifications = append(detailedNotifications, detailedNotification)
	}

	responseBody, err := json.Marshal(detailedNotifications)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseBody)
}

// MarkNotificationAsReadHandler marks a single notification as read
func (n Notification) MarkNotificationAsReadHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	notificationID := vars["notification_id"]

	if notificationID == "" {
		config.ErrorStatus("notification_id is required", http.StatusBadRequest, w, fmt.Errorf("notification_id is required"))
		return
	}

	filter := bson.M{"_id": notificationID}
	update := bson.M{"$set": bson.M{"read": true}}
	res, err := n.NDB.UpdateOne(context.Background(), filter, update)
	if err != nil {
		config.ErrorStatus("failed to update notification", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("notification not found", http.StatusNotFound, w, fmt.Errorf("no notification with id %s", notificationID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "notification marked as read"}`))
}

// DeleteNotificationHandler deletes a single notification
func (n Notification) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	notificationID := vars["notification_id"]

	if notificationID == "" {
		config.ErrorStatus("notification_id is required", http.StatusBadRequest, w, fmt.Errorf("notification_id is required"))
		return
	}

	deletedCount, err := n.NDB.DeleteOne(context.Background(), bson.M{"_id": notificationID})
	if err != nil {
		config.ErrorStatus("failed to delete notification", http.StatusInternalServerError, w, err)
		return
	}
	if deletedCount == 0 {
		config.ErrorStatus("notification not found", http.StatusNotFound, w, fmt.Errorf("no notification with id %s", notificationID))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "notification deleted successfully"}`))
}

// DeleteAllNotificationsHandler clears every notification for a user
func (n Notification) DeleteAllNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	if userID == "" {
		config.ErrorStatus("user_id is required", http.StatusBadRequest, w, fmt.Errorf("user_id is required"))
		return
	}

	deletedCount, err := n.NDB.DeleteMany(context.Background(), bson.M{"userId": userID})
	if err != nil {
		config.ErrorStatus("failed to delete notifications", http.StatusInternalServerError, w, err)
		return
	}

	body := fmt.Sprintf(`{"message": "notifications deleted successfully", "deletedCount": %d}`, deletedCount)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
