package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
	"github.com/humidor-social/aficionado-api/models"
	templates "github.com/humidor-social/aficionado-api/templates/html"
)

// Invite exported for testing purposes
type Invite struct {
	IDB      databases.InviteDatabase
	MDB      databases.MemberDatabase
	UDB      databases.UserDatabase
	CDB      databases.ClubDatabase
	Notifier Notification
}

// InviteDocID derives the invite document id from the club and sender.
// A second invite from the same sender to the same club produces the
// same id and collides on insert.
func InviteDocID(clubID, senderID string) string {
	return fmt.Sprintf("%s_%s", clubID, senderID)
}

type sendInviteRequest struct {
	ClubID      string `json:"clubId"`
	RecipientID string `json:"recipientId"`
}

// SendInviteHandler creates a pending invite for a user to join a club
func (i Invite) SendInviteHandler(w http.ResponseWriter, r *http.Request) {
	senderID := requesterID(r)
	if senderID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	var req sendInviteRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.ClubID == "" || req.RecipientID == "" {
		config.ErrorStatus("clubId and recipientId are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}

	cID, err := primitive.ObjectIDFromHex(req.ClubID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	club, err := i.CDB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get club", http.StatusNotFound, w, err)
		return
	}

	// Only members may invite
	_, err = i.MDB.FindOne(context.Background(), bson.M{"clubId": req.ClubID, "userId": senderID})
	if err != nil {
		config.ErrorStatus("only club members can send invites", http.StatusForbidden, w, err)
		return
	}

	recipient, err := i.UDB.FindOne(context.Background(), bson.M{"_id": req.RecipientID})
	if err != nil {
		config.ErrorStatus("failed to get recipient", http.StatusNotFound, w, err)
		return
	}

	invite := models.Invite{
		ID:          InviteDocID(req.ClubID, senderID),
		ClubID:      req.ClubID,
		ClubName:    club.Name,
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Status:      "pending",
		CreatedAt:   time.Now().UTC(),
	}

	_, err = i.IDB.InsertOne(context.Background(), invite)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			config.ErrorStatus("already invited", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to create invite", http.StatusInternalServerError, w, err)
		return
	}

	sender, err := i.UDB.FindOne(context.Background(), bson.M{"_id": senderID})
	senderName := "A fellow aficionado"
	if err == nil {
		senderName = sender.Details.Name
	}

	notifErr := i.Notifier.Dispatch(context.Background(), models.Notification{
		UserID:     req.RecipientID,
		FromUserID: senderID,
		Type:       models.NotificationTypeInvite,
		Message:    fmt.Sprintf("%s invited you to join %s", senderName, club.Name),
		ClubID:     req.ClubID,
		ClubName:   club.Name,
	})
	if notifErr != nil {
		zap.S().Errorf("failed to dispatch invite notification: %v", notifErr)
	}

	if recipient.Details.Email != "" {
		go sendInviteEmail(recipient.Details.Email, recipient.Details.Name, senderName, club.Name)
	}

	responseBody, err := json.Marshal(invite)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(responseBody)
}

func sendInviteEmail(toEmail, toName, senderName, clubName string) {
	from := mail.NewEmail("Aficionado", "no-reply@humidor-social.com")
	to := mail.NewEmail(toName, toEmail)
	subject := fmt.Sprintf("You're invited to %s", clubName)
	htmlContent := templates.RenderClubInviteEmail(toName, senderName, clubName)
	plainText := fmt.Sprintf("Hi %s, %s has invited you to join %s on Aficionado. Open the app to accept or decline.", toName, senderName, clubName)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send invite email", "error", err, "to", toEmail)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", toEmail)
		return
	}
	zap.S().Infow("invite email sent successfully", "to", toEmail, "club", clubName)
}

// AcceptInviteHandler turns a pending invite into a club membership
func (i Invite) AcceptInviteHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	inviteID := vars["invite_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	invite, err := i.IDB.FindOne(context.Background(), bson.M{"_id": inviteID})
	if err != nil {
		config.ErrorStatus("failed to get invite", http.StatusNotFound, w, err)
		return
	}
	if invite.RecipientID != userID {
		config.ErrorStatus("invite does not belong to user", http.StatusForbidden, w, fmt.Errorf("invite recipient mismatch"))
		return
	}

	// A stale invite can outlive a join through another path; never
	// write a second membership document
	_, err = i.MDB.FindOne(context.Background(), bson.M{"clubId": invite.ClubID, "userId": userID})
	if err == nil {
		if _, delErr := i.IDB.DeleteOne(context.Background(), bson.M{"_id": inviteID}); delErr != nil {
			zap.S().Errorf("failed to delete stale invite %s: %v", inviteID, delErr)
		}
		config.ErrorStatus("already a member", http.StatusConflict, w, fmt.Errorf("user %s is already a member of club %s", userID, invite.ClubID))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	member := models.ClubMember{
		ClubID:   invite.ClubID,
		UserID:   userID,
		Role:     "member",
		JoinedAt: now,
	}
	_, err = i.MDB.InsertOne(context.Background(), member)
	if err != nil {
		config.ErrorStatus("failed to create membership", http.StatusInternalServerError, w, err)
		return
	}

	// Mirror the membership on the user document
	joined := models.JoinedClub{
		ClubID:   invite.ClubID,
		ClubName: invite.ClubName,
		Role:     "member",
		JoinedAt: now,
	}
	_, err = i.UDB.UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"user.joinedClubs": joined}})
	if err != nil {
		config.ErrorStatus("failed to update user clubs", http.StatusInternalServerError, w, err)
		return
	}

	_, err = i.IDB.DeleteOne(context.Background(), bson.M{"_id": inviteID})
	if err != nil {
		config.ErrorStatus("failed to delete invite", http.StatusInternalServerError, w, err)
		return
	}

	accepter, err := i.UDB.FindOne(context.Background(), bson.M{"_id": userID})
	accepterName := "Your invitee"
	if err == nil {
		accepterName = accepter.Details.Name
	}
	notifErr := i.Notifier.Dispatch(context.Background(), models.Notification{
		UserID:     invite.SenderID,
		FromUserID: userID,
		Type:       models.NotificationTypeInvite,
		Message:    fmt.Sprintf("%s accepted your invitation to %s", accepterName, invite.ClubName),
		ClubID:     invite.ClubID,
		ClubName:   invite.ClubName,
	})
	if notifErr != nil {
		zap.S().Errorf("failed to dispatch invite accepted notification: %v", notifErr)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "invite accepted successfully"}`))
}

// DeclineInviteHandler removes a pending invite without joining
func (i Invite) DeclineInviteHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	inviteID := vars["invite_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	invite, err := i.IDB.FindOne(context.Background(), bson.M{"_id": inviteID})
	if err != nil {
		config.ErrorStatus("failed to get invite", http.StatusNotFound, w, err)
		return
	}
	if invite.RecipientID != userID {
		config.ErrorStatus("invite does not belong to user", http.StatusForbidden, w, fmt.Errorf("invite recipient mismatch"))
		return
	}

	_, err = i.IDB.DeleteOne(context.Background(), bson.M{"_id": inviteID})
	if err != nil {
		config.ErrorStatus("failed to delete invite", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "invite declined successfully"}`))
}

// ListUserInvitesHandler returns all pending invites for a user
func (i Invite) ListUserInvitesHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	if userID == "" {
		config.ErrorStatus("user_id is required", http.StatusBadRequest, w, fmt.Errorf("user_id is required"))
		return
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	invites, err := i.IDB.Find(context.Background(), bson.M{"recipientId": userID}, opts)
	if err != nil {
		config.ErrorStatus("failed to fetch invites", http.StatusInternalServerError, w, err)
		return
	}
	if invites == nil {
		invites = []models.Invite{}
	}

	responseBody, err := json.Marshal(invites)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseBody)
}

// cleanupScanLimit bounds the fallback scan in CleanupClubInvites
const cleanupScanLimit = 500

// CleanupClubInvites removes every invite tied to a departing member: the
// ones addressed to them for the club, the ones they sent (which carry
// the club id in their _id prefix), and a bounded sweep for legacy rows
// whose linkage only survives in denormalized fields.
func CleanupClubInvites(ctx context.Context, db databases.InviteDatabase, clubID, userID string) (int64, error) {
	var total int64

	deleted, err := db.DeleteMany(ctx, bson.M{"clubId": clubID, "recipientId": userID})
	if err != nil {
		return total, err
	}
	total += deleted

	deleted, err = db.DeleteMany(ctx, bson.M{
		"_id":      bson.M{"$regex": fmt.Sprintf("^%s_", clubID)},
		"senderId": userID,
	})
	if err != nil {
		return total, err
	}
	total += deleted

	opts := options.Find().SetLimit(cleanupScanLimit)
	invites, err := db.Find(ctx, bson.M{"$or": []bson.M{
		{"recipientId": userID},
		{"senderId": userID},
	}}, opts)
	if err != nil {
		return total, err
	}
	for _, invite := range invites {
		if invite.ClubID == clubID || invite.ClubName == clubID || InviteDocID(clubID, invite.SenderID) == invite.ID {
			deleted, err = db.DeleteOne(ctx, bson.M{"_id": invite.ID})
			if err != nil {
				return total, err
			}
			total += deleted
		}
	}

	return total, nil
}
