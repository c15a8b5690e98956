package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
)

// Subscription exported for testing purposes
type Subscription struct {
	UDB databases.UserDatabase
}

func subscriptionBaseURL() string {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "https://aficionado-api.herokuapp.com"
	}
	return base
}

// CreateCheckoutSessionHandler starts a Stripe checkout session for the
// subscription upgrade and returns its redirect URL
func (s Subscription) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = requesterID(r)
	}
	if userID == "" {
		config.ErrorStatus("userId is required", http.StatusBadRequest, w, fmt.Errorf("missing userId"))
		return
	}

	if _, err := s.UDB.FindOne(context.Background(), bson.M{"_id": userID}); err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	base := subscriptionBaseURL()
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(os.Getenv("STRIPE_PRICE_ID")),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(base + "/api/v1/subscription/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(base + "/api/v1/subscription/cancel"),
	}

	sess, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	responseBody, err := json.Marshal(map[string]string{
		"sessionId":   sess.ID,
		"checkoutUrl": sess.URL,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseBody)
}

// VerifySubscriptionHandler confirms a completed checkout session and
// upgrades the user's plan
func (s Subscription) VerifySubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		config.ErrorStatus("session_id is required", http.StatusBadRequest, w, fmt.Errorf("missing session_id"))
		return
	}

	sess, err := session.Get(sessionID, nil)
	if err != nil {
		config.ErrorStatus("failed to get checkout session", http.StatusInternalServerError, w, err)
		return
	}

	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid || sess.Subscription == nil {
		config.ErrorStatus("checkout session is not paid", http.StatusPaymentRequired, w, fmt.Errorf("session %s has payment status %s", sessionID, sess.PaymentStatus))
		return
	}

	userID := sess.ClientReferenceID
	res, err := s.UDB.UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"user.plan":                 "paid",
			"user.stripeSubscriptionId": sess.Subscription.ID,
			"user.updatedAt":            time.Now().UTC(),
		}})
	if err != nil {
		config.ErrorStatus("failed to update user plan", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("user not found", http.StatusNotFound, w, fmt.Errorf("no user with id %s", userID))
		return
	}

	zap.S().Infow("subscription verified", "userId", userID, "subscriptionId", sess.Subscription.ID)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "subscription verified", "plan": "paid"}`))
}

// UnsubscribeUserHandler cancels the user's Stripe subscription and
// drops them back to the free plan
func (s Subscription) UnsubscribeUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)
	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	user, err := s.UDB.FindOne(context.Background(), bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}
	if user.Details.StripeSubscriptionID == "" {
		config.ErrorStatus("no active subscription", http.StatusBadRequest, w, fmt.Errorf("user %s has no subscription", userID))
		return
	}

	_, err = stripesub.Cancel(user.Details.StripeSubscriptionID, nil)
	if err != nil {
		config.ErrorStatus("failed to cancel subscription", http.StatusInternalServerError, w, err)
		return
	}

	_, err = s.UDB.UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"user.plan":                 "free",
			"user.stripeSubscriptionId": "",
			"user.updatedAt":            time.Now().UTC(),
		}})
	if err != nil {
		config.ErrorStatus("failed to update user plan", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "subscription cancelled", "plan": "free"}`))
}

// HandleSuccessRedirect is the landing page Stripe redirects to after a
// completed checkout. The mobile client intercepts this URL.
func (s Subscription) HandleSuccessRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<html><body><h2>Payment complete</h2><p>You can return to the app.</p></body></html>`))
}

// HandleCancelRedirect is the landing page Stripe redirects to when the
// user abandons checkout
func (s Subscription) HandleCancelRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<html><body><h2>Checkout cancelled</h2><p>You can return to the app.</p></body></html>`))
}
