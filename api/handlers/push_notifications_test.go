package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendExpoPushNotifications_EmptyTokens(t *testing.T) {
	stale, err := SendExpoPushNotifications(nil, "title", "body", nil)
	assert.NoError(t, err)
	assert.Nil(t, stale)
}

func TestSendExpoPushNotifications_BatchesAndPrunes(t *testing.T) {
	var batchSizes []int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var messages []ExpoPushMessage
		err := json.NewDecoder(r.Body).Decode(&messages)
		assert.NoError(t, err)
		batchSizes = append(batchSizes, len(messages))

		tickets := make([]expoPushTicket, len(messages))
		for i := range messages {
			tickets[i].Status = "ok"
		}
		// The sixth token of the first batch belongs to an uninstalled app
		if len(batchSizes) == 1 {
			tickets[5].Status = "error"
			tickets[5].Details.Error = "DeviceNotRegistered"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(expoPushResponse{Data: tickets})
	}))
	defer server.Close()

	original := expoPushURL
	expoPushURL = server.URL
	defer func() { expoPushURL = original }()

	tokens := make([]string, 150)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("ExponentPushToken[%d]", i)
	}

	stale, err := SendExpoPushNotifications(tokens, "New like", "somebody liked your post", map[string]interface{}{"type": "like"})

	assert.NoError(t, err)
	assert.Equal(t, []int{100, 50}, batchSizes)
	assert.Equal(t, []string{"ExponentPushToken[5]"}, stale)
}

func TestSendExpoPushNotifications_ContinuesPastFailedBatch(t *testing.T) {
	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		var messages []ExpoPushMessage
		_ = json.NewDecoder(r.Body).Decode(&messages)
		tickets := make([]expoPushTicket, len(messages))
		for i := range messages {
			tickets[i].Status = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(expoPushResponse{Data: tickets})
	}))
	defer server.Close()

	original := expoPushURL
	expoPushURL = server.URL
	defer func() { expoPushURL = original }()

	tokens := make([]string, 120)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("ExponentPushToken[%d]", i)
	}

	stale, err := SendExpoPushNotifications(tokens, "title", "body", nil)

	// A failed batch is logged and skipped, the rest still go out
	assert.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Empty(t, stale)
}
