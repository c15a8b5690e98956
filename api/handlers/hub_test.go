package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, server *httptest.Server, topics string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	if topics != "" {
		url += "?topics=" + topics
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, topic string, want int) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount(topic) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("topic %s never reached %d subscribers", topic, want)
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleSubscribe))
	defer server.Close()

	topic := TopicClubPosts("club1")
	conn := dialHub(t, server, topic)
	defer conn.Close()

	waitForSubscribers(t, hub, topic, 1)

	hub.Publish(topic, "post_created", map[string]string{"body": "hello"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame map[string]interface{}
	err := conn.ReadJSON(&frame)
	require.NoError(t, err)

	assert.Equal(t, "post_created", frame["event"])
	assert.Equal(t, topic, frame["topic"])
}

func TestHub_SubscribeAndUnsubscribeFrames(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleSubscribe))
	defer server.Close()

	conn := dialHub(t, server, "")
	defer conn.Close()

	topic := TopicPostLikes("post1")
	err := conn.WriteJSON(map[string]string{"action": "subscribe", "topic": topic})
	require.NoError(t, err)
	waitForSubscribers(t, hub, topic, 1)

	err = conn.WriteJSON(map[string]string{"action": "unsubscribe", "topic": topic})
	require.NoError(t, err)
	waitForSubscribers(t, hub, topic, 0)
}

func TestHub_CloseDropsAllSubscriptions(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleSubscribe))
	defer server.Close()

	first := TopicUserNotifications("user1")
	second := TopicClubMembers("club1")
	conn := dialHub(t, server, first+","+second)

	waitForSubscribers(t, hub, first, 1)
	waitForSubscribers(t, hub, second, 1)

	conn.Close()

	waitForSubscribers(t, hub, first, 0)
	waitForSubscribers(t, hub, second, 0)
}

func TestHub_ConcurrentPublishesShareOneConnection(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleSubscribe))
	defer server.Close()

	likes := TopicPostLikes("post1")
	comments := TopicPostComments("post1")
	conn := dialHub(t, server, likes+","+comments)
	defer conn.Close()

	waitForSubscribers(t, hub, likes, 1)
	waitForSubscribers(t, hub, comments, 1)

	// Drain frames so the server's write buffer never fills
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Publish(likes, "like_toggled", map[string]int{"count": 1})
		}()
		go func() {
			defer wg.Done()
			hub.Publish(comments, "comment_added", map[string]string{"body": "nice draw"})
		}()
	}
	wg.Wait()

	// The connection survives interleaved writes from both topics
	assert.Equal(t, 1, hub.SubscriberCount(likes))
	assert.Equal(t, 1, hub.SubscriberCount(comments))
}

func TestHub_PublishWithoutSubscribersIsHarmless(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() {
		hub.Publish(TopicEventAttendees("event1"), "attendee_joined", nil)
	})
}
