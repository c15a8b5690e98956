package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// Topic helpers. Every live-updating entity gets its own topic so
// clients subscribe to exactly the rows they render.
func TopicUserNotifications(userID string) string { return fmt.Sprintf("user:%s:notifications", userID) }

// TopicClubPosts is the feed topic for a club
func TopicClubPosts(clubID string) string { return fmt.Sprintf("club:%s:posts", clubID) }

// TopicClubMembers carries member count changes for a club
func TopicClubMembers(clubID string) string { return fmt.Sprintf("club:%s:members", clubID) }

// TopicPostLikes carries like toggles for a post
func TopicPostLikes(postID string) string { return fmt.Sprintf("post:%s:likes", postID) }

// TopicPostComments carries new comments for a post
func TopicPostComments(postID string) string { return fmt.Sprintf("post:%s:comments", postID) }

// TopicEventAttendees carries attendee changes for an event
func TopicEventAttendees(eventID string) string { return fmt.Sprintf("event:%s:attendees", eventID) }

type subscribeRequest struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Topic  string `json:"topic"`
}

// hubSession wraps a websocket connection. The gorilla connection
// allows only one concurrent writer, so every outbound frame goes
// through writeMu; close is idempotent because both the reader loop
// and a failed publish may tear the session down.
type hubSession struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

func (s *hubSession) writeJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *hubSession) close() {
	s.once.Do(func() { s.conn.Close() })
}

// Hub is a registry of live topic subscriptions keyed by topic name.
// Each websocket connection owns an explicit set of topics; closing the
// connection tears all of them down.
type Hub struct {
	mutex  sync.Mutex
	topics map[string]map[*hubSession]bool
	conns  map[*hubSession]map[string]bool
}

// NewHub creates an empty subscription hub
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*hubSession]bool),
		conns:  make(map[*hubSession]map[string]bool),
	}
}

// HandleSubscribe upgrades the connection and serves subscribe /
// unsubscribe frames until the client goes away. Initial topics may be
// passed in the "topics" query param, comma separated.
func (h *Hub) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorf("websocket upgrade error: %v", err)
		return
	}
	sess := &hubSession{conn: conn}

	if topics := r.URL.Query().Get("topics"); topics != "" {
		for _, topic := range splitTopics(topics) {
			h.subscribe(topic, sess)
		}
	}

	for {
		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			break
		}
		switch req.Action {
		case "subscribe":
			h.subscribe(req.Topic, sess)
		case "unsubscribe":
			h.unsubscribe(req.Topic, sess)
		}
	}

	h.drop(sess)
	sess.close()
}

// subscribe registers sess for topic
func (h *Hub) subscribe(topic string, sess *hubSession) {
	if topic == "" {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*hubSession]bool)
	}
	h.topics[topic][sess] = true
	if h.conns[sess] == nil {
		h.conns[sess] = make(map[string]bool)
	}
	h.conns[sess][topic] = true
}

// unsubscribe removes sess from topic
func (h *Hub) unsubscribe(topic string, sess *hubSession) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(topic, sess)
}

// drop removes every subscription held by sess
func (h *Hub) drop(sess *hubSession) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for topic := range h.conns[sess] {
		h.removeLocked(topic, sess)
	}
}

func (h *Hub) removeLocked(topic string, sess *hubSession) {
	if subs := h.topics[topic]; subs != nil {
		delete(subs, sess)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	if topics := h.conns[sess]; topics != nil {
		delete(topics, topic)
		if len(topics) == 0 {
			delete(h.conns, sess)
		}
	}
}

// SubscriberCount returns how many connections are subscribed to topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.topics[topic])
}

// Publish delivers an event to every subscriber of topic. Connections
// that fail to write are dropped entirely, matching the close handling
// in HandleSubscribe.
func (h *Hub) Publish(topic string, event string, data interface{}) {
	h.mutex.Lock()
	sessions := make([]*hubSession, 0, len(h.topics[topic]))
	for sess := range h.topics[topic] {
		sessions = append(sessions, sess)
	}
	h.mutex.Unlock()

	for _, sess := range sessions {
		err := sess.writeJSON(map[string]interface{}{
			"event": event,
			"topic": topic,
			"data":  data,
		})
		if err != nil {
			zap.S().Errorf("error publishing to topic %s: %v", topic, err)
			h.drop(sess)
			sess.close()
		}
	}
}

func splitTopics(raw string) []string {
	var topics []string
	for _, topic := range strings.Split(raw, ",") {
		if topic = strings.TrimSpace(topic); topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}
