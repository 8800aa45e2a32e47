package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestMultiBroadcasterFansOut(t *testing.T) {
	first := &recordingBroadcaster{}
	second := &recordingBroadcaster{}
	broadcaster := NewMultiBroadcaster(first, second, NoopBroadcaster{})

	broadcaster.Publish(7, EventScoreUpdate, ScoreUpdatePayload{GameId: 7, HomeScore: 2})

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
	assert.Equal(t, 7, first.events[0].GameId)
	assert.Equal(t, EventScoreUpdate, second.events[0].Kind)
}

func TestGameHubSubscriberCount(t *testing.T) {
	hub := NewGameHub()
	assert.Equal(t, 0, hub.SubscriberCount(1))

	// publishing to a game with no subscribers must not panic
	hub.Publish(1, EventScoreUpdate, ScoreUpdatePayload{GameId: 1})
}

func TestGameHubDeliversToSubscriber(t *testing.T) {
	hub := NewGameHub()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.Register(3, conn)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	assert.NoError(t, err)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount(3) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, hub.SubscriberCount(3))

	// the publish path sets a write deadline per subscriber and still delivers
	hub.Publish(3, EventScoreUpdate, ScoreUpdatePayload{GameId: 3, HomeScore: 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	assert.NoError(t, err)

	var envelope broadcastEnvelope
	assert.NoError(t, json.Unmarshal(message, &envelope))
	assert.Equal(t, 3, envelope.GameId)
	assert.Equal(t, EventScoreUpdate, envelope.Kind)
}
