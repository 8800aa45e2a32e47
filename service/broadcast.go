package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/codyde/girlsgotgame-sub002/metrics"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/utils/logger"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
)

type EventKind string

const (
	EventScoreUpdate EventKind = "score_update"
	EventActivity    EventKind = "activity"
	EventGameUpdated EventKind = "game_updated"
)

// Broadcaster is a best-effort hint channel notified after each committed
// mutation. Publish must never block or fail the triggering request;
// subscribers that miss an event reconcile by re-fetching authoritative state.
type Broadcaster interface {
	Publish(gameId int, kind EventKind, payload interface{})
}

type ScoreUpdatePayload struct {
	GameId    int                 `json:"game_id"`
	HomeScore int                 `json:"home_score"`
	AwayScore int                 `json:"away_score"`
	StatType  repository.StatType `json:"stat_type,omitempty"`
	Delta     int                 `json:"delta"`
}

type ActivityPayload struct {
	GameId   int                          `json:"game_id"`
	Activity *repository.ActivityLogEntry `json:"activity"`
}

type GameUpdatePayload struct {
	GameId int              `json:"game_id"`
	Game   *repository.Game `json:"game"`
}

type broadcastEnvelope struct {
	GameId    int         `json:"game_id"`
	Kind      EventKind   `json:"kind"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NoopBroadcaster drops everything. Used where no delivery channel is wired.
type NoopBroadcaster struct{}

func (NoopBroadcaster) Publish(gameId int, kind EventKind, payload interface{}) {}

// MultiBroadcaster fans a notification out to every sink; a failing sink never
// affects the others.
type MultiBroadcaster struct {
	Sinks []Broadcaster
}

func NewMultiBroadcaster(sinks ...Broadcaster) *MultiBroadcaster {
	return &MultiBroadcaster{Sinks: sinks}
}

func (b *MultiBroadcaster) Publish(gameId int, kind EventKind, payload interface{}) {
	for _, sink := range b.Sinks {
		sink.Publish(gameId, kind, payload)
	}
}

// hubWriteTimeout bounds how long a single stalled subscriber can hold up
// delivery to the others.
const hubWriteTimeout = 5 * time.Second

// GameHub delivers notifications to websocket subscribers of a game. No
// acknowledgement, no replay; a connection that cannot keep up is dropped.
type GameHub struct {
	mu          sync.Mutex
	connections map[int]map[*websocket.Conn]bool
}

func NewGameHub() *GameHub {
	return &GameHub{
		connections: make(map[int]map[*websocket.Conn]bool),
	}
}

func (h *GameHub) Register(gameId int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[gameId]; !ok {
		h.connections[gameId] = make(map[*websocket.Conn]bool)
	}
	h.connections[gameId][conn] = true
	metrics.LiveConnectionsGauge.Inc()
}

func (h *GameHub) Unregister(gameId int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.connections[gameId]; ok {
		if _, ok := conns[conn]; ok {
			delete(conns, conn)
			metrics.LiveConnectionsGauge.Dec()
		}
		if len(conns) == 0 {
			delete(h.connections, gameId)
		}
	}
}

func (h *GameHub) SubscriberCount(gameId int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections[gameId])
}

func (h *GameHub) Publish(gameId int, kind EventKind, payload interface{}) {
	serialized, err := json.Marshal(broadcastEnvelope{
		GameId:    gameId,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		metrics.BroadcastErrors.WithLabelValues("websocket").Inc()
		logger.Errorf("failed to serialize %s broadcast for game %d: %v", kind, gameId, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections[gameId] {
		conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, serialized); err != nil {
			conn.Close()
			delete(h.connections[gameId], conn)
			metrics.LiveConnectionsGauge.Dec()
		}
	}
	metrics.BroadcastsPublished.WithLabelValues("websocket").Inc()
}

// KafkaBroadcaster relays committed game events to the game-updates topic for
// other processes. Delivery happens off the request goroutine.
type KafkaBroadcaster struct {
	writer *kafka.Writer
}

func NewKafkaBroadcaster(writer *kafka.Writer) *KafkaBroadcaster {
	return &KafkaBroadcaster{writer: writer}
}

func (b *KafkaBroadcaster) Publish(gameId int, kind EventKind, payload interface{}) {
	serialized, err := json.Marshal(broadcastEnvelope{
		GameId:    gameId,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		metrics.BroadcastErrors.WithLabelValues("kafka").Inc()
		logger.Errorf("failed to serialize %s broadcast for game %d: %v", kind, gameId, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := b.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(strconv.Itoa(gameId)),
			Value: serialized,
		})
		if err != nil {
			metrics.BroadcastErrors.WithLabelValues("kafka").Inc()
			logger.Warnf("failed to relay %s broadcast for game %d: %v", kind, gameId, err)
			return
		}
		metrics.BroadcastsPublished.WithLabelValues("kafka").Inc()
	}()
}
