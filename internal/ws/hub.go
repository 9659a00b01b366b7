package ws

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

// Hub is the presence registry: at most one live connection per user id,
// plus anonymous watchers that receive presence broadcasts without being
// registered. All mutations are serialized behind the mutex.
type Hub struct {
	mu       sync.RWMutex
	peers    map[int64]Peer
	watchers map[Peer]bool
	log      *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		peers:    make(map[int64]Peer),
		watchers: make(map[Peer]bool),
		log:      log,
	}
}

// Register binds the user to the connection, replacing any prior entry
// (last registration wins), and broadcasts the online snapshot.
func (h *Hub) Register(userID int64, p Peer) {
	h.mu.Lock()
	h.peers[userID] = p
	h.mu.Unlock()
	h.broadcastOnline()
}

// Deregister removes the user's entry only if it still points at this
// connection, so a stale close can never clobber a newer registration.
// It broadcasts regardless; the snapshot is harmless when nothing changed.
func (h *Hub) Deregister(userID int64, p Peer) {
	h.mu.Lock()
	if current, ok := h.peers[userID]; ok && current == p {
		delete(h.peers, userID)
	}
	h.mu.Unlock()
	h.broadcastOnline()
}

// AddWatcher attaches an unauthenticated connection for broadcasts only.
func (h *Hub) AddWatcher(p Peer) {
	h.mu.Lock()
	h.watchers[p] = true
	h.mu.Unlock()
	h.broadcastOnline()
}

// RemoveWatcher detaches an anonymous connection.
func (h *Hub) RemoveWatcher(p Peer) {
	h.mu.Lock()
	delete(h.watchers, p)
	h.mu.Unlock()
}

// Online returns the sorted set of registered user ids.
func (h *Hub) Online() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int64, 0, len(h.peers))
	for id := range h.peers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Lookup returns the user's connection, or false when offline.
func (h *Hub) Lookup(userID int64) (Peer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.peers[userID]
	return p, ok
}

// SendToUser pushes an event to the user's registered connection.
// Fire-and-forget: a write failure drops the connection and reports
// false, it is never retried.
func (h *Hub) SendToUser(userID int64, event models.Event) bool {
	p, ok := h.Lookup(userID)
	if !ok {
		observability.IncPushSkipped()
		return false
	}

	payload, _ := json.Marshal(event)
	if err := p.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.log.Warn("websocket write failed", zap.Int64("user_id", userID), zap.Error(err))
		p.Close()
		h.Deregister(userID, p)
		observability.IncPushSkipped()
		return false
	}
	observability.IncPushDelivered()
	return true
}

// broadcastOnline sends the full online-user snapshot to every attached
// connection, registered or anonymous. Dead connections are dropped.
func (h *Hub) broadcastOnline() {
	event := models.Event{Type: models.EventOnlineUsers, OnlineUsers: h.Online()}
	payload, _ := json.Marshal(event)

	h.mu.RLock()
	targets := make(map[Peer]int64, len(h.peers)+len(h.watchers))
	for id, p := range h.peers {
		targets[p] = id
	}
	for p := range h.watchers {
		if _, ok := targets[p]; !ok {
			targets[p] = 0
		}
	}
	h.mu.RUnlock()

	for p, userID := range targets {
		if err := p.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("presence broadcast write failed", zap.Int64("user_id", userID), zap.Error(err))
			p.Close()
			h.drop(userID, p)
		}
	}
	observability.IncWSEvent("presence_broadcast")
}

// drop removes a dead connection without triggering another broadcast.
func (h *Hub) drop(userID int64, p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if userID != 0 {
		if current, ok := h.peers[userID]; ok && current == p {
			delete(h.peers, userID)
		}
	}
	delete(h.watchers, p)
}
