package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	// Per-client send queue; slow clients are disconnected when it fills
	clientBufferSize = 16

	writeTimeout = 10 * time.Second
)

// LiveEvent is a journal-change notification pushed to dashboard clients
type LiveEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Time    time.Time   `json:"time"`
}

// liveClient is one connected dashboard
type liveClient struct {
	send chan []byte
}

// LiveHub broadcasts journal-change events to connected WebSocket clients.
// The dashboard uses it to refresh views when trades are imported or edited
// without polling.
type LiveHub struct {
	mu      sync.RWMutex
	clients map[*liveClient]struct{}
	log     zerolog.Logger
}

// NewLiveHub creates a new live update hub
func NewLiveHub(log zerolog.Logger) *LiveHub {
	return &LiveHub{
		clients: make(map[*liveClient]struct{}),
		log:     log.With().Str("component", "live_hub").Logger(),
	}
}

// Broadcast sends an event to every connected client. Clients whose send
// queue is full are dropped rather than blocking the caller.
func (h *LiveHub) Broadcast(event string, payload interface{}) {
	msg, err := json.Marshal(LiveEvent{
		Type:    event,
		Payload: payload,
		Time:    time.Now().UTC(),
	})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("Failed to encode live event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			close(client.send)
			delete(h.clients, client)
			h.log.Debug().Msg("Dropped slow live client")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *LiveHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS handles GET /api/live: upgrades to WebSocket and streams events
// until the client disconnects
func (h *LiveHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin is already filtered by the CORS middleware
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Debug().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	client := &liveClient{send: make(chan []byte, clientBufferSize)}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.log.Debug().Msg("Live client connected")

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[client]; ok {
			close(client.send)
			delete(h.clients, client)
		}
		h.mu.Unlock()
		h.log.Debug().Msg("Live client disconnected")
	}()

	ctx := r.Context()

	// Reader: the dashboard never sends data; reading detects disconnect
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-readDone:
			return
		case <-ctx.Done():
			return
		}
	}
}
