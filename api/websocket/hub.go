package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/hifi/metrics"
)

// Hub maintains the set of active clients and fans channel messages out to
// their subscribers
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients
	perIP    map[string]int

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest
	done        chan struct{}

	mu sync.RWMutex

	config *HubConfig
	logger log.Logger
}

// HubConfig contains hub configuration
type HubConfig struct {
	// Connection limits
	MaxClientsPerIP  int
	MaxSubscriptions int

	// Messages per second per client
	MessageRateLimit int
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data,omitempty"`
}

// NewHub creates a new Hub
func NewHub(config *HubConfig, logger log.Logger) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		perIP:       make(map[string]int),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		done:        make(chan struct{}),
		config:      config,
		logger:      logger.With("module", "websocket"),
	}
}

// Run processes registrations and subscriptions until ctx is done, then
// disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.perIP[client.ip]++
	metrics.GetCollector().RecordWSConnection(1)
	h.logger.Debug("client connected", "client", client.id, "ip", client.ip)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.dropLocked(client)
	close(client.send)
	metrics.GetCollector().RecordWSConnection(-1)
	h.logger.Debug("client disconnected", "client", client.id)
}

// dropLocked removes client from every channel and the per-IP count
func (h *Hub) dropLocked(client *Client) {
	for channel, clients := range h.channels {
		if _, ok := clients[client]; !ok {
			continue
		}
		delete(clients, client)
		metrics.GetCollector().WSSubscriptions.WithLabelValues(channelKind(channel)).Dec()
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	if h.perIP[client.ip]--; h.perIP[client.ip] <= 0 {
		delete(h.perIP, client.ip)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		h.dropLocked(client)
		close(client.send)
		metrics.GetCollector().RecordWSConnection(-1)
	}
}

func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	if _, ok := h.clients[req.Client]; !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := h.channels[req.Channel]; !ok {
		h.channels[req.Channel] = make(map[*Client]bool)
	}
	if !h.channels[req.Channel][req.Client] {
		h.channels[req.Channel][req.Client] = true
		metrics.GetCollector().WSSubscriptions.WithLabelValues(channelKind(req.Channel)).Inc()
	}
	h.mu.Unlock()

	req.Client.sendJSON(&WSMessage{Type: "subscribed", Channel: req.Channel})
}

func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	if _, ok := h.clients[req.Client]; !ok {
		h.mu.Unlock()
		return
	}
	if clients, ok := h.channels[req.Channel]; ok && clients[req.Client] {
		delete(clients, req.Client)
		metrics.GetCollector().WSSubscriptions.WithLabelValues(channelKind(req.Channel)).Dec()
		if len(clients) == 0 {
			delete(h.channels, req.Channel)
		}
	}
	h.mu.Unlock()

	req.Client.sendJSON(&WSMessage{Type: "unsubscribed", Channel: req.Channel})
}

// BroadcastToChannel sends a message to all clients subscribed to a channel.
// Clients with a full send buffer miss the message.
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	timer := metrics.NewTimer()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to encode broadcast", "channel", channel, "err", err)
		return
	}

	// Sends happen under the read lock so unregisterClient cannot close a
	// send channel mid-broadcast
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.channels[channel]
	if !ok {
		return
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
		}
	}
	metrics.GetCollector().RecordWSMessage(channelKind(channel), timer.ElapsedMs())
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of channels with subscribers
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) ipFull(ip string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config.MaxClientsPerIP > 0 && h.perIP[ip] >= h.config.MaxClientsPerIP
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	if h.ipFull(ip) {
		http.Error(w, "too many connections from this IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	client := NewClient(h, conn, uuid.NewString(), ip)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// channelKind is the channel prefix used as a metrics label
func channelKind(channel string) string {
	if i := strings.IndexByte(channel, ':'); i >= 0 {
		return channel[:i]
	}
	return channel
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
