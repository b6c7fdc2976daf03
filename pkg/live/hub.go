package live

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/patchwork/pkg/observe"
	"github.com/vango-dev/patchwork/pkg/protocol"
	"github.com/vango-dev/patchwork/pkg/remote"
)

// Config configures a Hub.
type Config struct {
	// PingInterval is how often the hub pings idle clients (default 30s).
	PingInterval time.Duration

	// WriteTimeout bounds a single frame write (default 10s).
	WriteTimeout time.Duration

	// ReadTimeout is how long a client may stay silent before it is
	// dropped (default 2 * PingInterval).
	ReadTimeout time.Duration

	// SendBuffer is the number of messages queued per client before the
	// client is considered too slow and dropped (default 256).
	SendBuffer int

	// MaxMessageSize limits client messages (default 64KB).
	MaxMessageSize int64

	// CheckOrigin validates the Origin header. If nil, same-origin
	// requests are accepted.
	CheckOrigin func(r *http.Request) bool

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics records client and frame counts when set.
	Metrics *observe.Metrics
}

// Option configures a Hub.
type Option func(*Config)

// WithPingInterval sets the ping interval.
func WithPingInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PingInterval = d
	}
}

// WithWriteTimeout sets the write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.WriteTimeout = d
	}
}

// WithSendBuffer sets the per-client queue length.
func WithSendBuffer(n int) Option {
	return func(c *Config) {
		c.SendBuffer = n
	}
}

// WithCheckOrigin sets the origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(c *Config) {
		c.CheckOrigin = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics records hub activity on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// Hub broadcasts the mutations of one remote.Target to WebSocket clients.
type Hub struct {
	target   *remote.Target
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// mu serializes Update with client registration so a new client's
	// snapshot and the batches that follow it never overlap.
	mu      sync.Mutex
	seq     uint64
	clients map[string]*client
	closed  bool

	wg sync.WaitGroup
}

// NewHub creates a hub for target.
func NewHub(target *remote.Target, opts ...Option) *Hub {
	var config Config
	for _, opt := range opts {
		opt(&config)
	}
	if config.PingInterval <= 0 {
		config.PingInterval = 30 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = 256
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = 64 * 1024
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 2 * config.PingInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		target: target,
		config: config,
		logger: logger.With("component", "live"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		clients: make(map[string]*client),
	}
}

// Seq returns the sequence number of the last broadcast batch.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Update runs fn, which patches the hub's target, then broadcasts the
// recorded mutations. It returns the sequence number of the batch, or
// the current one if fn recorded nothing.
func (h *Hub) Update(fn func()) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn()
	h.commitLocked()
	return h.seq
}

// Broadcast sends a message of type ft to every client, chunked as
// needed.
func (h *Hub) Broadcast(ft protocol.FrameType, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(ft, 0, payload)
}

// HTML returns the serialized document.
func (h *Hub) HTML() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target.Document().HTML()
}

// Close disconnects every client and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.sendClose(protocol.CloseServerShutdown, "hub closed")
		c.close()
	}
	h.wg.Wait()
}

func (h *Hub) commitLocked() {
	mf := h.target.Flush(h.seq + 1)
	if mf == nil {
		return
	}
	h.seq = mf.Seq
	h.broadcastLocked(protocol.FrameMutations, protocol.FlagSequenced, protocol.EncodeMutations(mf))
	h.logger.Debug("broadcast mutations",
		"seq", mf.Seq,
		"count", len(mf.Mutations),
		"clients", len(h.clients))
}

func (h *Hub) broadcastLocked(ft protocol.FrameType, flags protocol.FrameFlags, payload []byte) {
	if len(h.clients) == 0 {
		return
	}
	msgs := encodeFrames(ft, flags, payload)
	for _, c := range h.clients {
		if !c.enqueue(msgs...) {
			h.logger.Warn("dropping slow client", "client", c.id)
			h.removeLocked(c)
			c.close()
		}
	}
}

// ServeWS upgrades the request and serves one client until it
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(h.config.MaxMessageSize)

	c := newClient(h, uuid.NewString(), conn)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	// Anything recorded outside Update goes out first so the snapshot
	// below starts from a flushed target.
	h.commitLocked()
	hello := encodeFrames(protocol.FrameHello, 0, protocol.EncodeHello(&protocol.Hello{ClientID: c.id, Seq: h.seq}))
	if !c.enqueue(hello...) || !c.enqueue(h.snapshotLocked()...) {
		h.mu.Unlock()
		h.logger.Warn("snapshot exceeds send buffer", "client", c.id)
		conn.Close()
		return
	}
	h.clients[c.id] = c
	h.wg.Add(2)
	h.mu.Unlock()

	if m := h.config.Metrics; m != nil {
		m.ClientConnected()
	}
	h.logger.Info("client connected", "client", c.id, "remote_addr", r.RemoteAddr)

	go c.writeLoop()
	c.readLoop()
}

func (h *Hub) snapshotLocked() [][]byte {
	return encodeFrames(protocol.FrameSnapshot, protocol.FlagSequenced, protocol.EncodeMutations(h.target.Snapshot(h.seq)))
}

// resync queues a fresh snapshot for c.
func (h *Hub) resync(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commitLocked()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	if !c.enqueue(h.snapshotLocked()...) {
		h.removeLocked(c)
		c.close()
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	if m := h.config.Metrics; m != nil {
		m.ClientDisconnected()
	}
}

func (h *Hub) frameSent(ft protocol.FrameType, n int) {
	if m := h.config.Metrics; m != nil {
		m.FrameSent(ft.String(), n)
	}
}

func encodeFrames(ft protocol.FrameType, flags protocol.FrameFlags, payload []byte) [][]byte {
	frames := protocol.Chunk(ft, flags, payload)
	msgs := make([][]byte, len(frames))
	for i, f := range frames {
		msgs[i] = f.Encode()
	}
	return msgs
}
