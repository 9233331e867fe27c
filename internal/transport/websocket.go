package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"visualizer/internal/log"
	"visualizer/internal/render"
)

const (
	broadcastQueueSize = 8
	writeTimeout       = time.Second
)

// WebSocketRenderer broadcasts fresh frames as JSON to every client
// connected on /ws. Extra handlers (for example /metrics) share the server.
type WebSocketRenderer struct {
	addr     string
	upgrader websocket.Upgrader
	handlers map[string]http.Handler
	log      zerolog.Logger

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan FrameMessage
	done      chan struct{}
	server    *http.Server
	listener  net.Listener
	wg        sync.WaitGroup
	closeOnce sync.Once
	started   atomic.Bool
	dropped   atomic.Uint64
}

// NewWebSocketRenderer creates a renderer that will listen on addr. handlers
// maps extra paths to handlers served next to /ws.
func NewWebSocketRenderer(addr string, handlers map[string]http.Handler) *WebSocketRenderer {
	return &WebSocketRenderer{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local visualiser clients and browser pages alike
			},
		},
		handlers:  handlers,
		log:       log.Component("websocket"),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan FrameMessage, broadcastQueueSize),
		done:      make(chan struct{}),
	}
}

// Start binds the listener and begins serving.
func (wst *WebSocketRenderer) Start() error {
	if !wst.started.CompareAndSwap(false, true) {
		return errors.New("websocket renderer already started")
	}

	ln, err := net.Listen("tcp", wst.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", wst.addr, err)
	}
	wst.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	for path, h := range wst.handlers {
		mux.Handle(path, h)
	}

	// Create HTTP server
	wst.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	wst.wg.Add(2)
	go func() {
		defer wst.wg.Done()
		wst.log.Info().Str("addr", ln.Addr().String()).Msg("Starting WebSocket server")
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			wst.log.Error().Err(err).Msg("Server error")
		}
	}()
	go wst.handleBroadcasts()
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (wst *WebSocketRenderer) Addr() string {
	if wst.listener == nil {
		return wst.addr
	}
	return wst.listener.Addr().String()
}

// Clients returns the number of connected clients.
func (wst *WebSocketRenderer) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// Dropped returns how many frames were discarded because the broadcast
// queue was full.
func (wst *WebSocketRenderer) Dropped() uint64 {
	return wst.dropped.Load()
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (wst *WebSocketRenderer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wst.log.Warn().Err(err).Msg("Upgrade error")
		return
	}

	// Register client
	wst.clientsMu.Lock()
	select {
	case <-wst.done:
		wst.clientsMu.Unlock()
		conn.Close()
		return
	default:
	}
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.wg.Add(1)
	wst.clientsMu.Unlock()
	wst.log.Info().Int("clients", total).Msg("Client connected")

	// Handle disconnect
	go func() {
		defer wst.wg.Done()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.drop(conn)
	}()
}

func (wst *WebSocketRenderer) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	conn.Close()
	if ok {
		wst.log.Info().Int("clients", total).Msg("Client disconnected")
	}
}

// handleBroadcasts sends messages to all connected clients
func (wst *WebSocketRenderer) handleBroadcasts() {
	defer wst.wg.Done()
	for {
		select {
		case <-wst.done:
			return
		case msg := <-wst.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				wst.log.Error().Err(err).Msg("Error encoding frame")
				continue
			}
			wst.send(data)
		}
	}
}

func (wst *WebSocketRenderer) send(data []byte) {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	for client := range wst.clients {
		client.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			wst.log.Warn().Err(err).Msg("Error sending to client")
			client.Close()
			delete(wst.clients, client)
		}
	}
}

// Render queues a fresh frame for broadcast. Stale frames are not resent.
// When the queue is full the frame is dropped.
func (wst *WebSocketRenderer) Render(f render.Frame) error {
	select {
	case <-wst.done:
		return ErrClosed
	default:
	}
	if !f.Fresh {
		return nil
	}

	select {
	case wst.broadcast <- NewFrameMessage(f):
		// Message queued for broadcast
	default:
		// Channel full, drop message
		wst.dropped.Add(1)
	}
	return nil
}

// Close shuts down the WebSocket server and disconnects every client.
func (wst *WebSocketRenderer) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		wst.log.Info().Msg("Closing server")

		wst.clientsMu.Lock()
		close(wst.done)
		for client := range wst.clients {
			client.Close()
		}
		wst.clientsMu.Unlock()

		// Close server
		if wst.server != nil {
			err = wst.server.Close()
		}
		wst.wg.Wait()
	})
	return err
}

// Ensure WebSocketRenderer satisfies the interface
var _ Sink = (*WebSocketRenderer)(nil)
