package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/RyanBlaney/vocalis/logging"
)

// WebSocketBroadcaster serves analysis snapshots to display clients over
// a WebSocket endpoint. Snapshots are fanned out as JSON; a client that
// cannot keep up is dropped rather than allowed to back-pressure the
// analysis side.
type WebSocketBroadcaster struct {
	addr     string
	log      logging.Logger
	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool

	broadcast chan any
	server    *http.Server
	done      chan struct{}
}

// NewWebSocketBroadcaster creates a broadcaster listening on addr with
// the snapshot endpoint at /ws.
func NewWebSocketBroadcaster(addr string) *WebSocketBroadcaster {
	return &WebSocketBroadcaster{
		addr: addr,
		log:  logging.WithFields(logging.Fields{"component": "websocket"}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 64),
		done:      make(chan struct{}),
	}
}

// Start begins serving. It returns immediately; server errors are logged.
func (b *WebSocketBroadcaster) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWebSocket)
	b.server = &http.Server{Addr: b.addr, Handler: mux}

	go func() {
		b.log.Info("listening", logging.Fields{"addr": b.addr})
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.log.Error(err, "server error")
		}
	}()
	go b.fanOut()
}

// Send queues a snapshot for broadcast. When the queue is full the
// snapshot is dropped; clients always receive the most recent frames
// rather than an ever-growing backlog.
func (b *WebSocketBroadcaster) Send(snapshot any) {
	select {
	case b.broadcast <- snapshot:
	default:
	}
}

// ServeHTTP upgrades the request directly, letting the broadcaster be
// mounted on an existing mux instead of its own server.
func (b *WebSocketBroadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.handleWebSocket(w, r)
}

// ClientCount returns the number of connected clients.
func (b *WebSocketBroadcaster) ClientCount() int {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	return len(b.clients)
}

// Close disconnects all clients and shuts the server down.
func (b *WebSocketBroadcaster) Close(ctx context.Context) error {
	close(b.done)

	b.clientsMu.Lock()
	for client := range b.clients {
		client.Close()
	}
	b.clients = make(map[*websocket.Conn]bool)
	b.clientsMu.Unlock()

	if b.server != nil {
		return b.server.Shutdown(ctx)
	}
	return nil
}

func (b *WebSocketBroadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error(err, "upgrade failed")
		return
	}

	b.clientsMu.Lock()
	b.clients[conn] = true
	total := len(b.clients)
	b.clientsMu.Unlock()
	b.log.Debug("client connected", logging.Fields{"total": total})

	// The read loop only watches for disconnect; clients do not send.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.drop(conn)
				return
			}
		}
	}()
}

func (b *WebSocketBroadcaster) fanOut() {
	for {
		select {
		case <-b.done:
			return
		case data := <-b.broadcast:
			b.clientsMu.Lock()
			for client := range b.clients {
				if err := client.WriteJSON(data); err != nil {
					client.Close()
					delete(b.clients, client)
				}
			}
			b.clientsMu.Unlock()
		}
	}
}

func (b *WebSocketBroadcaster) drop(conn *websocket.Conn) {
	b.clientsMu.Lock()
	if b.clients[conn] {
		delete(b.clients, conn)
	}
	total := len(b.clients)
	b.clientsMu.Unlock()
	conn.Close()
	b.log.Debug("client disconnected", logging.Fields{"total": total})
}
