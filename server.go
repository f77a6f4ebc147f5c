package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/input"
	"overdrive/sim/internal/logging"
)

// playerControllerID is the controller identity the tick loop reads. Intents
// arriving under other identities are stored but never drive the simulation.
const playerControllerID = "player"

// client is one websocket consumer with a bounded outbound queue. Consumers
// that cannot keep up with the tick broadcast are dropped, never waited on.
type client struct {
	conn *websocket.Conn
	send chan []byte
	id   string
}

type server struct {
	cfg      *config.Config
	log      *logging.Logger
	intents  *input.Store
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
}

func newServer(cfg *config.Config, log *logging.Logger, intents *input.Store) *server {
	return &server{
		cfg:     cfg,
		log:     log,
		intents: intents,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", s.serveHealth)
	return mux
}

func (s *server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *server) serveWS(w http.ResponseWriter, r *http.Request) {
	//1.- Enforce the client cap before paying for the upgrade.
	if s.cfg.MaxClients > 0 && s.clientCount() >= s.cfg.MaxClients {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	conn.SetReadLimit(s.cfg.MaxPayloadBytes)

	c := &client{conn: conn, send: make(chan []byte, 256), id: r.RemoteAddr}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	s.log.Info("client connected", logging.String("remote", c.id))

	go s.readLoop(c)
	go s.writeLoop(c)
}

// readLoop decodes inbound frames as input intents and feeds the store. A bad
// frame is logged and skipped; the connection survives.
func (s *server) readLoop(c *client) {
	defer func() {
		s.drop(c)
		_ = c.conn.Close()
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			s.log.Debug("client read ended", logging.String("remote", c.id), logging.Error(err))
			return
		}
		intent, err := input.Decode(raw)
		if err != nil {
			s.log.Warn("intent rejected", logging.String("remote", c.id), logging.Error(err))
			continue
		}
		if err := s.intents.Put(intent); err != nil {
			s.log.Warn("intent dropped", logging.String("remote", c.id), logging.Error(err))
		}
	}
}

func (s *server) writeLoop(c *client) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// broadcast fans a snapshot out to every client, dropping any whose queue is
// full so a stalled consumer never blocks the tick loop.
func (s *server) broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(s.clients, c)
			s.log.Warn("client dropped, send queue full", logging.String("remote", c.id))
		}
	}
}

func (s *server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
