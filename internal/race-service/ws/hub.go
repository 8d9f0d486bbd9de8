package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
)

const writeWait = 5 * time.Second

// SnapshotFunc busca o estado atual de uma corrida (enviado logo após o subscribe)
type SnapshotFunc func(raceID string) (domain.Snapshot, error)

// client serializa as escritas numa conexão: o gorilla não aceita writers concorrentes
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *client) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(b)
}

// Hub gerencia conexões WebSocket e assinaturas de corridas.
// É o adaptador de apresentação padrão: Render envia o snapshot aos inscritos.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	snapshot SnapshotFunc

	mu sync.RWMutex
	// raceID -> set of clients
	subs map[string]map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS).
// snapshot pode ser nil; nesse caso o cliente só recebe a próxima atualização.
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool, snapshot SnapshotFunc) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		snapshot: snapshot,
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe em corridas e responde a pings
// Cada cliente pode se inscrever em várias corridas
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	c := &client{conn: conn}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.RaceID == "" {
				_ = c.writeJSON(ErrorMsg{Type: "error", Message: "raceId required"})
				continue
			}
			h.subscribe(msg.RaceID, c)
			if h.snapshot != nil {
				if snap, err := h.snapshot(msg.RaceID); err == nil {
					_ = c.writeJSON(RaceUpdate{Type: "race", RaceID: snap.RaceID, Payload: snap})
				} else {
					_ = c.writeJSON(ErrorMsg{Type: "error", Message: "race not found"})
				}
			}
		case "unsubscribe":
			h.unsubscribe(msg.RaceID, c)
		case "ping":
			_ = c.writeJSON(map[string]string{"type": "pong"})
		}
	}
	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) subscribe(raceID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[raceID]; !ok {
		h.subs[raceID] = make(map[*client]struct{})
	}
	h.subs[raceID][c] = struct{}{}
}

func (h *Hub) unsubscribe(raceID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[raceID]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, raceID)
		}
	}
}

// Subscribers retorna quantos clientes acompanham a corrida
func (h *Hub) Subscribers(raceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[raceID])
}

// Render implementa betting.Renderer enviando o snapshot para os inscritos da corrida
func (h *Hub) Render(_ context.Context, s domain.Snapshot) error {
	return h.Broadcast(RaceUpdate{Type: "race", RaceID: s.RaceID, Payload: s})
}

// Broadcast envia uma atualização para todos os clientes inscritos no raceID correspondente.
// Falha de escrita num cliente não impede os demais; o cliente é removido no próximo read.
func (h *Hub) Broadcast(update RaceUpdate) error {
	h.mu.RLock()
	set := h.subs[update.RaceID]
	clients := make([]*client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return nil
	}

	b, err := json.Marshal(update)
	if err != nil {
		return err
	}
	for _, c := range clients {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.String("raceId", update.RaceID), zap.Error(err))
		}
	}
	return nil
}
