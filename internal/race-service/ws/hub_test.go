package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	snap := func(raceID string) (domain.Snapshot, error) {
		if raceID != "r1" {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{RaceID: "r1", Name: "Derby", Status: domain.StatusOpen}, nil
	}
	hub := NewHub(nil, func(*http.Request) bool { return true }, snap)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, srv
}

func TestSubscribeReceivesCurrentSnapshotAndUpdates(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)

	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", RaceID: "r1"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var first RaceUpdate
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.Type != "race" || first.Payload.Name != "Derby" {
		t.Errorf("unexpected initial update %+v", first)
	}
	if hub.Subscribers("r1") != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Subscribers("r1"))
	}

	err := hub.Render(context.Background(), domain.Snapshot{RaceID: "r1", Status: domain.StatusClosed, Total: 42})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var next RaceUpdate
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read: %v", err)
	}
	if next.Payload.Status != domain.StatusClosed || next.Payload.Total != 42 {
		t.Errorf("unexpected update %+v", next)
	}
}

func TestSubscribeUnknownRace(t *testing.T) {
	_, srv := newTestHub(t)
	conn := dial(t, srv)

	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", RaceID: "missing"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg ErrorMsg
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" {
		t.Errorf("expected error message, got %+v", msg)
	}
}

func TestPingAndUnsubscribe(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)

	_ = conn.WriteJSON(ClientMsg{Type: "subscribe", RaceID: "r1"})
	var first RaceUpdate
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}

	_ = conn.WriteJSON(ClientMsg{Type: "unsubscribe", RaceID: "r1"})
	_ = conn.WriteJSON(ClientMsg{Type: "ping"})
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read: %v", err)
	}
	if pong["type"] != "pong" {
		t.Errorf("expected pong, got %v", pong)
	}
	// mensagens são processadas em ordem: o pong garante que o unsubscribe já foi aplicado
	if hub.Subscribers("r1") != 0 {
		t.Errorf("expected no subscribers, got %d", hub.Subscribers("r1"))
	}
}

func TestRenderWithoutSubscribers(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	if err := hub.Render(context.Background(), domain.Snapshot{RaceID: "r1"}); err != nil {
		t.Errorf("render: %v", err)
	}
}
