package pubsub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
	"github.com/radieske/race-pool-betting/internal/race-service/ws"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRenderStoresLatestSnapshot(t *testing.T) {
	mr, rdb := newRedis(t)
	b := NewRedisBroadcaster(rdb, "", time.Minute)
	ctx := context.Background()

	if _, ok, err := b.Latest(ctx, "r1"); ok || err != nil {
		t.Fatalf("expected no snapshot, got ok=%v err=%v", ok, err)
	}

	snap := domain.Snapshot{RaceID: "r1", Name: "Derby", Status: domain.StatusOpen, Total: 150}
	if err := b.Render(ctx, snap); err != nil {
		t.Fatalf("render: %v", err)
	}
	got, ok, err := b.Latest(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if got.Name != "Derby" || got.Total != 150 {
		t.Errorf("unexpected snapshot %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := b.Latest(ctx, "r1"); ok {
		t.Errorf("snapshot should have expired")
	}
}

func TestSubscriberForwardsToHub(t *testing.T) {
	_, rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub(zap.NewNop(), func(*http.Request) bool { return true }, func(id string) (domain.Snapshot, error) {
		return domain.Snapshot{RaceID: id}, nil
	})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	done, err := StartRedisSubscriber(ctx, zap.NewNop(), rdb, "", hub)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_ = conn.WriteJSON(ws.ClientMsg{Type: "subscribe", RaceID: "r1"})
	var initial ws.RaceUpdate
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial: %v", err)
	}

	b := NewRedisBroadcaster(rdb, "", time.Minute)
	if err := b.Render(ctx, domain.Snapshot{RaceID: "r1", Status: domain.StatusFinished, WinnerID: "2"}); err != nil {
		t.Fatalf("render: %v", err)
	}

	var upd ws.RaceUpdate
	if err := conn.ReadJSON(&upd); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if upd.Payload.WinnerID != "2" || upd.Payload.Status != domain.StatusFinished {
		t.Errorf("unexpected update %+v", upd)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestSnapshotFallbackReadsRedisForRemoteRaces(t *testing.T) {
	_, rdb := newRedis(t)
	b := NewRedisBroadcaster(rdb, "", time.Minute)
	ctx := context.Background()

	local := func(id string) (domain.Snapshot, error) {
		if id == "local" {
			return domain.Snapshot{RaceID: id, Name: "Local"}, nil
		}
		return domain.Snapshot{}, fmt.Errorf("race %q: %w", id, domain.ErrNotFound)
	}
	lookup := b.SnapshotFallback(local, time.Second)

	if got, err := lookup("local"); err != nil || got.Name != "Local" {
		t.Fatalf("local race: %+v %v", got, err)
	}
	if _, err := lookup("remote"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any render, got %v", err)
	}

	if err := b.Render(ctx, domain.Snapshot{RaceID: "remote", Name: "Remote", Total: 40}); err != nil {
		t.Fatalf("render: %v", err)
	}
	got, err := lookup("remote")
	if err != nil {
		t.Fatalf("remote race: %v", err)
	}
	if got.Name != "Remote" || got.Total != 40 {
		t.Errorf("unexpected snapshot %+v", got)
	}
}
