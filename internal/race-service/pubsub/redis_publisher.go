package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
	"github.com/radieske/race-pool-betting/internal/race-service/ws"
)

// ChannelRaceBroadcast é o canal Pub/Sub padrão das atualizações de corrida
const ChannelRaceBroadcast = "race_updates_broadcast"

// RedisBroadcaster é um renderizador que guarda o último snapshot de cada corrida
// no Redis (com TTL) e publica a atualização no canal Pub/Sub
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
	ttl     time.Duration
}

func NewRedisBroadcaster(r *redis.Client, channel string, ttl time.Duration) *RedisBroadcaster {
	if channel == "" {
		channel = ChannelRaceBroadcast
	}
	return &RedisBroadcaster{r: r, channel: channel, ttl: ttl}
}

// key gera a chave Redis do último snapshot de uma corrida
func key(raceID string) string { return "race:snapshot:" + raceID }

// Render implementa betting.Renderer
func (b *RedisBroadcaster) Render(ctx context.Context, s domain.Snapshot) error {
	snap, err := json.Marshal(s)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(ws.RaceUpdate{Type: "race", RaceID: s.RaceID, Payload: s})
	if err != nil {
		return err
	}

	pipe := b.r.TxPipeline()
	pipe.Set(ctx, key(s.RaceID), snap, b.ttl)
	pipe.Publish(ctx, b.channel, msg)
	_, err = pipe.Exec(ctx)
	return err
}

// Latest lê o último snapshot gravado. ok=false quando não existe (ou expirou).
func (b *RedisBroadcaster) Latest(ctx context.Context, raceID string) (snap domain.Snapshot, ok bool, err error) {
	raw, err := b.r.Get(ctx, key(raceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, false, err
	}
	return snap, true, nil
}

// SnapshotFallback devolve um ws.SnapshotFunc que busca a corrida local e, quando ela não
// existe neste processo, o último snapshot gravado no Redis (corrida de outra instância).
func (b *RedisBroadcaster) SnapshotFallback(local ws.SnapshotFunc, timeout time.Duration) ws.SnapshotFunc {
	return func(raceID string) (domain.Snapshot, error) {
		snap, err := local(raceID)
		if !errors.Is(err, domain.ErrNotFound) {
			return snap, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		cached, ok, rerr := b.Latest(ctx, raceID)
		if rerr != nil {
			return domain.Snapshot{}, fmt.Errorf("redis snapshot %s: %w", raceID, rerr)
		}
		if !ok {
			return domain.Snapshot{}, err
		}
		return cached, nil
	}
}
