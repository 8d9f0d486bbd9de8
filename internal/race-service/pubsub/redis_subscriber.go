package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-betting/internal/race-service/ws"
)

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis Pub/Sub
// e repassa as atualizações recebidas para os clientes WebSocket conectados via Hub
//
// Funcionamento:
// - Recebe mensagens JSON do canal Redis
// - Desserializa para RaceUpdate
// - Chama hub.Broadcast para enviar aos clientes inscritos
//
// O canal retornado é fechado quando a goroutine termina (ctx cancelado).
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *ws.Hub) (<-chan struct{}, error) {
	if channel == "" {
		channel = ChannelRaceBroadcast
	}
	sub := r.Subscribe(ctx, channel)
	// garante que a inscrição foi confirmada antes de retornar
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	ch := sub.Channel()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg == nil {
					continue
				}
				var upd ws.RaceUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
					log.Warn("race subscriber unmarshal error", zap.Error(err))
					continue
				}
				if err := hub.Broadcast(upd); err != nil {
					log.Warn("race subscriber broadcast error", zap.String("raceId", upd.RaceID), zap.Error(err))
				}
			}
		}
	}()
	return done, nil
}
