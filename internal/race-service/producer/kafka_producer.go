package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/race-pool-betting/pkg/contracts/events"
)

// MessageWriter é a parte do *kafka.Writer que o publisher usa
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica eventos de corrida. A chave é o raceID,
// então eventos da mesma corrida caem na mesma partição e mantêm a ordem.
type KafkaPublisher struct {
	Writer MessageWriter
	now    func() time.Time
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, now: time.Now}
}

func (p *KafkaPublisher) PublishRaceEvent(ctx context.Context, e events.RaceEvent) error {
	now := p.now()
	if e.TsUnixMs == 0 {
		e.TsUnixMs = now.UnixMilli()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.RaceID),
		Value: b,
		Time:  now,
	})
}
