package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-betting/pkg/contracts/events"
)

// Reader é a parte do *kafka.Reader usada pelo processor
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Journal é onde os eventos são gravados
type Journal interface {
	Append(ctx context.Context, partition int, offset int64, e events.RaceEvent) error
}

// DeadLetter recebe mensagens que não puderam ser decodificadas
type DeadLetter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Processor consome eventos de corrida do Kafka e grava no diário.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log     *zap.Logger
	Reader  Reader
	Journal Journal
	DLQ     DeadLetter // opcional

	// RetryDelay é a espera após falha de leitura/gravação (default 500ms)
	RetryDelay time.Duration
	// MaxAttempts limita as tentativas de gravação de uma mensagem (default 3)
	MaxAttempts int

	OnConsumed func()       // métricas (counter++)
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase
}

var errInvalidEvent = errors.New("invalid race event")

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	delay := p.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed() // callback de métrica: mensagem consumida
		}

		if err := p.handle(ctx, m, delay); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("race event dropped",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
		}
	}
}

// handle decodifica e grava uma mensagem. Mensagens inválidas vão para a DLQ;
// falhas de gravação são tentadas novamente até MaxAttempts.
func (p *Processor) handle(ctx context.Context, m kafka.Message, delay time.Duration) error {
	ev, err := decode(m.Value)
	if err != nil {
		p.fail("decode")
		if p.DLQ != nil {
			if derr := p.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value}); derr != nil {
				p.fail("dlq")
				return errors.Join(err, derr)
			}
		}
		return err
	}

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	for i := 1; ; i++ {
		err = p.Journal.Append(ctx, m.Partition, m.Offset, ev)
		if err == nil {
			break
		}
		p.fail("db_append")
		if i >= attempts {
			return err
		}
		if !sleep(ctx, time.Duration(i)*delay) {
			return ctx.Err()
		}
	}

	if p.OnPersist != nil {
		p.OnPersist() // callback de métrica: persistência concluída
	}
	return nil
}

func decode(b []byte) (events.RaceEvent, error) {
	var ev events.RaceEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return events.RaceEvent{}, errors.Join(errInvalidEvent, err)
	}
	if ev.Type == "" || ev.RaceID == "" {
		return events.RaceEvent{}, errInvalidEvent
	}
	return ev, nil
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// sleep espera d ou até o contexto ser cancelado; false indica cancelamento
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
