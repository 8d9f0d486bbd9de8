package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-betting/pkg/contracts/events"
)

// fakeReader entrega as mensagens em ordem e depois bloqueia até o cancelamento
type fakeReader struct {
	msgs   []kafka.Message
	errs   []error
	cancel context.CancelFunc
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return kafka.Message{}, err
	}
	if len(f.msgs) == 0 {
		f.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

type fakeJournal struct {
	mu       sync.Mutex
	events   []events.RaceEvent
	failures int
}

func (f *fakeJournal) Append(_ context.Context, _ int, _ int64, e events.RaceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("db down")
	}
	f.events = append(f.events, e)
	return nil
}

type fakeDLQ struct{ msgs []kafka.Message }

func (f *fakeDLQ) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func message(t *testing.T, offset int64, e events.RaceEvent) kafka.Message {
	t.Helper()
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{Offset: offset, Key: []byte(e.RaceID), Value: b}
}

func TestProcessorJournalsEventsAndDeadLettersGarbage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		errs:   []error{errors.New("rebalance")},
		msgs: []kafka.Message{
			message(t, 1, events.RaceEvent{Type: events.TypeRaceCreated, RaceID: "r1"}),
			{Offset: 2, Value: []byte("not json")},
			message(t, 3, events.RaceEvent{Type: events.TypeBetPlaced, RaceID: "r1", Amount: 10}),
			message(t, 4, events.RaceEvent{RaceID: "r1"}), // sem tipo
		},
	}
	journal := &fakeJournal{failures: 1}
	dlq := &fakeDLQ{}

	stages := map[string]int{}
	consumed, persisted := 0, 0
	p := &Processor{
		Log:        zap.NewNop(),
		Reader:     reader,
		Journal:    journal,
		DLQ:        dlq,
		RetryDelay: time.Millisecond,
		OnConsumed: func() { consumed++ },
		OnPersist:  func() { persisted++ },
		OnError:    func(s string) { stages[s]++ },
	}

	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if consumed != 4 || persisted != 2 {
		t.Errorf("consumed=%d persisted=%d", consumed, persisted)
	}
	if len(journal.events) != 2 || journal.events[1].Amount != 10 {
		t.Errorf("unexpected journal %+v", journal.events)
	}
	if len(dlq.msgs) != 2 {
		t.Errorf("expected 2 dead letters, got %d", len(dlq.msgs))
	}
	if stages["read"] != 1 || stages["decode"] != 2 || stages["db_append"] != 1 {
		t.Errorf("unexpected error stages %v", stages)
	}
}

func TestProcessorGivesUpAfterMaxAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		msgs:   []kafka.Message{message(t, 1, events.RaceEvent{Type: events.TypeRaceClosed, RaceID: "r1"})},
	}
	journal := &fakeJournal{failures: 10}
	appendErrors := 0
	p := &Processor{
		Log:         zap.NewNop(),
		Reader:      reader,
		Journal:     journal,
		RetryDelay:  time.Millisecond,
		MaxAttempts: 2,
		OnError: func(s string) {
			if s == "db_append" {
				appendErrors++
			}
		},
	}
	_ = p.Run(ctx)

	if appendErrors != 2 {
		t.Errorf("expected 2 append attempts, got %d", appendErrors)
	}
	if len(journal.events) != 0 {
		t.Errorf("nothing should be journaled")
	}
}
