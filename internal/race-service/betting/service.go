package betting

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
	"github.com/radieske/race-pool-betting/internal/race-service/ledger"
	"github.com/radieske/race-pool-betting/internal/race-service/race"
	"github.com/radieske/race-pool-betting/internal/race-service/registry"
	"github.com/radieske/race-pool-betting/internal/shared/metrics"
	"github.com/radieske/race-pool-betting/pkg/contracts/events"
)

// Renderer recebe o estado público da corrida depois de cada mutação
// (WebSocket, Redis, bot de chat...). Falhas não desfazem a mutação.
type Renderer interface {
	Render(ctx context.Context, s domain.Snapshot) error
}

// EventPublisher publica eventos de corrida (Kafka). Também best-effort.
type EventPublisher interface {
	PublishRaceEvent(ctx context.Context, e events.RaceEvent) error
}

// Deps são as dependências do Service. Renderers e Publisher são opcionais.
type Deps struct {
	Log       *zap.Logger
	Races     *registry.Registry
	Ledger    *ledger.Ledger
	Renderers []Renderer
	Publisher EventPublisher
	Metrics   *metrics.RaceMetrics

	// SideEffectTimeout limita render + publish de cada ação (default 2s)
	SideEffectTimeout time.Duration
}

// Service orquestra as ações dos atores sobre corridas e saldos:
// valida permissões, aplica a mutação e dispara render/publicação fora do lock da corrida.
type Service struct {
	log       *zap.Logger
	races     *registry.Registry
	ledger    *ledger.Ledger
	renderers []Renderer
	publ      EventPublisher
	metrics   *metrics.RaceMetrics
	timeout   time.Duration
}

func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	timeout := d.SideEffectTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{
		log:       log,
		races:     d.Races,
		ledger:    d.Ledger,
		renderers: d.Renderers,
		publ:      d.Publisher,
		metrics:   d.Metrics,
		timeout:   timeout,
	}
}

// BetAction é a ação de aposta como chega de fora: o valor ainda é texto cru
type BetAction struct {
	ActorID      string
	RaceID       string
	CompetitorID string
	Amount       string
}

// ParseAmount converte o valor cru de uma aposta. Só inteiros positivos são aceitos.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, domain.ErrInvalidAmount)
	}
	if n <= 0 {
		return 0, fmt.Errorf("amount %d: %w", n, domain.ErrInvalidAmount)
	}
	return n, nil
}

// authorizeHost é a checagem única de permissão das ações exclusivas do host
func authorizeHost(r *race.Race, actorID string) error {
	if actorID == "" || !r.IsHost(actorID) {
		return fmt.Errorf("actor %q on race %s: %w", actorID, r.ID(), domain.ErrForbidden)
	}
	return nil
}

// CreateRace abre uma corrida nova com o ator como host
func (s *Service) CreateRace(ctx context.Context, hostID, name string, competitorNames []string) (domain.Snapshot, error) {
	r, err := s.races.Create(name, hostID, competitorNames)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s.metrics.RaceCreated()
	s.log.Info("race created",
		zap.String("raceId", r.ID()),
		zap.String("hostId", hostID),
		zap.Int("competitors", len(competitorNames)),
	)

	snap := s.afterMutation(ctx, r, race.State{Status: domain.StatusOpen}, events.RaceEvent{Type: events.TypeRaceCreated, ActorID: hostID})
	return snap, nil
}

// RequestBet traduz a ação crua e registra a aposta
func (s *Service) RequestBet(ctx context.Context, a BetAction) (domain.Wager, error) {
	amount, err := ParseAmount(a.Amount)
	if err != nil {
		s.metrics.BetRejected(domain.Kind(err))
		return domain.Wager{}, err
	}
	return s.PlaceBet(ctx, a.ActorID, a.RaceID, a.CompetitorID, amount)
}

// PlaceBet registra uma aposta tipada. Débito e aposta acontecem juntos ou não acontecem.
func (s *Service) PlaceBet(ctx context.Context, actorID, raceID, competitorID string, amount int64) (domain.Wager, error) {
	if strings.TrimSpace(actorID) == "" {
		s.metrics.BetRejected(domain.Kind(domain.ErrInvalidInput))
		return domain.Wager{}, fmt.Errorf("bettor is empty: %w", domain.ErrInvalidInput)
	}
	r, err := s.races.Get(raceID)
	if err != nil {
		s.metrics.BetRejected(domain.Kind(err))
		return domain.Wager{}, err
	}

	rc, err := r.PlaceBet(s.ledger, actorID, competitorID, amount)
	if err != nil {
		s.metrics.BetRejected(domain.Kind(err))
		s.log.Debug("bet rejected",
			zap.String("raceId", raceID),
			zap.String("bettorId", actorID),
			zap.String("reason", domain.Kind(err)),
		)
		return domain.Wager{}, err
	}
	s.metrics.BetPlaced(amount)
	s.log.Info("bet placed",
		zap.String("raceId", raceID),
		zap.String("bettorId", actorID),
		zap.String("competitorId", competitorID),
		zap.Int64("amount", amount),
	)

	s.afterMutation(ctx, r, rc.State, events.RaceEvent{
		Type:         events.TypeBetPlaced,
		ActorID:      actorID,
		CompetitorID: competitorID,
		Amount:       amount,
	})
	return rc.Wager, nil
}

// RequestClose encerra as apostas de uma corrida (somente host)
func (s *Service) RequestClose(ctx context.Context, actorID, raceID string) (domain.Snapshot, error) {
	r, err := s.races.Get(raceID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := authorizeHost(r, actorID); err != nil {
		return domain.Snapshot{}, err
	}
	st, err := r.Close(actorID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s.metrics.RaceClosed()
	s.log.Info("race closed", zap.String("raceId", raceID), zap.Int64("total", st.Total))

	snap := s.afterMutation(ctx, r, st, events.RaceEvent{Type: events.TypeRaceClosed, ActorID: actorID})
	return snap, nil
}

// RequestDeclare declara o vencedor e liquida a corrida (somente host)
func (s *Service) RequestDeclare(ctx context.Context, actorID, raceID, competitorID string) (race.Settlement, error) {
	r, err := s.races.Get(raceID)
	if err != nil {
		return race.Settlement{}, err
	}
	if err := authorizeHost(r, actorID); err != nil {
		return race.Settlement{}, err
	}
	st, err := r.DeclareWinner(s.ledger, actorID, competitorID)
	if err != nil {
		return race.Settlement{}, err
	}
	s.metrics.RaceSettled(st.Paid, st.Remainder)
	// a sobra do arredondamento fica com a casa; só registramos
	s.log.Info("race settled",
		zap.String("raceId", raceID),
		zap.String("winnerId", competitorID),
		zap.Float64("odds", st.Odds),
		zap.Int64("total", st.Total),
		zap.Int64("paid", st.Paid),
		zap.Int64("remainder", st.Remainder),
	)

	s.afterMutation(ctx, r, race.State{Status: domain.StatusFinished, Total: st.Total}, events.RaceEvent{
		Type:         events.TypeRaceSettled,
		ActorID:      actorID,
		CompetitorID: competitorID,
		Paid:         st.Paid,
		Remainder:    st.Remainder,
	})
	return st, nil
}

// Race retorna o snapshot de uma corrida
func (s *Service) Race(raceID string) (domain.Snapshot, error) {
	r, err := s.races.Get(raceID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return r.Snapshot(), nil
}

// Races lista snapshots filtrando por status (StatusAll para todas)
func (s *Service) Races(filter domain.Status) []domain.Snapshot {
	list := s.races.List(filter)
	out := make([]domain.Snapshot, 0, len(list))
	for _, r := range list {
		out = append(out, r.Snapshot())
	}
	return out
}

// Balance retorna o saldo do usuário (cria a conta se for a primeira referência)
func (s *Service) Balance(userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("user is empty: %w", domain.ErrInvalidInput)
	}
	return s.ledger.Balance(userID), nil
}

// afterMutation roda depois que o lock da corrida foi liberado:
// renderiza o snapshot e publica o evento. Erros são só logados e contados.
// O evento leva o estado lido sob o lock (st); o snapshot pode já incluir mutações posteriores.
func (s *Service) afterMutation(ctx context.Context, r *race.Race, st race.State, ev events.RaceEvent) domain.Snapshot {
	snap := r.Snapshot()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	for _, rd := range s.renderers {
		if err := rd.Render(ctx, snap); err != nil {
			name := fmt.Sprintf("%T", rd)
			s.metrics.RenderError(name)
			s.log.Warn("render failed",
				zap.String("raceId", snap.RaceID),
				zap.String("renderer", name),
				zap.Error(err),
			)
		}
	}

	if s.publ != nil {
		ev.RaceID = snap.RaceID
		ev.RaceName = snap.Name
		ev.Status = string(st.Status)
		ev.Total = st.Total
		if err := s.publ.PublishRaceEvent(ctx, ev); err != nil {
			s.metrics.PublishError()
			s.log.Warn("race event publish failed",
				zap.String("raceId", snap.RaceID),
				zap.String("type", ev.Type),
				zap.Error(err),
			)
		}
	}
	return snap
}
