package race

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
)

// Wallet é o que a corrida precisa do ledger para debitar apostas e creditar prêmios.
// CreditAll aplica todos os créditos ou nenhum.
type Wallet interface {
	Debit(userID string, amount int64) error
	CreditAll(credits map[string]int64) error
}

// State é o status e o pool total logo após uma mutação, lidos ainda sob o lock
type State struct {
	Status domain.Status
	Total  int64
}

// Receipt é a aposta aceita junto com o estado da corrida no momento em que entrou
type Receipt struct {
	domain.Wager
	State
}

// Race é uma corrida em memória com competidores, apostas e ciclo de vida.
// Toda mutação acontece sob o lock da própria corrida.
type Race struct {
	mu sync.RWMutex

	id          string
	name        string
	hostID      string
	status      domain.Status
	competitors []domain.Competitor
	index       map[string]int // competitorID -> posição em competitors
	wagers      []domain.Wager
	winnerID    string
	createdAt   time.Time
	updatedAt   time.Time

	now func() time.Time
}

// Open cria uma corrida no estado Open com id novo e nenhuma aposta.
// Os nomes dos competidores precisam ser não vazios e únicos.
func Open(name, hostID string, competitorNames []string) (*Race, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("race name is empty: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(hostID) == "" {
		return nil, fmt.Errorf("host is empty: %w", domain.ErrInvalidInput)
	}
	if len(competitorNames) == 0 {
		return nil, fmt.Errorf("no competitors: %w", domain.ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(competitorNames))
	competitors := make([]domain.Competitor, 0, len(competitorNames))
	index := make(map[string]int, len(competitorNames))
	for i, raw := range competitorNames {
		n := strings.TrimSpace(raw)
		if n == "" {
			return nil, fmt.Errorf("competitor %d has no name: %w", i+1, domain.ErrInvalidInput)
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("competitor %q is duplicated: %w", n, domain.ErrInvalidInput)
		}
		seen[n] = struct{}{}

		id := strconv.Itoa(i + 1)
		index[id] = i
		competitors = append(competitors, domain.Competitor{ID: id, Name: n})
	}

	now := time.Now().UTC()
	return &Race{
		id:          uuid.NewString(),
		name:        name,
		hostID:      hostID,
		status:      domain.StatusOpen,
		competitors: competitors,
		index:       index,
		createdAt:   now,
		updatedAt:   now,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *Race) ID() string           { return r.id }
func (r *Race) Name() string         { return r.name }
func (r *Race) HostID() string       { return r.hostID }
func (r *Race) CreatedAt() time.Time { return r.createdAt }

// Status retorna o estado atual
func (r *Race) Status() domain.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Competitors retorna uma cópia da lista de competidores na ordem de criação
func (r *Race) Competitors() []domain.Competitor {
	out := make([]domain.Competitor, len(r.competitors))
	copy(out, r.competitors)
	return out
}

// Wagers retorna uma cópia das apostas na ordem em que foram aceitas
func (r *Race) Wagers() []domain.Wager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Wager, len(r.wagers))
	copy(out, r.wagers)
	return out
}

// IsHost diz se o ator é o dono da corrida
func (r *Race) IsHost(actorID string) bool { return actorID == r.hostID }

// PlaceBet registra uma aposta e debita o apostador.
// O débito é o último passo que pode falhar: se ele falhar, nada foi alterado.
func (r *Race) PlaceBet(w Wallet, bettorID, competitorID string, amount int64) (Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != domain.StatusOpen {
		return Receipt{}, domain.ErrRaceClosed
	}
	if _, ok := r.index[competitorID]; !ok {
		return Receipt{}, fmt.Errorf("competitor %q: %w", competitorID, domain.ErrUnknownCompetitor)
	}
	if amount <= 0 {
		return Receipt{}, fmt.Errorf("amount %d: %w", amount, domain.ErrInvalidAmount)
	}
	total := r.total()
	if amount > math.MaxInt64-total {
		return Receipt{}, fmt.Errorf("amount %d overflows race total %d: %w", amount, total, domain.ErrInvalidAmount)
	}
	if err := w.Debit(bettorID, amount); err != nil {
		return Receipt{}, err
	}

	wg := domain.Wager{
		BettorID:     bettorID,
		CompetitorID: competitorID,
		Amount:       amount,
		PlacedAt:     r.now(),
	}
	r.wagers = append(r.wagers, wg)
	r.updatedAt = wg.PlacedAt
	return Receipt{Wager: wg, State: State{Status: r.status, Total: total + amount}}, nil
}

// Close encerra as apostas. Só o host pode fechar e só a partir de Open.
func (r *Race) Close(actorID string) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.IsHost(actorID) {
		return State{}, domain.ErrForbidden
	}
	if r.status != domain.StatusOpen {
		return State{}, fmt.Errorf("close from %s: %w", r.status, domain.ErrInvalidTransition)
	}
	r.status = domain.StatusClosed
	r.updatedAt = r.now()
	return State{Status: r.status, Total: r.total()}, nil
}
