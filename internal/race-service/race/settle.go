package race

import (
	"fmt"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
)

// Settlement é o resultado da declaração do vencedor.
// Remainder é a sobra do arredondamento para baixo: não é devolvida nem redistribuída.
type Settlement struct {
	RaceID    string
	WinnerID  string
	Odds      float64
	Total     int64
	Pool      int64
	Paid      int64
	Remainder int64
	Wagers    []domain.Wager
}

// DeclareWinner liquida a corrida: calcula os prêmios, credita os vencedores e passa para Finished.
// Se ninguém apostou no vencedor, todas as apostas ficam com prêmio 0 e o pool inteiro é perdido.
func (r *Race) DeclareWinner(w Wallet, actorID, competitorID string) (Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.IsHost(actorID) {
		return Settlement{}, domain.ErrForbidden
	}
	if r.status != domain.StatusClosed {
		return Settlement{}, fmt.Errorf("declare from %s: %w", r.status, domain.ErrInvalidTransition)
	}
	if _, ok := r.index[competitorID]; !ok {
		return Settlement{}, fmt.Errorf("competitor %q: %w", competitorID, domain.ErrUnknownCompetitor)
	}

	total := r.total()
	pool := r.pools()[competitorID]

	// calcula tudo antes de mexer no ledger
	payouts := make([]int64, len(r.wagers))
	credits := make(map[string]int64)
	var paid int64
	for i, wg := range r.wagers {
		if wg.CompetitorID != competitorID {
			continue
		}
		payouts[i] = payoutFor(wg.Amount, total, pool)
		paid += payouts[i]
		if payouts[i] > 0 {
			credits[wg.BettorID] += payouts[i]
		}
	}

	// único passo que pode falhar; se falhar a corrida continua Closed e intacta
	if err := w.CreditAll(credits); err != nil {
		return Settlement{}, fmt.Errorf("credit winners: %w", err)
	}

	for i := range r.wagers {
		r.wagers[i].Payout = payouts[i]
	}
	r.status = domain.StatusFinished
	r.winnerID = competitorID
	r.updatedAt = r.now()

	out := make([]domain.Wager, len(r.wagers))
	copy(out, r.wagers)
	return Settlement{
		RaceID:    r.id,
		WinnerID:  competitorID,
		Odds:      oddsFor(total, pool),
		Total:     total,
		Pool:      pool,
		Paid:      paid,
		Remainder: total - paid,
		Wagers:    out,
	}, nil
}

// WinnerID retorna o vencedor declarado ("" enquanto não liquidada)
func (r *Race) WinnerID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.winnerID
}
