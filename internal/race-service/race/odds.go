package race

import (
	"math/bits"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
)

// Pools retorna o total apostado em cada competidor (inclusive os zerados)
func (r *Race) Pools() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pools()
}

// Total retorna a soma de todas as apostas da corrida
func (r *Race) Total() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total()
}

// Odds retorna o multiplicador de retorno do pool de cada competidor: total / pool(c).
// Competidor sem apostas tem odd 0 ("sem odd"), nunca divisão por zero.
func (r *Race) Odds() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pools := r.pools()
	total := r.total()
	out := make(map[string]float64, len(pools))
	for id, p := range pools {
		out[id] = oddsFor(total, p)
	}
	return out
}

func (r *Race) pools() map[string]int64 {
	out := make(map[string]int64, len(r.competitors))
	for _, c := range r.competitors {
		out[c.ID] = 0
	}
	for _, w := range r.wagers {
		out[w.CompetitorID] += w.Amount
	}
	return out
}

func (r *Race) total() int64 {
	var t int64
	for _, w := range r.wagers {
		t += w.Amount
	}
	return t
}

func oddsFor(total, pool int64) float64 {
	if pool <= 0 {
		return 0
	}
	return float64(total) / float64(pool)
}

// payoutFor calcula floor(amount * total / pool) em inteiros.
// Como amount <= pool, o resultado sempre cabe em total e a divisão de 128 bits não estoura.
func payoutFor(amount, total, pool int64) int64 {
	if pool <= 0 || amount <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(amount), uint64(total))
	q, _ := bits.Div64(hi, lo, uint64(pool))
	return int64(q)
}

// Snapshot monta a visão pública da corrida para renderização
func (r *Race) Snapshot() domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pools := r.pools()
	total := r.total()
	bets := make(map[string]int, len(r.competitors))
	for _, w := range r.wagers {
		bets[w.CompetitorID]++
	}

	views := make([]domain.CompetitorView, 0, len(r.competitors))
	for _, c := range r.competitors {
		views = append(views, domain.CompetitorView{
			ID:   c.ID,
			Name: c.Name,
			Pool: pools[c.ID],
			Odds: oddsFor(total, pools[c.ID]),
			Bets: bets[c.ID],
		})
	}

	s := domain.Snapshot{
		RaceID:      r.id,
		Name:        r.name,
		HostID:      r.hostID,
		Status:      r.status,
		Total:       total,
		Competitors: views,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
	if r.status == domain.StatusFinished {
		s.WinnerID = r.winnerID
		s.Payouts = make([]domain.Payout, 0, len(r.wagers))
		for _, w := range r.wagers {
			s.Payouts = append(s.Payouts, domain.Payout{
				BettorID:     w.BettorID,
				CompetitorID: w.CompetitorID,
				Amount:       w.Amount,
				Payout:       w.Payout,
			})
		}
	}
	return s
}
