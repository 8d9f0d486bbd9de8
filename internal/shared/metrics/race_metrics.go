package metrics

import "github.com/prometheus/client_golang/prometheus"

// RaceMetrics agrupa os contadores do motor de apostas.
// Um *RaceMetrics nil é válido e simplesmente não registra nada (útil em testes).
type RaceMetrics struct {
	racesCreated  prometheus.Counter
	racesClosed   prometheus.Counter
	racesSettled  prometheus.Counter
	betsPlaced    prometheus.Counter
	betsRejected  *prometheus.CounterVec
	amountWagered prometheus.Counter
	amountPaid    prometheus.Counter
	remainder     prometheus.Counter
	renderErrors  *prometheus.CounterVec
	publishErrors prometheus.Counter
}

// NewRaceMetrics cria e registra os coletores no registerer informado
func NewRaceMetrics(reg prometheus.Registerer) *RaceMetrics {
	m := &RaceMetrics{
		racesCreated:  prometheus.NewCounter(prometheus.CounterOpts{Name: "race_created_total", Help: "corridas abertas"}),
		racesClosed:   prometheus.NewCounter(prometheus.CounterOpts{Name: "race_closed_total", Help: "corridas com apostas encerradas"}),
		racesSettled:  prometheus.NewCounter(prometheus.CounterOpts{Name: "race_settled_total", Help: "corridas liquidadas"}),
		betsPlaced:    prometheus.NewCounter(prometheus.CounterOpts{Name: "race_bets_placed_total", Help: "apostas aceitas"}),
		betsRejected:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_bets_rejected_total", Help: "apostas recusadas por motivo"}, []string{"reason"}),
		amountWagered: prometheus.NewCounter(prometheus.CounterOpts{Name: "race_amount_wagered_total", Help: "unidades apostadas"}),
		amountPaid:    prometheus.NewCounter(prometheus.CounterOpts{Name: "race_amount_paid_total", Help: "unidades pagas em prêmios"}),
		remainder:     prometheus.NewCounter(prometheus.CounterOpts{Name: "race_payout_remainder_total", Help: "sobra de arredondamento não distribuída"}),
		renderErrors:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_render_errors_total", Help: "falhas de renderização por renderer"}, []string{"renderer"}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{Name: "race_publish_errors_total", Help: "falhas ao publicar eventos de corrida"}),
	}
	reg.MustRegister(
		m.racesCreated, m.racesClosed, m.racesSettled,
		m.betsPlaced, m.betsRejected, m.amountWagered,
		m.amountPaid, m.remainder, m.renderErrors, m.publishErrors,
	)
	return m
}

func (m *RaceMetrics) RaceCreated() {
	if m != nil {
		m.racesCreated.Inc()
	}
}

func (m *RaceMetrics) RaceClosed() {
	if m != nil {
		m.racesClosed.Inc()
	}
}

// RaceSettled contabiliza a liquidação: total pago e sobra descartada
func (m *RaceMetrics) RaceSettled(paid, remainder int64) {
	if m == nil {
		return
	}
	m.racesSettled.Inc()
	m.amountPaid.Add(float64(paid))
	m.remainder.Add(float64(remainder))
}

func (m *RaceMetrics) BetPlaced(amount int64) {
	if m == nil {
		return
	}
	m.betsPlaced.Inc()
	m.amountWagered.Add(float64(amount))
}

func (m *RaceMetrics) BetRejected(reason string) {
	if m != nil {
		m.betsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *RaceMetrics) RenderError(renderer string) {
	if m != nil {
		m.renderErrors.WithLabelValues(renderer).Inc()
	}
}

func (m *RaceMetrics) PublishError() {
	if m != nil {
		m.publishErrors.Inc()
	}
}
