package events

// Tipos de evento publicados no tópico "race_events"
const (
	TypeRaceCreated = "race_created"
	TypeBetPlaced   = "bet_placed"
	TypeRaceClosed  = "race_closed"
	TypeRaceSettled = "race_settled"
)

// RaceEvent é emitido pelo race-service após cada mutação aplicada numa corrida.
// É informativo (diário de operações): nenhum consumidor reconstrói estado a partir dele.
type RaceEvent struct {
	Type         string `json:"type"`
	RaceID       string `json:"race_id"`
	RaceName     string `json:"race_name"`
	ActorID      string `json:"actor_id"`
	Status       string `json:"status"`
	CompetitorID string `json:"competitor_id,omitempty"` // aposta ou vencedor
	Amount       int64  `json:"amount,omitempty"`        // valor apostado
	Total        int64  `json:"total"`                   // pool total no momento do evento
	Paid         int64  `json:"paid,omitempty"`          // soma dos prêmios (race_settled)
	Remainder    int64  `json:"remainder,omitempty"`     // sobra do arredondamento (race_settled)
	TsUnixMs     int64  `json:"ts_unix_ms"`
}
