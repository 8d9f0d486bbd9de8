package domain

import (
	"strings"
	"time"
)

// Status representa o ciclo de vida de uma corrida: Open -> Closed -> Finished
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusClosed   Status = "CLOSED"
	StatusFinished Status = "FINISHED"

	// StatusAll é usado apenas como filtro de listagem
	StatusAll Status = "ALL"
)

// ParseStatus converte o filtro vindo de fora (query string, comando) em Status.
// Vazio equivale a StatusAll; maiúsculas/minúsculas são ignoradas.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case "", StatusAll:
		return StatusAll, nil
	case StatusOpen, StatusClosed, StatusFinished:
		return st, nil
	}
	return "", ErrInvalidInput
}

// Competitor é imutável depois que a corrida é criada
type Competitor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Wager é uma aposta registrada numa corrida. Payout fica 0 até a liquidação.
type Wager struct {
	BettorID     string    `json:"bettorId"`
	CompetitorID string    `json:"competitorId"`
	Amount       int64     `json:"amount"`
	Payout       int64     `json:"payout"`
	PlacedAt     time.Time `json:"placedAt"`
}

// CompetitorView é a visão pública de um competidor: pool e odd corrente.
// Odds == 0 significa "sem apostas", não um multiplicador real.
type CompetitorView struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Pool int64   `json:"pool"`
	Odds float64 `json:"odds"`
	Bets int     `json:"bets"`
}

// Payout é o resultado de uma aposta após a liquidação
type Payout struct {
	BettorID     string `json:"bettorId"`
	CompetitorID string `json:"competitorId"`
	Amount       int64  `json:"amount"`
	Payout       int64  `json:"payout"`
}

// Snapshot é o estado público de uma corrida entregue ao renderizador
type Snapshot struct {
	RaceID      string           `json:"raceId"`
	Name        string           `json:"name"`
	HostID      string           `json:"hostId"`
	Status      Status           `json:"status"`
	Total       int64            `json:"total"`
	Competitors []CompetitorView `json:"competitors"`
	WinnerID    string           `json:"winnerId,omitempty"`
	Payouts     []Payout         `json:"payouts,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}
