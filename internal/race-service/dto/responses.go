package dto

import "github.com/radieske/race-pool-betting/internal/race-service/domain"

type BetResponse struct {
	RaceID     string       `json:"raceId"`
	Wager      domain.Wager `json:"wager"`
	NewBalance int64        `json:"new_balance"`
}

type SettlementResponse struct {
	RaceID    string          `json:"raceId"`
	WinnerID  string          `json:"winnerId"`
	Odds      float64         `json:"odds"`
	Total     int64           `json:"total"`
	Paid      int64           `json:"paid"`
	Remainder int64           `json:"remainder"` // sobra do arredondamento, não distribuída
	Payouts   []domain.Payout `json:"payouts"`
}

type WalletResponse struct {
	UserID  string `json:"userId"`
	Balance int64  `json:"balance"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
