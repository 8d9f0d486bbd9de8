package dto

import "encoding/json"

// O ator (host ou apostador) vem sempre no header X-User-ID, nunca no corpo.

type CreateRaceRequest struct {
	Name        string   `json:"name"`
	Competitors []string `json:"competitors"` // nomes, na ordem de exibição
}

type PlaceBetRequest struct {
	CompetitorID string      `json:"competitorId"`
	Amount       json.Number `json:"amount"` // validado como inteiro positivo no serviço
}

type DeclareWinnerRequest struct {
	CompetitorID string `json:"competitorId"`
}
