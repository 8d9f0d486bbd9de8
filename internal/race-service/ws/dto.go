package ws

import "github.com/radieske/race-pool-betting/internal/race-service/domain"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// RaceID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type   string `json:"type"`   // subscribe | unsubscribe | ping
	RaceID string `json:"raceId"` // requerido em subscribe/unsubscribe
}

// RaceUpdate é o que os clientes inscritos numa corrida recebem a cada mudança
type RaceUpdate struct {
	Type    string          `json:"type"` // sempre "race"
	RaceID  string          `json:"raceId"`
	Payload domain.Snapshot `json:"payload"`
}

// ErrorMsg é enviado quando o cliente pede algo inválido
type ErrorMsg struct {
	Type    string `json:"type"` // sempre "error"
	Message string `json:"message"`
}
