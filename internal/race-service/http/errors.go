package http

import (
	"net/http"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
)

// StatusFor traduz o tipo de erro de domínio em status HTTP
func StatusFor(err error) int {
	switch domain.Kind(err) {
	case "invalid_input", "invalid_amount", "unknown_competitor":
		return http.StatusBadRequest
	case "forbidden":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "race_closed", "invalid_transition", "insufficient_funds":
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// MessageFor devolve o texto mostrado ao usuário para cada tipo de erro
func MessageFor(err error) string {
	switch domain.Kind(err) {
	case "invalid_input":
		return "invalid race parameters"
	case "race_closed":
		return "betting is closed for this race"
	case "invalid_transition":
		return "that action is not allowed in the current race state"
	case "unknown_competitor":
		return "unknown competitor"
	case "forbidden":
		return "only the race host can do that"
	case "invalid_amount":
		return "amount must be a positive whole number"
	case "insufficient_funds":
		return "insufficient funds"
	case "not_found":
		return "race not found"
	}
	return "internal error"
}
