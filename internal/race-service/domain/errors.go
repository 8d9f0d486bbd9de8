package domain

import "errors"

// Erros de domínio do motor de apostas. Todos são recuperáveis e devolvidos
// ao ator que originou a ação; a camada HTTP traduz cada um em status/mensagem.
var (
	ErrInvalidInput      = errors.New("race: invalid input")
	ErrRaceClosed        = errors.New("race: betting is closed")
	ErrInvalidTransition = errors.New("race: invalid status transition")
	ErrUnknownCompetitor = errors.New("race: unknown competitor")
	ErrForbidden         = errors.New("race: only the host can do that")
	ErrInvalidAmount     = errors.New("race: invalid amount")
	ErrInsufficientFunds = errors.New("race: insufficient funds")
	ErrNotFound          = errors.New("race: not found")
)
