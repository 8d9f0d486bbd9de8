package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInvalidInput, "invalid_input"},
		{fmt.Errorf("close from OPEN: %w", ErrInvalidTransition), "invalid_transition"},
		{fmt.Errorf("debit: %w", ErrInsufficientFunds), "insufficient_funds"},
		{ErrRaceClosed, "race_closed"},
		{ErrUnknownCompetitor, "unknown_competitor"},
		{ErrForbidden, "forbidden"},
		{ErrInvalidAmount, "invalid_amount"},
		{ErrNotFound, "not_found"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{
		"":         StatusAll,
		"ALL":      StatusAll,
		"OPEN":     StatusOpen,
		"open":     StatusOpen,
		"CLOSED":   StatusClosed,
		"FINISHED": StatusFinished,
	} {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseStatus("open-ish"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
