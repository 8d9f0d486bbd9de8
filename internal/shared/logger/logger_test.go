package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		env, level string
		debug      bool
	}{
		{"local", "", true},
		{"prod", "", false},
		{"prod", "debug", true},
		{"local", "warn", false},
	}
	for _, tc := range cases {
		l, err := New("race-service", tc.env, tc.level)
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.env, tc.level, err)
		}
		if got := l.Core().Enabled(zapcore.DebugLevel); got != tc.debug {
			t.Errorf("%s/%s: debug enabled = %v, want %v", tc.env, tc.level, got, tc.debug)
		}
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("race-service", "prod", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}
