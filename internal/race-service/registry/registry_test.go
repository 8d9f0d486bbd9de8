package registry

import (
	"errors"
	"testing"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
	"github.com/radieske/race-pool-betting/internal/race-service/ledger"
)

func TestCreateAndGet(t *testing.T) {
	g := New()
	r, err := g.Create("Derby", "host", []string{"A", "B"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := g.Get(r.ID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != r {
		t.Errorf("registry returned a different race")
	}
	if g.Len() != 1 {
		t.Errorf("expected 1 race, got %d", g.Len())
	}
}

func TestCreateInvalidIsNotStored(t *testing.T) {
	g := New()
	if _, err := g.Create("Derby", "host", []string{"A", "A"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("invalid race was stored")
	}
}

func TestGetUnknown(t *testing.T) {
	g := New()
	if _, err := g.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	g := New()
	l := ledger.New(100)

	open, _ := g.Create("open", "host", []string{"A"})
	closed, _ := g.Create("closed", "host", []string{"A"})
	finished, _ := g.Create("finished", "host", []string{"A"})
	if _, err := closed.Close("host"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := finished.Close("host"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := finished.DeclareWinner(l, "host", "1"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	cases := []struct {
		filter domain.Status
		want   []string
	}{
		{domain.StatusOpen, []string{open.ID()}},
		{domain.StatusClosed, []string{closed.ID()}},
		{domain.StatusFinished, []string{finished.ID()}},
	}
	for _, tc := range cases {
		t.Run(string(tc.filter), func(t *testing.T) {
			got := g.List(tc.filter)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d races, got %d", len(tc.want), len(got))
			}
			for i := range got {
				if got[i].ID() != tc.want[i] {
					t.Errorf("race %d: got %s want %s", i, got[i].ID(), tc.want[i])
				}
			}
		})
	}

	if all := g.List(domain.StatusAll); len(all) != 3 {
		t.Errorf("expected 3 races, got %d", len(all))
	}
}
