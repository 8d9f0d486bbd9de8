package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/radieske/race-pool-betting/internal/race-service/domain"
	"github.com/radieske/race-pool-betting/internal/race-service/race"
)

// Registry guarda as corridas do processo. Não há remoção: corridas
// finalizadas continuam consultáveis até o processo terminar.
type Registry struct {
	mu    sync.RWMutex
	races map[string]*race.Race
}

// New cria um registry vazio. Cada serviço (e cada teste) tem a sua instância.
func New() *Registry {
	return &Registry{races: make(map[string]*race.Race)}
}

// Create abre uma corrida e a armazena pelo id gerado
func (g *Registry) Create(name, hostID string, competitorNames []string) (*race.Race, error) {
	r, err := race.Open(name, hostID, competitorNames)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.races[r.ID()] = r
	g.mu.Unlock()
	return r, nil
}

// Get busca uma corrida pelo id
func (g *Registry) Get(raceID string) (*race.Race, error) {
	g.mu.RLock()
	r, ok := g.races[raceID]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("race %q: %w", raceID, domain.ErrNotFound)
	}
	return r, nil
}

// List retorna as corridas no status pedido (ou todas com StatusAll), das mais antigas para as mais novas
func (g *Registry) List(filter domain.Status) []*race.Race {
	g.mu.RLock()
	out := make([]*race.Race, 0, len(g.races))
	for _, r := range g.races {
		if filter == domain.StatusAll || r.Status() == filter {
			out = append(out, r)
		}
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// Len retorna quantas corridas existem
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.races)
}
