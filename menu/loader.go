// Package menu loads the catalog and answers the menu page's queries over it.
package menu

import (
	"context"
	"sync"

	"github.com/itsneelabh/pizzeria/core"
)

// Source provides the catalog
type Source interface {
	GetMenu(ctx context.Context) ([]core.Pizza, error)
}

// Snapshot is what the loader publishes
type Snapshot struct {
	Pizzas  []core.Pizza
	Loading bool
	Err     error
}

// Loader fetches the menu and publishes it. Overlapping loads are allowed;
// only the most recently started one may publish its result.
type Loader struct {
	source Source
	logger core.Logger

	mu         sync.Mutex
	generation uint64
	state      *core.Subject[Snapshot]
}

// NewLoader creates a loader over source
func NewLoader(source Source, logger core.Logger) *Loader {
	return &Loader{
		source: source,
		logger: core.OrNoOp(logger),
		state:  core.NewSubject(Snapshot{}),
	}
}

// Load fetches the menu. applied is false when a newer Load started before
// this one finished; its result is then discarded.
func (l *Loader) Load(ctx context.Context) (applied bool, err error) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	prev := l.state.Value()
	l.state.Publish(Snapshot{Pizzas: prev.Pizzas, Loading: true})
	l.mu.Unlock()

	pizzas, err := l.source.GetMenu(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		l.logger.Debug("Discarding stale menu response", map[string]interface{}{
			"generation": gen,
			"latest":     l.generation,
		})
		return false, err
	}

	if err != nil {
		l.logger.Warn("Menu load failed", map[string]interface{}{
			"error": err.Error(),
		})
		l.state.Publish(Snapshot{Pizzas: prev.Pizzas, Err: err})
		return true, err
	}
	l.state.Publish(Snapshot{Pizzas: append([]core.Pizza(nil), pizzas...)})
	return true, nil
}

// Pizzas returns the last loaded catalog
func (l *Loader) Pizzas() []core.Pizza {
	return l.state.Value().Pizzas
}

// Current returns the latest snapshot
func (l *Loader) Current() Snapshot {
	return l.state.Value()
}

// Subscribe registers fn for every snapshot, starting with the current one.
func (l *Loader) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return l.state.Subscribe(fn)
}
