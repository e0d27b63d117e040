// Package gate bounds how many callers may run a section of code at once.
package gate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carrec/platform/internal/metrics"
	"golang.org/x/sync/semaphore"
)

// Gate is a counting gate of fixed capacity. Callers beyond the capacity
// wait until a slot frees up or their context is done.
type Gate struct {
	name     string
	capacity int64
	sem      *semaphore.Weighted
}

func New(name string, capacity int) *Gate {
	if capacity <= 0 {
		capacity = 1
	}
	return &Gate{
		name:     name,
		capacity: int64(capacity),
		sem:      semaphore.NewWeighted(int64(capacity)),
	}
}

func (g *Gate) Name() string    { return g.name }
func (g *Gate) Capacity() int64 { return g.capacity }

// Do runs fn while holding a slot. The slot is released on every exit path,
// panics included. The only way a wait ends without running fn is ctx.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	waiting := metrics.GateWaiting.WithLabelValues(g.name)
	waiting.Inc()
	err := g.sem.Acquire(ctx, 1)
	waiting.Dec()
	if err != nil {
		return fmt.Errorf("gate %s: %w", g.name, err)
	}

	inFlight := metrics.GateInFlight.WithLabelValues(g.name)
	inFlight.Inc()
	defer func() {
		inFlight.Dec()
		g.sem.Release(1)
	}()

	return fn(ctx)
}

// Middleware applies the gate to an HTTP handler. A client that goes away
// while waiting gets nothing written.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = g.Do(r.Context(), func(ctx context.Context) error {
			next.ServeHTTP(w, r.WithContext(ctx))
			return nil
		})
	})
}
