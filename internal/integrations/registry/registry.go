// Package registry indexes the provider adapters by service name.
package registry

import (
	"context"
	"slices"

	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentTests bounds fan-out when a tenant tests every integration.
const maxConcurrentTests = 4

type Registry struct {
	adapters map[external.ServiceName]external.Adapter
}

// New indexes adapters; a later adapter with the same name replaces an earlier one.
func New(adapters ...external.Adapter) *Registry {
	r := &Registry{adapters: make(map[external.ServiceName]external.Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(service external.ServiceName) (external.Adapter, error) {
	a, ok := r.adapters[service]
	if !ok {
		return nil, apperr.NotFound("integration not supported: " + string(service))
	}
	return a, nil
}

// Names returns the registered services in stable order.
func (r *Registry) Names() []external.ServiceName {
	out := make([]external.ServiceName, 0, len(r.adapters))
	for name := range r.adapters {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Test runs one adapter's connection test.
func (r *Registry) Test(ctx context.Context, tenantID uuid.UUID, service external.ServiceName) (external.ConnectionResult, error) {
	a, err := r.Get(service)
	if err != nil {
		return external.ConnectionResult{}, err
	}
	return a.TestConnection(ctx, tenantID), nil
}

// TestAll tests services concurrently. Results keep the order of services;
// unregistered names are skipped.
func (r *Registry) TestAll(ctx context.Context, tenantID uuid.UUID, services []external.ServiceName) []external.ConnectionResult {
	results := make([]external.ConnectionResult, len(services))
	ok := make([]bool, len(services))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTests)
	for i, service := range services {
		a, found := r.adapters[service]
		if !found {
			continue
		}
		g.Go(func() error {
			results[i] = a.TestConnection(gctx, tenantID)
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := results[:0]
	for i := range results {
		if ok[i] {
			out = append(out, results[i])
		}
	}
	return out
}
