package bridge

import (
	"fmt"
	"sort"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"
)

// Registry looks up bridge adapters by kind. It is built once at startup and
// read-only afterwards.
type Registry struct {
	adapters map[domain.BridgeKind]ports.BridgeAdapter
}

// NewRegistry indexes adapters by their Kind. Two adapters claiming the same
// kind is a configuration error.
func NewRegistry(adapters ...ports.BridgeAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[domain.BridgeKind]ports.BridgeAdapter, len(adapters))}
	for _, a := range adapters {
		kind := a.Kind()
		if kind == "" {
			return nil, fmt.Errorf("bridge adapter %T has an empty kind", a)
		}
		if _, dup := r.adapters[kind]; dup {
			return nil, fmt.Errorf("bridge adapter %q registered twice", kind)
		}
		r.adapters[kind] = a
	}
	return r, nil
}

// Get returns the adapter for kind, or a configuration-kind error.
func (r *Registry) Get(kind domain.BridgeKind) (ports.BridgeAdapter, error) {
	if a, ok := r.adapters[kind]; ok {
		return a, nil
	}
	return nil, apperror.ErrUnknownBridge(string(kind))
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []domain.BridgeKind {
	out := make([]domain.BridgeKind, 0, len(r.adapters))
	for k := range r.adapters {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ValidateRoutes checks that every leg of every route names a registered bridge.
func (r *Registry) ValidateRoutes(routes domain.RouteTable) error {
	for i, route := range routes {
		for j, leg := range route.Legs {
			if _, ok := r.adapters[leg.Bridge]; !ok {
				return fmt.Errorf("route %d leg %d: %w", i, j, apperror.ErrUnknownBridge(string(leg.Bridge)))
			}
		}
	}
	return nil
}
