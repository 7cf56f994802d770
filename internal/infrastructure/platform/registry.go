package platform

import (
	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/integration"
)

// Registry implements integration.Registry over the configured adapters.
// ListPlatforms returns adapters in registration order so fan-out sync
// operations visit platforms deterministically.
type Registry struct {
	order    []accounting.Platform
	adapters map[accounting.Platform]integration.AccountingPlatform
}

// NewRegistry creates a registry holding the given adapters
func NewRegistry(adapters ...integration.AccountingPlatform) *Registry {
	r := &Registry{
		adapters: make(map[accounting.Platform]integration.AccountingPlatform, len(adapters)),
	}
	for _, adapter := range adapters {
		code := adapter.Platform()
		if _, ok := r.adapters[code]; !ok {
			r.order = append(r.order, code)
		}
		r.adapters[code] = adapter
	}
	return r
}

// GetPlatform returns the adapter for the given platform code
func (r *Registry) GetPlatform(platform accounting.Platform) (integration.AccountingPlatform, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, integration.ErrPlatformNotRegistered
	}
	return adapter, nil
}

// ListPlatforms returns all registered adapters
func (r *Registry) ListPlatforms() []integration.AccountingPlatform {
	out := make([]integration.AccountingPlatform, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.adapters[code])
	}
	return out
}

// Ensure Registry implements integration.Registry
var _ integration.Registry = (*Registry)(nil)
