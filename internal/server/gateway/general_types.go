package gateway

import (
	"context"

	"github.com/akyaiy/rpcnode/internal/server/rpc"
)

// Registry is the lookup the dispatcher resolves method names through.
// Get is only called after Has reported true.
type Registry interface {
	Has(name string) bool
	Get(name string) any
}

// Procedure is a named operation with a two-phase contract: Validate runs
// first, and Execute is only invoked when Validate succeeds. Params are
// map[string]any or []any; an absent params member is passed as an empty map.
type Procedure interface {
	Validate(ctx context.Context, params any) error
	Execute(ctx context.Context, params any, id rpc.ID) (any, error)
}

// ProcedureFunc is a Procedure without a validation step.
type ProcedureFunc func(ctx context.Context, params any, id rpc.ID) (any, error)

func (f ProcedureFunc) Validate(context.Context, any) error { return nil }

func (f ProcedureFunc) Execute(ctx context.Context, params any, id rpc.ID) (any, error) {
	return f(ctx, params, id)
}

// RegistryFuncs adapts a pair of functions to Registry.
type RegistryFuncs struct {
	HasFunc func(name string) bool
	GetFunc func(name string) any
}

func (r RegistryFuncs) Has(name string) bool { return r.HasFunc(name) }
func (r RegistryFuncs) Get(name string) any  { return r.GetFunc(name) }

// MapRegistry serves procedures from a plain map.
type MapRegistry map[string]any

func (m MapRegistry) Has(name string) bool {
	_, ok := m[name]
	return ok
}

func (m MapRegistry) Get(name string) any { return m[name] }

// ChainRegistry asks each registry in order; the first that has a name wins.
type ChainRegistry []Registry

func (c ChainRegistry) Has(name string) bool {
	for _, r := range c {
		if r.Has(name) {
			return true
		}
	}
	return false
}

func (c ChainRegistry) Get(name string) any {
	for _, r := range c {
		if r.Has(name) {
			return r.Get(name)
		}
	}
	return nil
}
