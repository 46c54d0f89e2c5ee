// Package system holds the procedures every node answers regardless of
// its script directory.
package system

import (
	"context"
	"slices"

	"github.com/akyaiy/rpcnode/internal/server/gateway"
	"github.com/akyaiy/rpcnode/internal/server/rpc"
)

// Lister reports the methods served by another registry.
type Lister interface {
	List() ([]string, error)
}

type NodeInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	UUID    string `json:"uuid"`
}

// Registry serves node.* procedures. Scripts, when set, contribute to the
// node.methods listing.
type Registry struct {
	info    NodeInfo
	scripts Lister
	procs   gateway.MapRegistry
}

func New(info NodeInfo, scripts Lister) *Registry {
	r := &Registry{info: info, scripts: scripts}
	r.procs = gateway.MapRegistry{
		"node.ping":    gateway.ProcedureFunc(ping),
		"node.info":    gateway.ProcedureFunc(r.nodeInfo),
		"node.methods": gateway.ProcedureFunc(r.methods),
		"node.echo":    echo{},
	}
	return r
}

func (r *Registry) Has(name string) bool { return r.procs.Has(name) }
func (r *Registry) Get(name string) any  { return r.procs.Get(name) }

func ping(context.Context, any, rpc.ID) (any, error) {
	return "pong", nil
}

func (r *Registry) nodeInfo(context.Context, any, rpc.ID) (any, error) {
	return r.info, nil
}

func (r *Registry) methods(context.Context, any, rpc.ID) (any, error) {
	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	if r.scripts != nil {
		scripts, err := r.scripts.List()
		if err != nil {
			return nil, rpc.NewInternalError(err.Error())
		}
		for _, name := range scripts {
			if !r.procs.Has(name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

type echo struct{}

func (echo) Validate(_ context.Context, params any) error {
	switch p := params.(type) {
	case map[string]any:
		if len(p) > 0 {
			return nil
		}
	case []any:
		if len(p) > 0 {
			return nil
		}
	}
	return rpc.NewInvalidParams("node.echo requires params")
}

func (echo) Execute(_ context.Context, params any, _ rpc.ID) (any, error) {
	return params, nil
}
