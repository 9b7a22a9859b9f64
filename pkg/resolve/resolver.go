// Package resolve turns mod references into canonical display metadata.
//
// There is one [Resolver] implementation per platform, registered in a
// [Registry] keyed by platform tag. Adding a platform means adding a new
// implementation and its normalization; nothing else changes.
//
// Resolvers perform network calls only. They never touch the cache; the
// aggregator memoizes successful results.
package resolve

import (
	"context"
	"fmt"

	"github.com/ToyVo/minecraft-modpack/pkg/modpack"
)

// Resolver resolves one mod reference into display metadata.
type Resolver interface {
	Resolve(ctx context.Context, ref modpack.ModReference) (*modpack.ModMetadata, error)
}

// Registry dispatches references to the resolver for their platform.
type Registry struct {
	resolvers map[modpack.Platform]Resolver
}

// NewRegistry creates an empty resolver registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[modpack.Platform]Resolver)}
}

// Register installs the resolver for a platform, replacing any previous one.
func (r *Registry) Register(platform modpack.Platform, res Resolver) {
	r.resolvers[platform] = res
}

// Resolve dispatches ref to its platform's resolver.
func (r *Registry) Resolve(ctx context.Context, ref modpack.ModReference) (*modpack.ModMetadata, error) {
	res, ok := r.resolvers[ref.Platform]
	if !ok {
		return nil, fmt.Errorf("no resolver for platform %q", ref.Platform)
	}
	return res.Resolve(ctx, ref)
}

// Unavailable returns a Resolver that fails every resolution with err.
// Used when a platform's credentials are missing: its entries are reported
// as failures without aborting the run.
func Unavailable(err error) Resolver {
	return unavailable{err: err}
}

type unavailable struct{ err error }

func (u unavailable) Resolve(context.Context, modpack.ModReference) (*modpack.ModMetadata, error) {
	return nil, u.err
}
