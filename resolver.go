package chassis

import (
	"time"

	"github.com/refinery29/chassis/internal/graph"
	"go.uber.org/zap"
)

// Resolver instantiates every service of a Config in dependency order.
type Resolver struct {
	config  Config
	nodes   Nodes
	factory *ServiceFactory
	logger  *zap.Logger
	newID   func() string
}

// NewResolver computes the dependency sets of cfg. Nothing is built until
// Resolve is called.
func NewResolver(catalog *Catalog, cfg Config, scalars Scalars, opts ...ResolverOption) *Resolver {
	options := defaultResolverOptions()
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&options)
		}
	}

	return &Resolver{
		config:  cfg,
		nodes:   BuildNodes(cfg),
		factory: NewServiceFactory(catalog, scalars, options.logger),
		logger:  options.logger,
		newID:   options.newID,
	}
}

// Nodes returns a copy of the dependency sets.
func (r *Resolver) Nodes() Nodes {
	return r.nodes.Clone()
}

// Validate runs the cycle detector over the dependency sets. Resolve never
// calls it; without it a cycle surfaces as UnsatisfiableDependencyError.
func (r *Resolver) Validate() (*DependencyTree, error) {
	return DetectCycles(r.nodes)
}

// Plan returns the rounds Resolve would instantiate, without building anything.
func (r *Resolver) Plan() ([][]string, error) {
	return Plan(r.nodes)
}

// Resolve builds every service into a new registry. Each round builds every
// service whose dependencies are all built, then drops them from the
// remaining dependency sets. A round with nothing ready fails with
// UnsatisfiableDependencyError. Any error aborts the run and no registry is
// returned.
func (r *Resolver) Resolve() (*Registry, error) {
	registry := NewRegistry(r.newID())
	work := r.nodes.Clone()
	start := time.Now()

	logger := r.logger.With(zap.String("run", registry.ID()))
	logger.Debug("resolution started", zap.Int("services", len(work)))

	for round := 0; len(work) > 0; round++ {
		ready := work.Roots()
		if len(ready) == 0 {
			err := graph.Unsatisfiable(work)
			logger.Debug("resolution stuck", zap.Int("round", round), zap.Strings("remaining", err.Names()))
			return nil, err
		}

		logger.Debug("resolution round", zap.Int("round", round), zap.Strings("ready", ready))

		for _, name := range ready {
			svc, err := r.factory.Create(name, r.config[name], registry)
			if err != nil {
				logger.Debug("instantiation failed", zap.String("service", name), zap.Error(err))
				return nil, err
			}
			if err := registry.Register(name, svc); err != nil {
				return nil, err
			}
			logger.Debug("service instantiated", zap.String("service", name))
		}

		work.Peel(ready)
	}

	logger.Debug("resolution finished",
		zap.Int("services", registry.Len()),
		zap.Duration("elapsed", time.Since(start)))

	return registry, nil
}
