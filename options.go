package chassis

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolverOption configures a Resolver.
type ResolverOption interface {
	apply(*resolverOptions)
}

type resolverOptions struct {
	logger *zap.Logger
	newID  func() string
}

func defaultResolverOptions() resolverOptions {
	return resolverOptions{
		logger: zap.NewNop(),
		newID:  uuid.NewString,
	}
}

// resolverOptionFunc adapts a function to ResolverOption.
type resolverOptionFunc func(*resolverOptions)

func (f resolverOptionFunc) apply(opts *resolverOptions) {
	f(opts)
}

// WithLogger sets the logger resolution progress is reported to at debug
// level. The default discards everything.
func WithLogger(logger *zap.Logger) ResolverOption {
	return resolverOptionFunc(func(opts *resolverOptions) {
		if logger != nil {
			opts.logger = logger
		}
	})
}

// WithIDGenerator replaces the random UUID given to each resolution run.
func WithIDGenerator(newID func() string) ResolverOption {
	return resolverOptionFunc(func(opts *resolverOptions) {
		if newID != nil {
			opts.newID = newID
		}
	})
}
