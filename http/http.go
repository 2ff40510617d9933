// Package http provides chassis integration for net/http and routers built
// on it, such as chi.
//
// The middleware attaches a service registry to each request context and
// Handle resolves a named service from it before calling a handler method.
//
// Example usage:
//
//	resolver := chassis.NewResolver(catalog, cfg, scalars)
//
//	mux := http.NewServeMux()
//	mux.Handle("GET /users/{id}", chassishttp.Handle("users", UserController.GetByID))
//
//	http.ListenAndServe(":8080", chassishttp.ResolveMiddleware(resolver)(mux))
package http

import (
	"net/http"

	"github.com/refinery29/chassis"
	"go.uber.org/zap"
)

// Config holds the configuration for the registry middleware.
type Config struct {
	// ErrorHandler is called when the registry cannot be produced or a
	// middleware fails. The default responds 500 Internal Server Error.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Middlewares run after the registry is attached, in order.
	Middlewares []func(*chassis.Registry, *http.Request) error
}

// Option configures the registry middleware.
type Option func(*Config)

// WithErrorHandler sets the handler for registry failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a function that runs after the registry is attached.
func WithMiddleware(mw func(*chassis.Registry, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			zap.L().Error("failed to prepare registry", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// RegistryMiddleware attaches the same registry to every request.
func RegistryMiddleware(registry *chassis.Registry, opts ...Option) func(http.Handler) http.Handler {
	return middleware(func() (*chassis.Registry, error) { return registry, nil }, opts)
}

// ResolveMiddleware runs resolver once per request, so every request sees
// its own freshly built services.
func ResolveMiddleware(resolver *chassis.Resolver, opts ...Option) func(http.Handler) http.Handler {
	return middleware(resolver.Resolve, opts)
}

func middleware(source func() (*chassis.Registry, error), opts []Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			registry, err := source()
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}

			r = r.WithContext(chassis.WithRegistry(r.Context(), registry))

			for _, mw := range cfg.Middlewares {
				if err := mw(registry, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// RegistryErrorHandler is called when the request carries no registry.
	RegistryErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when the service is missing or has
	// the wrong type.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithRegistryErrorHandler sets the handler for requests without a registry.
func WithRegistryErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.RegistryErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the handler for service lookup failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			zap.L().Error("panic in handler", zap.Any("panic", v))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		RegistryErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			zap.L().Error("failed to get registry from context", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ResolutionErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			zap.L().Error("failed to resolve service", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// Handle wraps a method of the service registered under name. The service
// is looked up in the registry attached to the request and asserted to T.
//
// Example:
//
//	mux.Handle("GET /users/{id}", chassishttp.Handle("users", (*UserController).GetByID))
func Handle[T any](name string, method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		registry, err := chassis.FromContext(r.Context())
		if err != nil {
			cfg.RegistryErrorHandler(w, r, err)
			return
		}

		svc, err := chassis.Resolve[T](registry, name)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(svc, w, r)
	}
}
