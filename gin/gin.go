// Package gin provides chassis integration for the Gin web framework.
//
// The middleware attaches a service registry to each request context and
// Handle resolves a named service from it before calling a handler method.
//
// Example usage:
//
//	g := gin.New()
//	g.Use(chassisgin.ResolveMiddleware(resolver))
//
//	g.POST("/login", chassisgin.Handle("auth", (*AuthController).Login))
//	g.GET("/users/:id", chassisgin.Handle("users", (*UserController).GetByID))
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/refinery29/chassis"
	"go.uber.org/zap"
)

// Config holds the configuration for the registry middleware.
type Config struct {
	// ErrorHandler is called when the registry cannot be produced or a
	// middleware fails. The default aborts with 500 Internal Server Error.
	ErrorHandler func(*gin.Context, error)

	// Middlewares run after the registry is attached, in order.
	Middlewares []func(*chassis.Registry, *gin.Context) error
}

// Option configures the registry middleware.
type Option func(*Config)

// WithErrorHandler sets the handler for registry failures.
func WithErrorHandler(h func(*gin.Context, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a function that runs after the registry is attached.
//
// Example:
//
//	chassisgin.ResolveMiddleware(resolver,
//	    chassisgin.WithMiddleware(func(r *chassis.Registry, c *gin.Context) error {
//	        c.Set("run", r.ID())
//	        return nil
//	    }),
//	)
func WithMiddleware(mw func(*chassis.Registry, *gin.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *gin.Context, err error) {
			zap.L().Error("failed to prepare registry", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal Server Error",
			})
		},
	}
}

// RegistryMiddleware attaches the same registry to every request.
func RegistryMiddleware(registry *chassis.Registry, opts ...Option) gin.HandlerFunc {
	return middleware(func() (*chassis.Registry, error) { return registry, nil }, opts)
}

// ResolveMiddleware runs resolver once per request, so every request sees
// its own freshly built services.
func ResolveMiddleware(resolver *chassis.Resolver, opts ...Option) gin.HandlerFunc {
	return middleware(resolver.Resolve, opts)
}

func middleware(source func() (*chassis.Registry, error), opts []Option) gin.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		registry, err := source()
		if err != nil {
			cfg.ErrorHandler(c, err)
			return
		}

		c.Request = c.Request.WithContext(chassis.WithRegistry(c.Request.Context(), registry))

		for _, mw := range cfg.Middlewares {
			if err := mw(registry, c); err != nil {
				cfg.ErrorHandler(c, err)
				return
			}
		}

		c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	// If true, panics are caught and handled by PanicHandler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*gin.Context, any)

	// RegistryErrorHandler is called when the request carries no registry.
	RegistryErrorHandler func(*gin.Context, error)

	// ResolutionErrorHandler is called when the service is missing or has
	// the wrong type.
	ResolutionErrorHandler func(*gin.Context, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics (requires WithPanicRecovery(true)).
func WithPanicHandler(h func(*gin.Context, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithRegistryErrorHandler sets the handler for requests without a registry.
func WithRegistryErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.RegistryErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the handler for service lookup failures.
func WithResolutionErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func abortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "Internal Server Error",
	})
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c *gin.Context, v any) {
			zap.L().Error("panic in handler", zap.Any("panic", v))
			abortInternal(c)
		},
		RegistryErrorHandler: func(c *gin.Context, err error) {
			zap.L().Error("failed to get registry from context", zap.Error(err))
			abortInternal(c)
		},
		ResolutionErrorHandler: func(c *gin.Context, err error) {
			zap.L().Error("failed to resolve service", zap.Error(err))
			abortInternal(c)
		},
	}
}

// Handle wraps a method of the service registered under name. The service
// is looked up in the registry attached to the request and asserted to T.
func Handle[T any](name string, method func(T, *gin.Context), opts ...HandlerOption) gin.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if r := recover(); r != nil {
					cfg.PanicHandler(c, r)
				}
			}()
		}

		registry, err := chassis.FromContext(c.Request.Context())
		if err != nil {
			cfg.RegistryErrorHandler(c, err)
			return
		}

		svc, err := chassis.Resolve[T](registry, name)
		if err != nil {
			cfg.ResolutionErrorHandler(c, err)
			return
		}

		method(svc, c)
	}
}
