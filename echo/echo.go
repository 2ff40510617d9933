// Package echo provides chassis integration for the Echo web framework.
//
// The middleware attaches a service registry to each request context and
// Handle resolves a named service from it before calling a handler method.
//
// Example usage:
//
//	e := echo.New()
//	e.Use(chassisecho.ResolveMiddleware(resolver))
//
//	e.GET("/users/:id", chassisecho.Handle("users", (*UserController).GetByID))
package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/refinery29/chassis"
	"go.uber.org/zap"
)

// Config holds the configuration for the registry middleware.
type Config struct {
	// ErrorHandler is called when the registry cannot be produced or a
	// middleware fails. The default returns a 500 HTTPError.
	ErrorHandler func(echo.Context, error) error

	// Middlewares run after the registry is attached, in order.
	Middlewares []func(*chassis.Registry, echo.Context) error
}

// Option configures the registry middleware.
type Option func(*Config)

// WithErrorHandler sets the handler for registry failures.
func WithErrorHandler(h func(echo.Context, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a function that runs after the registry is attached.
func WithMiddleware(mw func(*chassis.Registry, echo.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func internalError() error {
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c echo.Context, err error) error {
			zap.L().Error("failed to prepare registry", zap.String("path", c.Path()), zap.Error(err))
			return internalError()
		},
	}
}

// RegistryMiddleware attaches the same registry to every request.
func RegistryMiddleware(registry *chassis.Registry, opts ...Option) echo.MiddlewareFunc {
	return middleware(func() (*chassis.Registry, error) { return registry, nil }, opts)
}

// ResolveMiddleware runs resolver once per request, so every request sees
// its own freshly built services.
func ResolveMiddleware(resolver *chassis.Resolver, opts ...Option) echo.MiddlewareFunc {
	return middleware(resolver.Resolve, opts)
}

func middleware(source func() (*chassis.Registry, error), opts []Option) echo.MiddlewareFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			registry, err := source()
			if err != nil {
				return cfg.ErrorHandler(c, err)
			}

			c.SetRequest(c.Request().WithContext(chassis.WithRegistry(c.Request().Context(), registry)))

			for _, mw := range cfg.Middlewares {
				if err := mw(registry, c); err != nil {
					return cfg.ErrorHandler(c, err)
				}
			}

			return next(c)
		}
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(echo.Context, any) error

	// RegistryErrorHandler is called when the request carries no registry.
	RegistryErrorHandler func(echo.Context, error) error

	// ResolutionErrorHandler is called when the service is missing or has
	// the wrong type.
	ResolutionErrorHandler func(echo.Context, error) error
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
func WithPanicHandler(h func(echo.Context, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithRegistryErrorHandler sets the handler for requests without a registry.
func WithRegistryErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.RegistryErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the handler for service lookup failures.
func WithResolutionErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c echo.Context, v any) error {
			zap.L().Error("panic in handler", zap.Any("panic", v))
			return internalError()
		},
		RegistryErrorHandler: func(c echo.Context, err error) error {
			zap.L().Error("failed to get registry from context", zap.Error(err))
			return internalError()
		},
		ResolutionErrorHandler: func(c echo.Context, err error) error {
			zap.L().Error("failed to resolve service", zap.Error(err))
			return internalError()
		},
	}
}

// Handle wraps a method of the service registered under name. The service
// is looked up in the registry attached to the request and asserted to T.
//
// The method signature should be: func(T, echo.Context) error
func Handle[T any](name string, method func(T, echo.Context) error, opts ...HandlerOption) echo.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c echo.Context) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		registry, registryErr := chassis.FromContext(c.Request().Context())
		if registryErr != nil {
			return cfg.RegistryErrorHandler(c, registryErr)
		}

		svc, resolveErr := chassis.Resolve[T](registry, name)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(svc, c)
	}
}
