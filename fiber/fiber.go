// Package fiber provides chassis integration for the Fiber web framework.
//
// The middleware stores a service registry in fiber.Ctx.Locals and in the
// user context. Handle resolves a named service from it before calling a
// handler method.
//
// Example usage:
//
//	app := fiber.New()
//	app.Use(chassisfiber.ResolveMiddleware(resolver))
//
//	app.Get("/users/:id", chassisfiber.Handle("users", (*UserController).GetByID))
package fiber

import (
	"github.com/gofiber/fiber/v2"
	"github.com/refinery29/chassis"
	"go.uber.org/zap"
)

// registryKey is the key used to store the registry in fiber.Ctx.Locals
const registryKey = "chassis_registry"

// Config holds the configuration for the registry middleware.
type Config struct {
	// ErrorHandler is called when the registry cannot be produced or a
	// middleware fails. The default responds 500 with a JSON body.
	ErrorHandler func(*fiber.Ctx, error) error

	// Middlewares run after the registry is attached, in order.
	Middlewares []func(*chassis.Registry, *fiber.Ctx) error
}

// Option configures the registry middleware.
type Option func(*Config)

// WithErrorHandler sets the handler for registry failures.
func WithErrorHandler(h func(*fiber.Ctx, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a function that runs after the registry is attached.
func WithMiddleware(mw func(*chassis.Registry, *fiber.Ctx) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
	})
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			zap.L().Error("failed to prepare registry", zap.String("path", c.Path()), zap.Error(err))
			return internalError(c)
		},
	}
}

// RegistryMiddleware attaches the same registry to every request.
func RegistryMiddleware(registry *chassis.Registry, opts ...Option) fiber.Handler {
	return middleware(func() (*chassis.Registry, error) { return registry, nil }, opts)
}

// ResolveMiddleware runs resolver once per request, so every request sees
// its own freshly built services.
func ResolveMiddleware(resolver *chassis.Resolver, opts ...Option) fiber.Handler {
	return middleware(resolver.Resolve, opts)
}

func middleware(source func() (*chassis.Registry, error), opts []Option) fiber.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) error {
		registry, err := source()
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.SetUserContext(chassis.WithRegistry(c.UserContext(), registry))
		c.Locals(registryKey, registry)

		for _, mw := range cfg.Middlewares {
			if err := mw(registry, c); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		return c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*fiber.Ctx, any) error

	// RegistryErrorHandler is called when the request carries no registry.
	RegistryErrorHandler func(*fiber.Ctx, error) error

	// ResolutionErrorHandler is called when the service is missing or has
	// the wrong type.
	ResolutionErrorHandler func(*fiber.Ctx, error) error
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
func WithPanicHandler(h func(*fiber.Ctx, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithRegistryErrorHandler sets the handler for requests without a registry.
func WithRegistryErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.RegistryErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the handler for service lookup failures.
func WithResolutionErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c *fiber.Ctx, v any) error {
			zap.L().Error("panic in handler", zap.Any("panic", v))
			return internalError(c)
		},
		RegistryErrorHandler: func(c *fiber.Ctx, err error) error {
			zap.L().Error("failed to get registry from locals", zap.Error(err))
			return internalError(c)
		},
		ResolutionErrorHandler: func(c *fiber.Ctx, err error) error {
			zap.L().Error("failed to resolve service", zap.Error(err))
			return internalError(c)
		},
	}
}

// Handle wraps a method of the service registered under name. The service
// is looked up in the registry stored by the middleware and asserted to T.
//
// The method signature should be: func(T, *fiber.Ctx) error
func Handle[T any](name string, method func(T, *fiber.Ctx) error, opts ...HandlerOption) fiber.Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		registry := FromContext(c)
		if registry == nil {
			return cfg.RegistryErrorHandler(c, chassis.ErrRegistryNotInContext)
		}

		svc, resolveErr := chassis.Resolve[T](registry, name)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(svc, c)
	}
}

// FromContext retrieves the registry from fiber.Ctx.Locals, or nil when the
// middleware did not run.
//
// Example:
//
//	registry := chassisfiber.FromContext(c)
//	users := chassis.MustResolve[*UserService](registry, "users")
func FromContext(c *fiber.Ctx) *chassis.Registry {
	registry, ok := c.Locals(registryKey).(*chassis.Registry)
	if !ok {
		return nil
	}
	return registry
}
