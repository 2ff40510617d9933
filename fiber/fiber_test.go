package fiber

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/refinery29/chassis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test types
type testService struct {
	ID string
}

func newTestService(id string) *testService {
	return &testService{ID: id}
}

type testController struct {
	Service *testService
}

func newTestController(svc *testService) *testController {
	return &testController{Service: svc}
}

func (c *testController) GetValue(ctx *fiber.Ctx) error {
	return ctx.SendString(c.Service.ID)
}

func (c *testController) Panic(ctx *fiber.Ctx) error {
	panic("test panic")
}

var errBroken = errors.New("broken")

func newTestResolver(t *testing.T, services map[string]any) *chassis.Resolver {
	t.Helper()
	catalog := chassis.NewCatalog()
	catalog.MustRegister("web", "Service", newTestService)
	catalog.MustRegister("web", "Controller", newTestController)
	catalog.MustRegister("web", "Broken", func() (*testService, error) { return nil, errBroken })

	cfg, err := chassis.DecodeConfig(services)
	require.NoError(t, err)
	return chassis.NewResolver(catalog, cfg, chassis.Scalars{"id": "resolved"})
}

func controllerResolver(t *testing.T) *chassis.Resolver {
	return newTestResolver(t, map[string]any{
		"service":    map[string]any{"module": "web", "class": "Service", "args": []any{"$id"}},
		"controller": map[string]any{"module": "web", "class": "Controller", "args": []any{"@service"}},
	})
}

func brokenResolver(t *testing.T) *chassis.Resolver {
	return newTestResolver(t, map[string]any{
		"broken": map[string]any{"module": "web", "class": "Broken"},
	})
}

func serve(t *testing.T, app *fiber.App) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestResolveMiddleware(t *testing.T) {
	t.Run("stores registry in locals and user context", func(t *testing.T) {
		var fromLocals, fromContext *chassis.Registry

		app := fiber.New()
		app.Use(ResolveMiddleware(controllerResolver(t)))
		app.Get("/test", func(c *fiber.Ctx) error {
			fromLocals = FromContext(c)
			var err error
			fromContext, err = chassis.FromContext(c.UserContext())
			assert.NoError(t, err)
			return c.SendStatus(http.StatusOK)
		})

		status, _ := serve(t, app)
		assert.Equal(t, http.StatusOK, status)
		require.NotNil(t, fromLocals)
		assert.Same(t, fromLocals, fromContext)
		assert.True(t, fromLocals.Has("controller"))
	})

	t.Run("attaches a fresh registry per request", func(t *testing.T) {
		var ids []string

		app := fiber.New()
		app.Use(ResolveMiddleware(controllerResolver(t)))
		app.Get("/test", func(c *fiber.Ctx) error {
			ids = append(ids, FromContext(c).ID())
			return c.SendStatus(http.StatusOK)
		})

		serve(t, app)
		serve(t, app)
		require.Len(t, ids, 2)
		assert.NotEqual(t, ids[0], ids[1])
	})

	t.Run("calls error handler on resolution failure", func(t *testing.T) {
		var capturedError error

		app := fiber.New()
		app.Use(ResolveMiddleware(brokenResolver(t),
			WithErrorHandler(func(c *fiber.Ctx, err error) error {
				capturedError = err
				return c.SendStatus(http.StatusServiceUnavailable)
			}),
		))
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusOK)
		})

		status, _ := serve(t, app)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.ErrorIs(t, capturedError, errBroken)
	})

	t.Run("default error handler responds 500", func(t *testing.T) {
		app := fiber.New()
		app.Use(ResolveMiddleware(brokenResolver(t)))
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusOK)
		})

		status, body := serve(t, app)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Contains(t, body, "Internal Server Error")
	})
}

func TestRegistryMiddleware(t *testing.T) {
	t.Run("runs middlewares in order", func(t *testing.T) {
		var mwOrder []int

		app := fiber.New()
		app.Use(RegistryMiddleware(chassis.NewRegistry("shared"),
			WithMiddleware(func(r *chassis.Registry, c *fiber.Ctx) error {
				mwOrder = append(mwOrder, 1)
				return nil
			}),
			WithMiddleware(func(r *chassis.Registry, c *fiber.Ctx) error {
				mwOrder = append(mwOrder, 2)
				return nil
			}),
		))
		app.Get("/test", func(c *fiber.Ctx) error {
			mwOrder = append(mwOrder, 3)
			return c.SendString(FromContext(c).ID())
		})

		_, body := serve(t, app)
		assert.Equal(t, []int{1, 2, 3}, mwOrder)
		assert.Equal(t, "shared", body)
	})

	t.Run("calls error handler when middleware fails", func(t *testing.T) {
		expectedErr := errors.New("middleware failed")

		app := fiber.New()
		app.Use(RegistryMiddleware(chassis.NewRegistry("shared"),
			WithMiddleware(func(r *chassis.Registry, c *fiber.Ctx) error {
				return expectedErr
			}),
			WithErrorHandler(func(c *fiber.Ctx, err error) error {
				assert.Equal(t, expectedErr, err)
				return c.SendStatus(http.StatusBadRequest)
			}),
		))
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusOK)
		})

		status, _ := serve(t, app)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestHandle(t *testing.T) {
	t.Run("resolves service and calls method", func(t *testing.T) {
		app := fiber.New()
		app.Use(ResolveMiddleware(controllerResolver(t)))
		app.Get("/test", Handle("controller", (*testController).GetValue))

		status, body := serve(t, app)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "resolved", body)
	})

	t.Run("fails without registry", func(t *testing.T) {
		var capturedError error

		app := fiber.New()
		app.Get("/test", Handle("controller", (*testController).GetValue,
			WithRegistryErrorHandler(func(c *fiber.Ctx, err error) error {
				capturedError = err
				return c.SendStatus(http.StatusTeapot)
			}),
		))

		status, _ := serve(t, app)
		assert.Equal(t, http.StatusTeapot, status)
		assert.ErrorIs(t, capturedError, chassis.ErrRegistryNotInContext)
	})

	t.Run("fails on type mismatch", func(t *testing.T) {
		var capturedError error

		app := fiber.New()
		app.Use(ResolveMiddleware(controllerResolver(t)))
		app.Get("/test", Handle("service", (*testController).GetValue,
			WithResolutionErrorHandler(func(c *fiber.Ctx, err error) error {
				capturedError = err
				return c.SendStatus(http.StatusNotFound)
			}),
		))

		status, _ := serve(t, app)
		assert.Equal(t, http.StatusNotFound, status)
		assert.ErrorIs(t, capturedError, chassis.ErrTypeMismatch)
	})

	t.Run("recovers panics when enabled", func(t *testing.T) {
		var recovered any

		app := fiber.New()
		app.Use(ResolveMiddleware(controllerResolver(t)))
		app.Get("/test", Handle("controller", (*testController).Panic,
			WithPanicRecovery(true),
			WithPanicHandler(func(c *fiber.Ctx, v any) error {
				recovered = v
				return c.SendStatus(http.StatusInternalServerError)
			}),
		))

		status, _ := serve(t, app)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "test panic", recovered)
	})
}
