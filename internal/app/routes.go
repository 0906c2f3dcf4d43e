package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// RegisterRoutes wires the auth store, service, handler, and route guard
// onto the Echo instance. This is the single place where all routes are
// aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	store := auth.NewUserStore(a.DB)
	service := auth.NewAuthService(store)
	handler := auth.NewHandler(service)

	// The guard runs on every route; the configured exclusions decide which
	// paths stay public. With AUTH_TYPE=none it passes everything through.
	strategy := auth.NewStrategy(a.Config.Auth.Strategy, service, store)
	e.Use(auth.Guard(strategy, a.Config.Auth.ExcludedPaths))

	auth.RegisterRoutes(e, handler)

	// Health check endpoint for container orchestration. Reports the DB
	// connection state so a dead pool fails the probe.
	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := a.DB.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
