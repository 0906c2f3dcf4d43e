package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all auth-related routes on the given Echo
// instance. The registration, session, and reset endpoints are public by
// design; the route Guard (applied globally in app.RegisterRoutes) decides
// what else is protected based on the configured strategy and exclusions.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/", h.Welcome)
	e.POST("/users", h.Register)
	e.POST("/sessions", h.Login)
	e.DELETE("/sessions", h.Logout)
	e.GET("/profile", h.Profile)
	e.POST("/reset_password", h.ResetPasswordToken)
	e.PUT("/reset_password", h.UpdatePassword)
}
