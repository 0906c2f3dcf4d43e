package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/gatehouse/gatehouse/internal/apperror"
)

// contextKeyUser is the Echo context key under which the guard stores the
// authenticated user for downstream handlers.
const contextKeyUser = "auth_user"

// Guard returns middleware that protects routes with the configured
// strategy. Requests to excluded paths pass through untouched. Protected
// requests without credentials get 401; credentials that identify nobody
// get 403 -- the same split the service's HTTP callers rely on.
func Guard(strategy Strategy, excludedPaths []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if !strategy.RequireAuth(req.URL.Path, excludedPaths) {
				return next(c)
			}

			if strategy.Credentials(req) == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			user, err := strategy.CurrentUser(req.Context(), req)
			if err != nil {
				return err
			}
			if user == nil {
				return apperror.NewForbidden("credentials not recognized")
			}

			c.Set(contextKeyUser, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user the guard stored in the
// context, or nil when the route was not guarded.
func CurrentUser(c echo.Context) *User {
	user, _ := c.Get(contextKeyUser).(*User)
	return user
}
