package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// requestIDHeader is the header carrying the request correlation id.
const requestIDHeader = "X-Request-Id"

// contextKeyRequestID is the Echo context key for the request id.
const contextKeyRequestID = "request_id"

// RequestID returns middleware that assigns each request a correlation id.
// An id supplied by a trusted upstream proxy is reused; otherwise a fresh
// UUID is generated. The id is echoed back on the response and stored in
// the context for the request logger.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			c.Response().Header().Set(requestIDHeader, id)
			c.Set(contextKeyRequestID, id)

			return next(c)
		}
	}
}

// GetRequestID returns the request id stored by RequestID, or "".
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(contextKeyRequestID).(string)
	return id
}
