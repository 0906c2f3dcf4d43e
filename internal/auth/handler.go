package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/gatehouse/internal/apperror"
)

// sessionCookieName is the HTTP cookie used to store the session id.
const sessionCookieName = "gatehouse_session"

// Handler handles HTTP requests for the auth service. Handlers are thin:
// they bind the request, call the service, and shape the JSON response.
// No business logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Welcome is the static landing payload (GET /).
func (h *Handler) Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Bienvenue"})
}

// Register creates a new user (POST /users). Missing fields and duplicate
// emails are both client errors; the duplicate case keeps its historical
// 400 status and message.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": "email and password are required",
		})
	}

	user, err := h.service.RegisterUser(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if apperror.IsType(err, apperror.TypeAlreadyExists) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"message": "email already registered",
			})
		}
		return err
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"email":   user.Email,
		"message": "user created",
	})
}

// Login validates credentials and issues a session (POST /sessions).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if !h.service.ValidLogin(c.Request().Context(), req.Email, req.Password) {
		return apperror.NewUnauthorized("invalid email or password")
	}

	sessionID, err := h.service.CreateSession(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	if sessionID == "" {
		// The user vanished between the credential check and session
		// issuance. Indistinguishable from bad credentials on purpose.
		return apperror.NewUnauthorized("invalid email or password")
	}

	setSessionCookie(c, sessionID)

	return c.JSON(http.StatusOK, map[string]string{
		"email":   req.Email,
		"message": "logged in",
	})
}

// Logout destroys the session behind the cookie (DELETE /sessions).
// A cookie that maps to no user is forbidden; success redirects home.
func (h *Handler) Logout(c echo.Context) error {
	user, err := h.service.UserFromSessionID(c.Request().Context(), getSessionID(c))
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NewForbidden("no active session")
	}

	if err := h.service.DestroySession(c.Request().Context(), user.ID); err != nil {
		return err
	}
	clearSessionCookie(c)

	return c.Redirect(http.StatusSeeOther, "/")
}

// Profile returns the email of the session's user (GET /profile).
func (h *Handler) Profile(c echo.Context) error {
	user, err := h.service.UserFromSessionID(c.Request().Context(), getSessionID(c))
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NewForbidden("no active session")
	}

	return c.JSON(http.StatusOK, map[string]string{"email": user.Email})
}

// ResetPasswordToken issues a reset token (POST /reset_password).
// An unregistered email is forbidden, mirroring the session endpoints.
func (h *Handler) ResetPasswordToken(c echo.Context) error {
	var req ResetTokenRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Email == "" {
		return apperror.NewBadRequest("email is required")
	}

	token, err := h.service.ResetPasswordToken(c.Request().Context(), req.Email)
	if err != nil {
		if apperror.IsType(err, apperror.TypeNotFound) {
			return apperror.NewForbidden("email not registered")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"email":       req.Email,
		"reset_token": token,
	})
}

// UpdatePassword consumes a reset token and sets the new password
// (PUT /reset_password).
func (h *Handler) UpdatePassword(c echo.Context) error {
	var req UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Email == "" || req.ResetToken == "" || req.NewPassword == "" {
		return apperror.NewBadRequest("email, reset_token and new_password are required")
	}

	if err := h.service.UpdatePassword(c.Request().Context(), req.ResetToken, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"email":   req.Email,
		"message": "Password updated",
	})
}

// --- Cookie helpers ---

// getSessionID reads the session id from the cookie.
func getSessionID(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure behind TLS, and SameSite=Lax.
// No MaxAge: sessions have no expiry, so the cookie lives until logout or
// the browser session ends.
func setSessionCookie(c echo.Context, sessionID string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
