package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/gatehouse/internal/apperror"
)

// newTestHandler wires a handler onto a fresh in-memory store and service.
func newTestHandler() (*Handler, AuthService, *memStore) {
	store := newMemStore()
	svc := NewAuthService(store)
	return NewHandler(svc), svc, store
}

// newJSONContext builds an Echo context carrying a JSON body.
func newJSONContext(t *testing.T, method, path string, body any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// decodeBody unmarshals the recorded JSON response.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

// sessionCookieFrom extracts the session cookie from the recorded response.
func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := rec.Result()
	defer res.Body.Close()
	for _, cookie := range res.Cookies() {
		if cookie.Name == sessionCookieName {
			return cookie
		}
	}
	return nil
}

// --- Welcome ---

func TestHandlerWelcome(t *testing.T) {
	h, _, _ := newTestHandler()
	c, rec := newJSONContext(t, http.MethodGet, "/", nil)

	if err := h.Welcome(c); err != nil {
		t.Fatalf("Welcome error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Bienvenue" {
		t.Errorf("message = %q, want Bienvenue", body["message"])
	}
}

// --- Register ---

func TestHandlerRegister(t *testing.T) {
	h, _, _ := newTestHandler()
	c, rec := newJSONContext(t, http.MethodPost, "/users", RegisterRequest{
		Email:    "a@x.com",
		Password: "secret",
	})

	if err := h.Register(c); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["email"] != "a@x.com" || body["message"] != "user created" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestHandlerRegister_DuplicateEmail(t *testing.T) {
	h, svc, _ := newTestHandler()
	if _, err := svc.RegisterUser(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	c, rec := newJSONContext(t, http.MethodPost, "/users", RegisterRequest{
		Email:    "a@x.com",
		Password: "pw2",
	})
	if err := h.Register(c); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "email already registered" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestHandlerRegister_MissingFields(t *testing.T) {
	h, _, _ := newTestHandler()

	for _, req := range []RegisterRequest{
		{Email: "", Password: "pw"},
		{Email: "a@x.com", Password: ""},
		{},
	} {
		c, rec := newJSONContext(t, http.MethodPost, "/users", req)
		if err := h.Register(c); err != nil {
			t.Fatalf("Register error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d for %+v, want 400", rec.Code, req)
		}
	}
}

// --- Login ---

func TestHandlerLogin(t *testing.T) {
	h, svc, _ := newTestHandler()
	if _, err := svc.RegisterUser(context.Background(), "a@x.com", "secret"); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	c, rec := newJSONContext(t, http.MethodPost, "/sessions", LoginRequest{
		Email:    "a@x.com",
		Password: "secret",
	})
	if err := h.Login(c); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["email"] != "a@x.com" || body["message"] != "logged in" {
		t.Errorf("unexpected body: %v", body)
	}

	cookie := sessionCookieFrom(t, rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a session cookie on successful login")
	}
	if !cookie.HttpOnly {
		t.Error("expected an HttpOnly session cookie")
	}

	user, err := svc.UserFromSessionID(context.Background(), cookie.Value)
	if err != nil || user == nil || user.Email != "a@x.com" {
		t.Errorf("cookie does not resolve to the user: user=%v err=%v", user, err)
	}
}

func TestHandlerLogin_WrongPassword(t *testing.T) {
	h, svc, _ := newTestHandler()
	if _, err := svc.RegisterUser(context.Background(), "a@x.com", "secret"); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	c, _ := newJSONContext(t, http.MethodPost, "/sessions", LoginRequest{
		Email:    "a@x.com",
		Password: "wrong",
	})
	err := h.Login(c)
	assertErrType(t, err, apperror.TypeUnauthorized)
}

func TestHandlerLogin_UnknownEmail(t *testing.T) {
	h, _, _ := newTestHandler()

	c, _ := newJSONContext(t, http.MethodPost, "/sessions", LoginRequest{
		Email:    "nobody@x.com",
		Password: "pw",
	})
	err := h.Login(c)
	assertErrType(t, err, apperror.TypeUnauthorized)
}

// --- Logout ---

func TestHandlerLogout(t *testing.T) {
	h, svc, _ := newTestHandler()
	if _, err := svc.RegisterUser(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	sessionID, err := svc.CreateSession(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}

	c, rec := newJSONContext(t, http.MethodDelete, "/sessions", nil)
	c.Request().AddCookie(&http.Cookie{Name: sessionCookieName, Value: sessionID})

	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/" {
		t.Errorf("redirect location = %q, want /", loc)
	}

	cookie := sessionCookieFrom(t, rec)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("expected the session cookie to be cleared")
	}

	user, err := svc.UserFromSessionID(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("UserFromSessionID error: %v", err)
	}
	if user != nil {
		t.Error("expected the session to be destroyed server-side")
	}
}

func TestHandlerLogout_NoSession(t *testing.T) {
	h, _, _ := newTestHandler()

	c, _ := newJSONContext(t, http.MethodDelete, "/sessions", nil)
	err := h.Logout(c)
	assertErrType(t, err, apperror.TypeForbidden)
}

// --- Profile ---

func TestHandlerProfile(t *testing.T) {
	h, svc, _ := newTestHandler()
	if _, err := svc.RegisterUser(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	sessionID, err := svc.CreateSession(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}

	c, rec := newJSONContext(t, http.MethodGet, "/profile", nil)
	c.Request().AddCookie(&http.Cookie{Name: sessionCookieName, Value: sessionID})

	if err := h.Profile(c); err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["email"] != "a@x.com" {
		t.Errorf("email = %q, want a@x.com", body["email"])
	}
}

func TestHandlerProfile_StaleCookie(t *testing.T) {
	h, _, _ := newTestHandler()

	c, _ := newJSONContext(t, http.MethodGet, "/profile", nil)
	c.Request().AddCookie(&http.Cookie{Name: sessionCookieName, Value: "stale"})

	err := h.Profile(c)
	assertErrType(t, err, apperror.TypeForbidden)
}

// --- Password Reset ---

func TestHandlerResetPasswordToken(t *testing.T) {
	h, svc, _ := newTestHandler()
	if _, err := svc.RegisterUser(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	c, rec := newJSONContext(t, http.MethodPost, "/reset_password", ResetTokenRequest{
		Email: "a@x.com",
	})
	if err := h.ResetPasswordToken(c); err != nil {
		t.Fatalf("ResetPasswordToken error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["email"] != "a@x.com" {
		t.Errorf("email = %q, want a@x.com", body["email"])
	}
	if body["reset_token"] == "" {
		t.Error("expected a non-empty reset_token")
	}
}

func TestHandlerResetPasswordToken_UnknownEmail(t *testing.T) {
	h, _, _ := newTestHandler()

	c, _ := newJSONContext(t, http.MethodPost, "/reset_password", ResetTokenRequest{
		Email: "nobody@x.com",
	})
	err := h.ResetPasswordToken(c)
	assertErrType(t, err, apperror.TypeForbidden)
}

func TestHandlerUpdatePassword(t *testing.T) {
	h, svc, _ := newTestHandler()
	if _, err := svc.RegisterUser(context.Background(), "a@x.com", "old-pw"); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	token, err := svc.ResetPasswordToken(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("ResetPasswordToken error: %v", err)
	}

	c, rec := newJSONContext(t, http.MethodPut, "/reset_password", UpdatePasswordRequest{
		Email:       "a@x.com",
		ResetToken:  token,
		NewPassword: "new-pw",
	})
	if err := h.UpdatePassword(c); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Password updated" {
		t.Errorf("message = %q, want Password updated", body["message"])
	}

	if !svc.ValidLogin(context.Background(), "a@x.com", "new-pw") {
		t.Error("expected the new password to work after reset")
	}
}

func TestHandlerUpdatePassword_BadToken(t *testing.T) {
	h, _, _ := newTestHandler()

	c, _ := newJSONContext(t, http.MethodPut, "/reset_password", UpdatePasswordRequest{
		Email:       "a@x.com",
		ResetToken:  "bogus",
		NewPassword: "pw",
	})
	err := h.UpdatePassword(c)
	assertErrType(t, err, apperror.TypeInvalidToken)
}

func TestHandlerUpdatePassword_MissingFields(t *testing.T) {
	h, _, _ := newTestHandler()

	c, _ := newJSONContext(t, http.MethodPut, "/reset_password", UpdatePasswordRequest{
		Email: "a@x.com",
	})
	err := h.UpdatePassword(c)
	assertErrType(t, err, apperror.TypeBadRequest)
}

// --- Guard ---

func TestGuard(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(store)
	if _, err := svc.RegisterUser(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	sessionID, err := svc.CreateSession(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}

	strategy := &sessionStrategy{service: svc}
	guard := Guard(strategy, []string{"/", "/healthz"})

	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	t.Run("excluded path passes through", func(t *testing.T) {
		c, rec := newJSONContext(t, http.MethodGet, "/healthz", nil)
		if err := guard(next)(c); err != nil {
			t.Fatalf("guard error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("no credentials is unauthorized", func(t *testing.T) {
		c, _ := newJSONContext(t, http.MethodGet, "/profile", nil)
		err := guard(next)(c)
		assertErrType(t, err, apperror.TypeUnauthorized)
	})

	t.Run("unrecognized credentials are forbidden", func(t *testing.T) {
		c, _ := newJSONContext(t, http.MethodGet, "/profile", nil)
		c.Request().AddCookie(&http.Cookie{Name: sessionCookieName, Value: "stale"})
		err := guard(next)(c)
		assertErrType(t, err, apperror.TypeForbidden)
	})

	t.Run("valid credentials expose the user", func(t *testing.T) {
		c, rec := newJSONContext(t, http.MethodGet, "/profile", nil)
		c.Request().AddCookie(&http.Cookie{Name: sessionCookieName, Value: sessionID})
		if err := guard(next)(c); err != nil {
			t.Fatalf("guard error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		user := CurrentUser(c)
		if user == nil || user.Email != "a@x.com" {
			t.Errorf("expected guard to store a@x.com in context, got %+v", user)
		}
	})
}
