package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/password"
)

// Strategy decides whether a request carries valid credentials. The set of
// strategies is closed and selected by a config enum at startup -- there is
// no dynamic loading. All implementations are stateless and safe for
// concurrent use.
type Strategy interface {
	// RequireAuth reports whether the path is protected. Excluded paths
	// match exactly (trailing-slash insensitive) or by prefix when they
	// end with "*".
	RequireAuth(path string, excludedPaths []string) bool

	// Credentials extracts the raw credential material from the request
	// (Authorization header or session cookie). Empty means none supplied.
	Credentials(r *http.Request) string

	// CurrentUser resolves the request's credentials to a user, or nil if
	// they identify nobody.
	CurrentUser(ctx context.Context, r *http.Request) (*User, error)
}

// NewStrategy returns the strategy variant selected by the config value.
// The default branch is unreachable when the config was validated by
// config.Load.
func NewStrategy(kind config.AuthStrategy, service AuthService, store UserStore) Strategy {
	switch kind {
	case config.StrategyBasic:
		return &basicStrategy{store: store}
	case config.StrategySession:
		return &sessionStrategy{service: service}
	default:
		return noneStrategy{}
	}
}

// requireAuth is the shared path-exclusion check. Paths compare with
// trailing slashes ignored; an excluded entry ending in "*" matches any
// path with that prefix.
func requireAuth(path string, excludedPaths []string) bool {
	norm := strings.TrimSuffix(path, "/")
	for _, excluded := range excludedPaths {
		if strings.HasSuffix(excluded, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(excluded, "*")) {
				return false
			}
			continue
		}
		if norm == strings.TrimSuffix(excluded, "/") {
			return false
		}
	}
	return true
}

// --- none ---

// noneStrategy disables authentication entirely.
type noneStrategy struct{}

func (noneStrategy) RequireAuth(string, []string) bool { return false }

func (noneStrategy) Credentials(*http.Request) string { return "" }

func (noneStrategy) CurrentUser(context.Context, *http.Request) (*User, error) {
	return nil, nil
}

// --- basic ---

// basicStrategy authenticates via the Authorization: Basic header
// (RFC 7617). Credentials are checked against the stored password hash on
// every request; nothing is cached.
type basicStrategy struct {
	store UserStore
}

func (s *basicStrategy) RequireAuth(path string, excludedPaths []string) bool {
	return requireAuth(path, excludedPaths)
}

func (s *basicStrategy) Credentials(r *http.Request) string {
	return r.Header.Get("Authorization")
}

func (s *basicStrategy) CurrentUser(ctx context.Context, r *http.Request) (*User, error) {
	email, pw, ok := decodeBasicCredentials(s.Credentials(r))
	if !ok {
		return nil, nil
	}

	user, err := s.store.FindUserBy(ctx, map[string]any{"email": email})
	if err != nil {
		// Unknown email and malformed queries both mean "nobody"; the guard
		// turns nil into 403.
		return nil, nil
	}
	if !password.Verify(user.HashedPassword, pw) {
		return nil, nil
	}
	return user, nil
}

// decodeBasicCredentials extracts email and password from a Basic auth
// header value. The split is on the first colon only, so passwords may
// contain colons.
func decodeBasicCredentials(header string) (email, pw string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	email, pw, found := strings.Cut(string(decoded), ":")
	if !found || email == "" {
		return "", "", false
	}
	return email, pw, true
}

// --- session ---

// sessionStrategy authenticates via the session cookie issued at login.
type sessionStrategy struct {
	service AuthService
}

func (s *sessionStrategy) RequireAuth(path string, excludedPaths []string) bool {
	return requireAuth(path, excludedPaths)
}

func (s *sessionStrategy) Credentials(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *sessionStrategy) CurrentUser(ctx context.Context, r *http.Request) (*User, error) {
	return s.service.UserFromSessionID(ctx, s.Credentials(r))
}
