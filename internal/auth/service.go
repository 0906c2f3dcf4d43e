package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/gatehouse/gatehouse/internal/apperror"
	"github.com/gatehouse/gatehouse/internal/password"
)

// tokenBytes is the number of random bytes in a session or reset token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters. Collisions
// are not checked against the store; the identifier space makes them
// negligible.
const tokenBytes = 32

// AuthService is the credential and session lifecycle state machine.
// Handlers call these methods -- they never touch the store directly.
//
// Two result conventions coexist deliberately. Session and user lookups
// (CreateSession, UserFromSessionID) report a missing user as an absent
// value with a nil error. Reset operations (ResetPasswordToken,
// UpdatePassword) report it as a not_found or invalid_token error. Callers
// must check which convention applies per method.
type AuthService interface {
	// RegisterUser creates a new user with a hashed password. Fails with
	// already_exists if the email is taken.
	RegisterUser(ctx context.Context, email, pw string) (*User, error)

	// ValidLogin reports whether the credentials match a registered user.
	// Unknown email, wrong password, and backend failure all collapse to
	// false; no failure mode is distinguishable from another.
	ValidLogin(ctx context.Context, email, pw string) bool

	// CreateSession issues a fresh opaque session id for the user and
	// persists it. An unknown email returns ("", nil). No expiry attaches
	// to the session.
	CreateSession(ctx context.Context, email string) (string, error)

	// UserFromSessionID resolves a session id to its user. Empty input and
	// unrecognized ids return (nil, nil) -- the empty case without a store
	// call.
	UserFromSessionID(ctx context.Context, sessionID string) (*User, error)

	// DestroySession clears the user's session id. A zero userID is a no-op.
	DestroySession(ctx context.Context, userID int64) error

	// ResetPasswordToken issues a single-use reset token for the user.
	// Fails with not_found for an unknown email.
	ResetPasswordToken(ctx context.Context, email string) (string, error)

	// UpdatePassword sets a new password for the user owning resetToken and
	// consumes the token in the same store update. Fails with invalid_token
	// if the token is not recognized.
	UpdatePassword(ctx context.Context, resetToken, newPassword string) error
}

// authService implements AuthService over a UserStore.
type authService struct {
	store UserStore
}

// NewAuthService creates the auth service with the given store.
func NewAuthService(store UserStore) AuthService {
	return &authService{store: store}
}

// RegisterUser checks for an existing account, then hashes and persists.
// The lookup is a fast path only: the authoritative uniqueness guarantee is
// the store's unique email index, whose conflict also maps to
// already_exists, so a concurrent double-registration cannot slip through.
func (s *authService) RegisterUser(ctx context.Context, email, pw string) (*User, error) {
	_, err := s.store.FindUserBy(ctx, map[string]any{"email": email})
	if err == nil {
		return nil, apperror.NewAlreadyExists("email already registered")
	}
	if !apperror.IsType(err, apperror.TypeNotFound) {
		return nil, err
	}

	hash, err := password.Hash(pw)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user, err := s.store.AddUser(ctx, email, hash)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("audit", fmt.Sprintf("email=%s;", user.Email)),
	)

	return user, nil
}

// ValidLogin verifies the password against the stored hash. Every failure
// mode is reported as false: a caller cannot tell a bad password from an
// unknown email or an unreachable store. Swallowed backend errors are
// logged so the minimal-leak policy does not turn into a silent outage.
func (s *authService) ValidLogin(ctx context.Context, email, pw string) bool {
	user, err := s.store.FindUserBy(ctx, map[string]any{"email": email})
	if err != nil {
		if !apperror.IsType(err, apperror.TypeNotFound) {
			slog.Warn("login check failed on store error", slog.Any("error", err))
		}
		return false
	}
	return password.Verify(user.HashedPassword, pw)
}

// CreateSession generates and persists a fresh session id for the user.
func (s *authService) CreateSession(ctx context.Context, email string) (string, error) {
	user, err := s.store.FindUserBy(ctx, map[string]any{"email": email})
	if apperror.IsType(err, apperror.TypeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	sessionID, err := generateToken()
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("generating session id: %w", err))
	}

	if err := s.store.UpdateUser(ctx, user.ID, map[string]any{"session_id": sessionID}); err != nil {
		return "", err
	}

	slog.Info("session created",
		slog.Int64("user_id", user.ID),
		slog.String("audit", fmt.Sprintf("email=%s;", user.Email)),
	)

	return sessionID, nil
}

// UserFromSessionID resolves a session id to the owning user.
func (s *authService) UserFromSessionID(ctx context.Context, sessionID string) (*User, error) {
	if sessionID == "" {
		return nil, nil
	}

	user, err := s.store.FindUserBy(ctx, map[string]any{"session_id": sessionID})
	if apperror.IsType(err, apperror.TypeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DestroySession logs the user out by clearing the stored session id.
func (s *authService) DestroySession(ctx context.Context, userID int64) error {
	if userID == 0 {
		return nil
	}
	return s.store.UpdateUser(ctx, userID, map[string]any{"session_id": nil})
}

// ResetPasswordToken generates and persists a single-use reset token.
// Unlike the session operations, an unknown email here is a raised
// not_found error, not an absent value.
func (s *authService) ResetPasswordToken(ctx context.Context, email string) (string, error) {
	user, err := s.store.FindUserBy(ctx, map[string]any{"email": email})
	if err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("generating reset token: %w", err))
	}

	if err := s.store.UpdateUser(ctx, user.ID, map[string]any{"reset_token": token}); err != nil {
		return "", err
	}

	return token, nil
}

// UpdatePassword consumes a reset token: the new hash is written and the
// token cleared in one UpdateUser call, so from the caller's perspective
// both happen or neither does.
func (s *authService) UpdatePassword(ctx context.Context, resetToken, newPassword string) error {
	user, err := s.store.FindUserBy(ctx, map[string]any{"reset_token": resetToken})
	if apperror.IsType(err, apperror.TypeNotFound) {
		return apperror.NewInvalidToken("reset token not recognized")
	}
	if err != nil {
		return err
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	if err := s.store.UpdateUser(ctx, user.ID, map[string]any{
		"hashed_password": hash,
		"reset_token":     nil,
	}); err != nil {
		return err
	}

	slog.Info("password updated",
		slog.Int64("user_id", user.ID),
		slog.String("audit", fmt.Sprintf("email=%s;", user.Email)),
	)

	return nil
}

// generateToken creates a cryptographically random hex-encoded token.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
