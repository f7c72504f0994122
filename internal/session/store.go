// Package session owns the authenticated identity of this client context.
//
// The store is the single source of truth for "who is logged in, with what
// role", the sole writer of the durable mirror, and the only component that
// talks to the remote identity service. Every operation converts failures
// into a boolean or absent result; nothing propagates past the store
// boundary to the guard or the views.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"tournament-client/internal/identity"
	"tournament-client/internal/kv"
)

// Durable mirror keys. One key per session field, written and deleted in
// lockstep with the in-memory state. These names are part of the on-disk
// contract and must not change.
const (
	mirrorKeyToken     = "token"
	mirrorKeyUserEmail = "userEmail"
	mirrorKeyUserID    = "userId"
	mirrorKeyUserRole  = "userRole"
)

// RootPath and LoginPath are the two destinations the store itself requests
// navigation to: the application root after login, the login view after logout.
const (
	RootPath  = "/"
	LoginPath = "/login"
)

// IdentityClient is the slice of the identity service the store consumes.
// *identity.Client satisfies it; tests substitute fakes.
type IdentityClient interface {
	Login(ctx context.Context, identifier, secret string) (identity.LoginResult, error)
	Register(ctx context.Context, email, secret string) (identity.RegisterResult, error)
	Me(ctx context.Context, token string) (identity.Profile, error)
}

// Navigator is how the store requests a navigation without depending on the
// router. The router satisfies it.
type Navigator interface {
	Push(ctx context.Context, path string) error
}

// Snapshot is an atomic, read-only copy of the session exposed to views and
// the guard. IsAuthenticated is derived: it is true exactly when Token is set.
type Snapshot struct {
	Token           string
	UserEmail       string
	UserID          string
	UserRole        string
	IsAuthenticated bool
}

// Store holds the session singleton for this client context.
//
// Field writes within one operation are applied as a single locked group, so
// a concurrent reader sees either the state before or after an operation,
// never a half-applied one. Mirror writes happen inside the same critical
// section, which keeps the persist-before-dependent-call ordering trivial.
type Store struct {
	idc    IdentityClient
	mirror kv.Store
	nav    Navigator
	log    *slog.Logger

	mu        sync.RWMutex
	token     string
	userEmail string
	userID    string
	userRole  string
}

// New builds a store and seeds it from the durable mirror, best-effort: a
// missing or partially-present mirror yields absent fields, never an error.
// Callers that find a seeded token should run InitializeFromToken before
// trusting it.
func New(ctx context.Context, idc IdentityClient, mirror kv.Store, nav Navigator, log *slog.Logger) (*Store, error) {
	if idc == nil {
		return nil, errors.New("session: identity client is required")
	}
	if mirror == nil {
		return nil, errors.New("session: durable mirror is required")
	}
	if nav == nil {
		return nil, errors.New("session: navigator is required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Store{idc: idc, mirror: mirror, nav: nav, log: log}
	s.token = s.seed(ctx, mirrorKeyToken)
	s.userEmail = s.seed(ctx, mirrorKeyUserEmail)
	s.userID = s.seed(ctx, mirrorKeyUserID)
	s.userRole = s.seed(ctx, mirrorKeyUserRole)
	return s, nil
}

func (s *Store) seed(ctx context.Context, key string) string {
	v, err := s.mirror.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn("mirror seed failed", "key", key, "err", err)
		}
		return ""
	}
	return v
}

// Snapshot returns an atomic copy of the session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Token:           s.token,
		UserEmail:       s.userEmail,
		UserID:          s.userID,
		UserRole:        s.userRole,
		IsAuthenticated: s.token != "",
	}
}

// Login exchanges credentials for a session. On success the full identity is
// set and persisted and a navigation to the application root is requested.
// On any failure the session is fully cleared (including the submitted
// email, a deliberate divergence from the web client this replaces, which
// left a stale email in memory) and false is returned.
func (s *Store) Login(ctx context.Context, identifier, secret string) bool {
	res, err := s.idc.Login(ctx, identifier, secret)
	if err != nil {
		s.log.Error("login failed", "err", err)
		s.clearSession(ctx)
		return false
	}

	// The login endpoint does not echo the email; the submitted identifier
	// is the email by contract.
	s.setSession(ctx, res.AccessToken, identifier, res.UserID, res.Role)

	if err := s.nav.Push(ctx, RootPath); err != nil {
		s.log.Error("post-login navigation failed", "err", err)
		s.clearSession(ctx)
		return false
	}
	return true
}

// Register creates an account and immediately logs in with the same
// credentials. A registration that succeeds but whose auto-login fails is
// reported as overall failure; the failed login has already cleared any
// partial state by then.
func (s *Store) Register(ctx context.Context, email, secret string) bool {
	res, err := s.idc.Register(ctx, email, secret)
	if err != nil {
		s.log.Error("registration failed", "err", err)
		return false
	}

	s.setRole(ctx, res.Role)

	if !s.Login(ctx, email, secret) {
		s.log.Error("auto-login after registration failed", "email", email)
		return false
	}
	return true
}

// Logout clears the session, in memory and durable, and requests navigation
// to the login view. State is cleared regardless of the outcome; only a
// failed navigation request yields false. Logging out an already
// logged-out session is a no-op that succeeds.
func (s *Store) Logout(ctx context.Context) bool {
	s.clearSession(ctx)

	if err := s.nav.Push(ctx, LoginPath); err != nil {
		s.log.Error("post-logout navigation failed", "err", err)
		return false
	}
	return true
}

// FetchUserRole refreshes role and identity for the held token. Without a
// token it fails fast: no network call, role cleared, absent result. On a
// failed fetch only the role and identity fields are invalidated; the token
// is left untouched so a transient failure does not deauthenticate.
func (s *Store) FetchUserRole(ctx context.Context) (string, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		s.log.Debug("role fetch without token")
		s.setRole(ctx, "")
		return "", false
	}

	p, err := s.idc.Me(ctx, token)
	if err != nil {
		s.log.Error("role fetch failed", "err", err)
		s.setRole(ctx, "")
		return "", false
	}

	s.setIdentity(ctx, p.Email, p.ID, p.Role)
	return p.Role, true
}

// InitializeFromToken recovers a session after a reload. If a durable token
// was seeded it is validated against the identity service: success
// populates the full session and re-asserts the token's durability; any
// failure clears the session entirely, so a token the service no longer
// honors is never trusted.
func (s *Store) InitializeFromToken(ctx context.Context) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return
	}

	p, err := s.idc.Me(ctx, token)
	if err != nil {
		s.log.Warn("stored token rejected", "err", err)
		s.clearSession(ctx)
		return
	}

	s.setSession(ctx, token, p.Email, p.ID, p.Role)
}

/* ===================== grouped state writes ===================== */

// setSession applies the full identity as one atomic group and mirrors it.
func (s *Store) setSession(ctx context.Context, token, email, id, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userEmail = email
	s.userID = id
	s.userRole = role
	s.persist(ctx, mirrorKeyToken, token)
	s.persist(ctx, mirrorKeyUserEmail, email)
	s.persist(ctx, mirrorKeyUserID, id)
	s.persist(ctx, mirrorKeyUserRole, role)
}

// setIdentity updates everything but the token.
func (s *Store) setIdentity(ctx context.Context, email, id, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userEmail = email
	s.userID = id
	s.userRole = role
	s.persist(ctx, mirrorKeyUserEmail, email)
	s.persist(ctx, mirrorKeyUserID, id)
	s.persist(ctx, mirrorKeyUserRole, role)
}

func (s *Store) setRole(ctx context.Context, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userRole = role
	s.persist(ctx, mirrorKeyUserRole, role)
}

// clearSession clears all four fields in the same logical step, so no stale
// identity survives a logout or failed login.
func (s *Store) clearSession(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userEmail = ""
	s.userID = ""
	s.userRole = ""
	s.persist(ctx, mirrorKeyToken, "")
	s.persist(ctx, mirrorKeyUserEmail, "")
	s.persist(ctx, mirrorKeyUserID, "")
	s.persist(ctx, mirrorKeyUserRole, "")
}

// persist writes or deletes one mirror key. Mirror failures are logged and
// swallowed: the in-memory session stays authoritative for this process,
// the mirror is best-effort durability for the next one.
func (s *Store) persist(ctx context.Context, key, value string) {
	var err error
	if value == "" {
		err = s.mirror.Delete(ctx, key)
	} else {
		err = s.mirror.Set(ctx, key, value)
	}
	if err != nil {
		s.log.Error("mirror write failed", "key", key, "err", err)
	}
}
