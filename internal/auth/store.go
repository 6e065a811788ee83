package auth

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookingwatch/internal/domain"
)

// Store is the process-wide session store. It is hydrated once from
// persisted storage at startup and cleared on logout; reads are synchronous
// snapshots taken fresh per request. Nothing in the polling core writes to
// it, so readers need no further coordination beyond the mutex.
type Store struct {
	mu     sync.RWMutex
	token  string
	userID string
	role   domain.Role
}

// persistedSession is the on-disk shape of a hydrated session.
type persistedSession struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{}
}

// Init hydrates the store from the persisted session file. A missing file
// is not an error; the store simply starts logged out.
func (s *Store) Init(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read session file: %w", err)
	}

	var session persistedSession
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("parse session file: %w", err)
	}

	return s.SetToken(session.Token, domain.Role(session.Role))
}

// SetToken installs a session token. The role and user id are taken from
// the token claims when present; an explicit role wins over the claim.
func (s *Store) SetToken(token string, role domain.Role) error {
	userID, claimRole, err := inspectToken(token)
	if err != nil {
		return err
	}
	if role == "" {
		role = claimRole
	}
	if role != "" && !domain.ValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	s.mu.Lock()
	s.token = token
	s.userID = userID
	s.role = role
	s.mu.Unlock()
	return nil
}

// Token returns the current session token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID returns the subject of the current session token.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Role returns the role of the current session.
func (s *Store) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// Clear logs the session out.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.userID = ""
	s.role = ""
	s.mu.Unlock()
}

// inspectToken extracts subject and role claims. The gateway is a token
// bearer, not the issuer, so claims are read without signature
// verification; the Booking Store is the one that validates the token.
func inspectToken(token string) (userID string, role domain.Role, err error) {
	if token == "" {
		return "", "", nil
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", "", fmt.Errorf("parse session token: %w", err)
	}

	if sub, err := claims.GetSubject(); err == nil {
		userID = sub
	}
	if raw, ok := claims["userType"].(string); ok {
		role = domain.Role(raw)
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
		log.Printf("session token expired at %s; backend calls will be rejected", exp.Time.Format(time.RFC3339))
	}

	return userID, role, nil
}
