// Package session holds the credential token and user identity of the
// running client, persists them across restarts and answers the
// authentication and role predicates used by guards and the gateway.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/atinyakov/expedientes/internal/models"
	"go.uber.org/zap"
)

// StorageKey is the single key under which the session is persisted.
const StorageKey = "expedientes_auth"

const persistTimeout = 5 * time.Second

// Persister is the storage boundary of the Store. Load returns (nil, nil)
// when nothing is stored under key.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Remove(ctx context.Context, key string) error
}

// snapshot is the persisted shape: {"token": ..., "user": {...}}.
type snapshot struct {
	Token *string      `json:"token"`
	User  *models.User `json:"user"`
}

// Store is the session state shared by every component of one client
// process. It is safe for concurrent use; readers never observe a token
// that differs from the persisted one.
type Store struct {
	mu        sync.RWMutex
	token     string
	user      *models.User
	persister Persister
	log       *zap.Logger
	now       func() time.Time

	subMu sync.Mutex
	subs  []func(authenticated bool)
}

// New returns an empty Store. Call Restore to load a persisted session.
func New(p Persister, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{persister: p, log: log, now: time.Now}
}

// Restore loads the persisted session. Absent, unreadable, malformed or
// expired state leaves the store logged out and is removed from storage;
// Restore never fails.
func (s *Store) Restore() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	payload, err := s.persister.Load(ctx, StorageKey)
	if err != nil {
		s.log.Warn("discarding unreadable session", zap.Error(err))
		s.discard(ctx)
		return
	}
	if payload == nil {
		return
	}

	token, user, err := decode(payload)
	if err != nil {
		s.log.Warn("discarding malformed session", zap.Error(err))
		s.discard(ctx)
		return
	}
	if token == "" {
		return
	}
	if exp, ok := TokenExpiry(token); ok && !exp.After(s.now()) {
		s.log.Info("discarding expired session", zap.Time("expired_at", exp))
		s.discard(ctx)
		return
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	s.log.Debug("session restored", zap.String("username", user.Username))
	s.publish(true)
}

func (s *Store) discard(ctx context.Context) {
	if err := s.persister.Remove(ctx, StorageKey); err != nil {
		s.log.Warn("failed to remove session", zap.Error(err))
	}
}

func decode(payload []byte) (string, *models.User, error) {
	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return "", nil, err
	}
	if snap.Token == nil && snap.User == nil {
		return "", nil, nil
	}
	if snap.Token == nil || *snap.Token == "" || snap.User == nil {
		return "", nil, errors.New("token and user must be present together")
	}
	if snap.User.ID <= 0 || snap.User.Username == "" || !snap.User.Role.Valid() {
		return "", nil, errors.New("invalid user")
	}
	return *snap.Token, snap.User, nil
}

// Login persists and publishes a new session. The in-memory state changes
// only if persistence succeeded.
func (s *Store) Login(token string, user models.User) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	payload, err := json.Marshal(snapshot{Token: &token, User: &user})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	s.mu.Lock()
	if err := s.persister.Save(ctx, StorageKey, payload); err != nil {
		s.mu.Unlock()
		return err
	}
	u := user
	s.token = token
	s.user = &u
	s.mu.Unlock()

	s.publish(true)
	return nil
}

// Logout clears the session in memory and in storage. It reports whether
// a session was present. Navigation after logout is the caller's job.
func (s *Store) Logout() bool {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	s.mu.Lock()
	had := s.token != "" || s.user != nil
	s.token = ""
	s.user = nil
	if err := s.persister.Remove(ctx, StorageKey); err != nil {
		s.log.Warn("failed to remove session", zap.Error(err))
	}
	s.mu.Unlock()

	if had {
		s.publish(false)
	}
	return had
}

// IsAuthenticated is true iff a non-empty token and a user are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// HasRole is true iff a user is present and its role is one of roles.
func (s *Store) HasRole(roles ...models.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	for _, r := range roles {
		if s.user.Role == r {
			return true
		}
	}
	return false
}

// User returns a copy of the current user.
func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Token returns the current token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subscribe registers fn to be called after every login and after every
// logout that cleared a session.
func (s *Store) Subscribe(fn func(authenticated bool)) {
	s.subMu.Lock()
	s.subs = append(s.subs, fn)
	s.subMu.Unlock()
}

func (s *Store) publish(authenticated bool) {
	s.subMu.Lock()
	subs := append([]func(bool){}, s.subs...)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(authenticated)
	}
}
