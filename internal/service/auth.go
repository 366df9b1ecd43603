package service

import (
	"context"
	"errors"
	"strings"

	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/models"
	"go.uber.org/zap"
)

// SessionStore defines the session operations required by the
// authentication service.
type SessionStore interface {
	// Login persists and publishes a new session.
	Login(token string, user models.User) error
	// Logout clears the session and reports whether one was present.
	Logout() bool
	// User returns the current user, if any.
	User() (models.User, bool)
}

// AuthService implements login and logout against the service, keeping
// the session store in step.
type AuthService struct {
	api     API
	session SessionStore
	log     *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(api API, session SessionStore, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{api: api, session: session, log: log}
}

// Login exchanges credentials for a token and stores the session.
// Invalid credentials come back as a KindAuthExpired error without
// touching the current session.
func (s *AuthService) Login(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, gateway.Invalid("username", "El usuario es obligatorio")
	}
	if password == "" {
		return models.User{}, gateway.Invalid("password", "La contraseña es obligatoria")
	}

	var resp models.AuthResponse
	creds := models.LoginCredentials{Username: username, Password: password}
	if err := s.api.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return models.User{}, err
	}
	if resp.Token == "" || resp.User.ID <= 0 || !resp.User.Role.Valid() {
		return models.User{}, errors.New("login: incomplete response from server")
	}
	if err := s.session.Login(resp.Token, resp.User); err != nil {
		return models.User{}, err
	}

	s.log.Info("logged in", zap.String("username", resp.User.Username), zap.String("rol", string(resp.User.Role)))
	return resp.User, nil
}

// Logout ends the local session. The service keeps no session state, so
// no request is made.
func (s *AuthService) Logout() bool {
	return s.session.Logout()
}

// Current returns the logged in user.
func (s *AuthService) Current() (models.User, bool) {
	return s.session.User()
}
