package member

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/bearerauth/auth"
	"github.com/jonwraymond/bearerauth/observe"
	"golang.org/x/crypto/bcrypt"
)

// ServiceConfig configures the login service.
type ServiceConfig struct {
	// Store holds the members. Required.
	Store Store

	// HashCost is the bcrypt cost for new passwords.
	// Default: bcrypt.DefaultCost
	HashCost int

	// Logger records login failures without credentials.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Service authenticates members by password.
type Service struct {
	store     Store
	cost      int
	logger    observe.Logger
	dummyHash string
}

// NewService creates a login service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("member: store is required")
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	// Compared against for unknown usernames so lookups and mismatches cost the same.
	dummy, err := HashPassword("bearerauth-unknown-member", cfg.HashCost)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:     cfg.Store,
		cost:      cfg.HashCost,
		logger:    cfg.Logger.With(observe.F("component", "member.service")),
		dummyHash: dummy,
	}, nil
}

// Register creates an activated member with a hashed password.
func (s *Service) Register(ctx context.Context, username, password, nickname string, authorities ...string) (*Member, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return nil, err
	}
	id := auth.NewIdentity(username, authorities...)
	m := &Member{
		Username:     username,
		PasswordHash: hash,
		Nickname:     nickname,
		Activated:    true,
		Authorities:  id.Authorities,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Login checks username and password and returns the member's identity.
func (s *Service) Login(ctx context.Context, username, password string) (auth.Identity, error) {
	m, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		_, _ = CheckPassword(s.dummyHash, password)
		s.logger.Info(ctx, "login failed", observe.F("username", username), observe.F("reason", "unknown_user"))
		return auth.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return auth.Identity{}, fmt.Errorf("member: lookup: %w", err)
	}

	ok, err := CheckPassword(m.PasswordHash, password)
	if err != nil {
		return auth.Identity{}, err
	}
	if !ok {
		s.logger.Info(ctx, "login failed", observe.F("username", username), observe.F("reason", "bad_password"))
		return auth.Identity{}, ErrInvalidCredentials
	}
	if !m.Activated {
		s.logger.Info(ctx, "login failed", observe.F("username", username), observe.F("reason", "inactive"))
		return auth.Identity{}, ErrInactive
	}
	return m.Identity(), nil
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
