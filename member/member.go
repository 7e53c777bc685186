package member

import (
	"context"
	"slices"

	"github.com/jonwraymond/bearerauth/auth"
)

// Member is a login account.
type Member struct {
	ID           int64
	Username     string
	PasswordHash string
	Nickname     string
	Activated    bool
	Authorities  []string
}

// Identity returns the identity carried in tokens issued to m.
func (m *Member) Identity() auth.Identity {
	return auth.NewIdentity(m.Username, m.Authorities...)
}

func (m *Member) clone() *Member {
	c := *m
	c.Authorities = slices.Clone(m.Authorities)
	return &c
}

// Store looks up and persists members.
type Store interface {
	FindByUsername(ctx context.Context, username string) (*Member, error)
	Create(ctx context.Context, m *Member) error
	Ping(ctx context.Context) error
}
