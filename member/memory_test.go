package member

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	m := &Member{Username: "alice", PasswordHash: "h", Activated: true, Authorities: []string{"ROLE_USER"}}
	if err := store.Create(ctx, m); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.ID != 1 {
		t.Errorf("ID = %d, want 1", m.ID)
	}

	got, err := store.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	got.Authorities[0] = "ROLE_ADMIN"

	again, _ := store.FindByUsername(ctx, "alice")
	if again.Authorities[0] != "ROLE_USER" {
		t.Error("FindByUsername() returned shared state")
	}

	if _, err := store.FindByUsername(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByUsername(bob) error = %v, want ErrNotFound", err)
	}
	if err := store.Create(ctx, &Member{Username: "alice"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicate", err)
	}
}
