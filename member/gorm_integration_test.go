//go:build integration

package member

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func setupTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN_TEST"))
	if dsn == "" {
		t.Skip("POSTGRES_DSN_TEST not set")
	}
	db, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store := NewGormStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGormStore_CreateFind(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	username := "alice-" + uuid.NewString()[:8]

	hash, _ := HashPassword("wonderland", bcrypt.MinCost)
	m := &Member{Username: username, PasswordHash: hash, Activated: true, Authorities: []string{"ROLE_USER", "ROLE_ADMIN"}}
	if err := store.Create(ctx, m); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.ID == 0 {
		t.Error("Create() did not assign ID")
	}

	got, err := store.FindByUsername(ctx, username)
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	id := got.Identity()
	if !id.HasAuthority("ROLE_ADMIN") || !id.HasAuthority("ROLE_USER") {
		t.Errorf("authorities = %v", got.Authorities)
	}

	if err := store.Create(ctx, &Member{Username: username, PasswordHash: hash}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicate", err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestGormStore_ConcurrentCreate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	username := "racer-" + uuid.NewString()[:8]
	hash, _ := HashPassword("wonderland", bcrypt.MinCost)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.Create(ctx, &Member{Username: username, PasswordHash: hash, Authorities: []string{"ROLE_USER"}})
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, ErrDuplicate):
			t.Errorf("Create() error = %v, want nil or ErrDuplicate", err)
		}
	}
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}
}
