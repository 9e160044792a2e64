package profile

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), ".")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("no migrations embedded")
	}
	data, err := fs.ReadFile(Migrations(), entries[0].Name())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, want := range []string{"-- +goose Up", "-- +goose Down", "profiles"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("%s missing %q", entries[0].Name(), want)
		}
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("STUDIO_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STUDIO_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx, nil); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	id := "test_" + uuid.NewString()
	if _, err := store.Get(ctx, id); !core.IsType(err, core.ErrNotFound) {
		t.Fatalf("Get before insert: %v", err)
	}
	if err := store.Ensure(ctx, types.UserProfile{ID: id, Tier: types.TierFree, Email: "t@example.com"}); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := store.SetTier(ctx, id, types.TierPro); err != nil {
		t.Fatalf("SetTier: %v", err)
	}
	if err := store.Ensure(ctx, types.UserProfile{ID: id, Tier: types.TierFree}); err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	p, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Tier != types.TierPro || p.Email != "t@example.com" {
		t.Fatalf("profile = %+v", p)
	}
}
