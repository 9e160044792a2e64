package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/supabase-go"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

// SupabaseStore keeps profiles in a Supabase (PostgREST) table.
type SupabaseStore struct {
	client *supabase.Client
}

var _ Store = (*SupabaseStore)(nil)

// NewSupabaseStore connects with the project URL and an API key.
func NewSupabaseStore(url, key string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("profile: create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) Get(_ context.Context, id string) (*types.UserProfile, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var rows []types.UserProfile
	if _, err := s.client.From(Table).Select("id,tier,email", "", false).Eq("id", id).ExecuteTo(&rows); err != nil {
		return nil, core.NewProviderError("supabase", err)
	}
	if len(rows) == 0 {
		return nil, notFound(id)
	}
	return &rows[0], nil
}

func (s *SupabaseStore) SetTier(_ context.Context, id string, tier types.Tier) error {
	if err := validateProfile(types.UserProfile{ID: id, Tier: tier}); err != nil {
		return err
	}
	var rows []types.UserProfile
	_, err := s.client.From(Table).
		Update(map[string]any{"tier": tier}, "representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return core.NewProviderError("supabase", err)
	}
	if len(rows) == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SupabaseStore) Ensure(_ context.Context, p types.UserProfile) error {
	if err := validateProfile(p); err != nil {
		return err
	}
	row := map[string]any{"id": p.ID, "tier": p.Tier}
	if p.Email != "" {
		row["email"] = p.Email
	}
	if _, _, err := s.client.From(Table).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		if isConflict(err) {
			return nil
		}
		return core.NewProviderError("supabase", err)
	}
	return nil
}

// isConflict reports a unique-key violation, which PostgREST surfaces as
// "(23505) duplicate key value ...".
func isConflict(err error) bool {
	return strings.Contains(err.Error(), "(23505)")
}

// Close is a no-op; the client holds no long-lived connections.
func (s *SupabaseStore) Close() error { return nil }
