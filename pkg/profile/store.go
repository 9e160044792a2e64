// Package profile reads and updates per-user subscription rows.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

// Table is the profile table name in every backend.
const Table = "profiles"

// Store is a profile backend.
type Store interface {
	// Get returns the profile for id, or a not_found error.
	Get(ctx context.Context, id string) (*types.UserProfile, error)
	// SetTier changes the tier of an existing profile.
	SetTier(ctx context.Context, id string, tier types.Tier) error
	// Ensure creates the profile if it does not exist; an existing row is
	// left unchanged.
	Ensure(ctx context.Context, p types.UserProfile) error
	// Close releases backend resources.
	Close() error
}

func notFound(id string) error {
	return core.NewNotFoundError(fmt.Sprintf("profile %q not found", id))
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return core.NewInvalidRequestError("profile id must not be empty")
	}
	return nil
}

func validateProfile(p types.UserProfile) error {
	if err := validateID(p.ID); err != nil {
		return err
	}
	if _, err := types.ParseTier(string(p.Tier)); err != nil {
		return core.NewInvalidRequestError(err.Error())
	}
	return nil
}
