package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vango-go/vai-studio/internal/config"
	"github.com/vango-go/vai-studio/pkg/core/types"
	"github.com/vango-go/vai-studio/pkg/profile"
)

func (a *app) runProfile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: profile needs get or set-tier", errUsage)
	}
	if err := a.cfg.Validate(config.NeedProfileStore); err != nil {
		return err
	}

	var (
		id   string
		tier types.Tier
	)
	switch args[0] {
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("%w: profile get <id>", errUsage)
		}
		id = args[1]
	case "set-tier":
		if len(args) != 3 {
			return fmt.Errorf("%w: profile set-tier <id> <tier>", errUsage)
		}
		t, err := types.ParseTier(args[2])
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		id, tier = args[1], t
	default:
		return fmt.Errorf("%w: unknown profile command %q", errUsage, args[0])
	}

	store, err := a.deps.openProfiles(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if tier != "" {
		if err := store.SetTier(ctx, id, tier); err != nil {
			return err
		}
	}
	p, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func (a *app) runMigrate(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: migrate takes no arguments", errUsage)
	}
	if err := a.cfg.Validate(config.NeedDatabase); err != nil {
		return err
	}
	store, err := profile.NewPostgresStore(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx, a.logger); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Migrations applied.")
	return nil
}

var errNoProfiles = errors.New("no profile store configured")
