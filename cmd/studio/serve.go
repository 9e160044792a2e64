package main

import (
	"context"
	"fmt"

	"github.com/vango-go/vai-studio/internal/config"
	"github.com/vango-go/vai-studio/internal/httpserver"
	"github.com/vango-go/vai-studio/pkg/profile"
)

func (a *app) runServe(ctx context.Context, args []string) error {
	fs := newFlagSet(a, "serve")
	addr := fs.String("addr", a.cfg.Addr, "listen address")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.cfg.Validate(config.NeedAPIKey); err != nil {
		return err
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	var profiles profile.Store
	if a.cfg.Validate(config.NeedProfileStore) == nil {
		profiles, err = a.deps.openProfiles(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("open profile store: %w", err)
		}
		defer profiles.Close()
	} else {
		a.logger.Info("profile routes disabled", "reason", errNoProfiles)
	}

	srv := httpserver.New(httpserver.Options{
		Client:    client,
		Profiles:  profiles,
		Metrics:   a.metrics,
		Logger:    a.logger,
		RateLimit: a.cfg.RateLimit,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(*addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return <-errCh
}
