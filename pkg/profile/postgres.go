package profile

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the embedded schema migrations rooted at their directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// PostgresStore keeps profiles in a Postgres table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens a pool for dsn and checks connectivity.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("profile: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.NewConnectionError("profile database unreachable", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate applies pending schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, Migrations())
	if err != nil {
		return fmt.Errorf("profile: load migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("profile: migrate: %w", err)
	}
	for _, r := range results {
		logger.Info("migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*types.UserProfile, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var (
		p     types.UserProfile
		email *string
	)
	err := s.pool.QueryRow(ctx, `SELECT id, tier, email FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Tier, &email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("profile: get %q: %w", id, err)
	}
	if email != nil {
		p.Email = *email
	}
	return &p, nil
}

func (s *PostgresStore) SetTier(ctx context.Context, id string, tier types.Tier) error {
	if err := validateProfile(types.UserProfile{ID: id, Tier: tier}); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET tier = $2, updated_at = now() WHERE id = $1`, id, string(tier))
	if err != nil {
		return fmt.Errorf("profile: set tier %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PostgresStore) Ensure(ctx context.Context, p types.UserProfile) error {
	if err := validateProfile(p); err != nil {
		return err
	}
	var email *string
	if p.Email != "" {
		email = &p.Email
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, tier, email) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		p.ID, string(p.Tier), email)
	if err != nil {
		return fmt.Errorf("profile: ensure %q: %w", p.ID, err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
