// Command studio runs grounded search, image and video generation, live
// voice conversations and the HTTP API from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vango-go/vai-studio/internal/config"
	"github.com/vango-go/vai-studio/internal/localstore"
	"github.com/vango-go/vai-studio/pkg/core/credential"
	"github.com/vango-go/vai-studio/pkg/metrics"
	"github.com/vango-go/vai-studio/pkg/profile"
	vai "github.com/vango-go/vai-studio/sdk"
)

const usage = `usage: studio [-config file] [-env file] <command> [flags] [args]

commands:
  voice                         talk to the model on the microphone and speaker
  search [-history|-clear] q    ask a web-grounded question
  image [-aspect 1:1] prompt    generate an image
  video [-out file] prompt      generate a video
  profile get <id>              show a profile
  profile set-tier <id> <tier>  change a profile's tier (free or pro)
  migrate                       apply profile database migrations
  serve                         run the HTTP API
`

// errUsage reports a bad command line; it exits with status 2.
var errUsage = errors.New("invalid usage")

// app holds what every command shares.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
	metrics *metrics.Metrics
	deps    deps
}

type deps struct {
	newClient    func(a *app) (*vai.Client, error)
	openProfiles func(ctx context.Context, cfg *config.Config) (profile.Store, error)
}

func defaultDeps() deps {
	return deps{
		newClient:    newClient,
		openProfiles: openProfiles,
	}
}

func newClient(a *app) (*vai.Client, error) {
	path, err := a.cfg.ResolveStorePath()
	if err != nil {
		return nil, err
	}
	return vai.NewClient(
		vai.WithCredentialProvider(credential.NewPrompt(a.cfg.APIKey)),
		vai.WithStore(localstore.Open(path, a.logger)),
		vai.WithLogger(a.logger),
		vai.WithRecorder(a.metrics),
		vai.WithLiveConfig(a.cfg.Live),
		vai.WithPollInterval(a.cfg.Video.PollInterval),
	), nil
}

func openProfiles(ctx context.Context, cfg *config.Config) (profile.Store, error) {
	if cfg.HasSupabase() {
		return profile.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.Key)
	}
	return profile.NewPostgresStore(ctx, cfg.DatabaseURL)
}

func runMain(ctx context.Context, args []string, stdout, stderr io.Writer, d deps) int {
	fs := flag.NewFlagSet("studio", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "config file (YAML or JSON); also STUDIO_CONFIG")
	envFile := fs.String("env", ".env", "dotenv file loaded before the environment")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "studio: %v\n", err)
		return 1
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "studio: %v\n", err)
		return 1
	}

	a := &app{
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		stdout:  stdout,
		stderr:  stderr,
		metrics: metrics.New(cfg.MetricsNamespace),
		deps:    d,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	err = a.run(ctx, cmd, rest)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "studio %s: %v\n", cmd, err)
		fmt.Fprint(stderr, usage)
		return 2
	default:
		fmt.Fprintf(stderr, "studio %s: %s\n", cmd, vai.UserMessage(err))
		a.logger.Debug("command failed", "command", cmd, "error", err)
		return 1
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "voice":
		return a.runVoice(ctx, args)
	case "search":
		return a.runSearch(ctx, args)
	case "image":
		return a.runImage(ctx, args)
	case "video":
		return a.runVideo(ctx, args)
	case "profile":
		return a.runProfile(ctx, args)
	case "migrate":
		return a.runMigrate(ctx, args)
	case "serve":
		return a.runServe(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) client() (*vai.Client, error) {
	return a.deps.newClient(a)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runMain(ctx, os.Args[1:], os.Stdout, os.Stderr, defaultDeps())
	stop()
	os.Exit(code)
}
