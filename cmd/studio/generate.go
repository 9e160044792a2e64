package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/vango-go/vai-studio/internal/config"
	"github.com/vango-go/vai-studio/pkg/core/types"
	vai "github.com/vango-go/vai-studio/sdk"
)

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func (a *app) runSearch(ctx context.Context, args []string) error {
	fs := newFlagSet(a, "search")
	showHistory := fs.Bool("history", false, "print the saved chat and exit")
	clearHistory := fs.Bool("clear", false, "delete the saved chat and exit")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	switch {
	case *clearHistory:
		if err := client.Search.ClearHistory(); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Search history cleared.")
		return nil
	case *showHistory:
		for _, m := range client.Search.History() {
			printMessage(a, m)
		}
		return nil
	}

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("%w: search needs a query", errUsage)
	}
	if err := a.cfg.Validate(config.NeedAPIKey); err != nil {
		return err
	}
	res, err := client.Search.Ask(ctx, vai.SearchRequest{Query: query})
	if res != nil {
		printMessage(a, res.Reply)
	}
	return err
}

func printMessage(a *app, m types.Message) {
	who := "You"
	if m.Role == types.RoleModel {
		who = "Gemini"
	}
	fmt.Fprintf(a.stdout, "%s: %s\n", who, m.Text)
	for i, s := range m.Sources {
		fmt.Fprintf(a.stdout, "  [%d] %s <%s>\n", i+1, s.DisplayTitle(), s.URI)
	}
}

func (a *app) runImage(ctx context.Context, args []string) error {
	fs := newFlagSet(a, "image")
	aspect := fs.String("aspect", string(types.AspectSquare), "aspect ratio: 1:1, 16:9, 9:16, 3:4 or 4:3")
	out := fs.String("out", "", "write the image to this file instead of printing a data URL")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		return fmt.Errorf("%w: image needs a prompt", errUsage)
	}
	ratio, err := types.ParseAspectRatio(*aspect)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := a.cfg.Validate(config.NeedAPIKey); err != nil {
		return err
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	asset, err := client.Images.Generate(ctx, vai.ImageRequest{Prompt: prompt, AspectRatio: ratio})
	if errors.Is(err, vai.ErrNoImage) {
		return errors.New("the model did not return an image; try a different prompt")
	}
	if err != nil {
		return err
	}

	if *out == "" {
		fmt.Fprintln(a.stdout, asset.URL)
		return nil
	}
	data, err := decodeDataURL(asset.URL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	fmt.Fprintf(a.stdout, "Saved %s (%d bytes)\n", *out, len(data))
	return nil
}

func decodeDataURL(u string) ([]byte, error) {
	_, payload, ok := strings.Cut(u, ";base64,")
	if !ok {
		return nil, errors.New("not a base64 data URL")
	}
	return base64.StdEncoding.DecodeString(payload)
}

func (a *app) runVideo(ctx context.Context, args []string) error {
	fs := newFlagSet(a, "video")
	resolution := fs.String("resolution", a.cfg.Video.Resolution, "720p or 1080p")
	aspect := fs.String("aspect", a.cfg.Video.AspectRatio, "aspect ratio: 16:9 or 9:16")
	out := fs.String("out", "", "download the finished video to this file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		return fmt.Errorf("%w: video needs a prompt", errUsage)
	}
	ratio, err := types.ParseAspectRatio(*aspect)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stderr, "Generating video. This can take a few minutes...")
	v, err := client.Videos.Generate(ctx, vai.VideoRequest{
		Prompt:      prompt,
		Resolution:  *resolution,
		AspectRatio: ratio,
		OnPoll: func(attempt int) {
			a.logger.Debug("video still rendering", "attempt", attempt)
		},
	})
	if errors.Is(err, vai.ErrCredentialDeclined) {
		return errors.New("video generation cancelled: no API key selected")
	}
	if err != nil {
		return err
	}

	if *out == "" {
		fmt.Fprintln(a.stdout, v.Asset.URL)
		return nil
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	var n int64
	if len(v.Data) > 0 {
		written, werr := f.Write(v.Data)
		n, err = int64(written), werr
	} else {
		n, err = client.Videos.Download(ctx, v.URI, f)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Saved %s (%d bytes)\n", *out, n)
	return nil
}
