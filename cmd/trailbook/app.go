package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v3"

	"trailbook/internal/config"
	"trailbook/internal/gps"
	"trailbook/internal/gpspoint"
)

// app carries what every command needs once the global flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg config.Config
	log *slog.Logger
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	a := &app{stdout: stdout, stderr: stderr}
	return &cli.Command{
		Name:      "trailbook",
		Usage:     "Inspect, normalise, import and record gpspoint track files",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML or TOML config",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override log.level (debug, info, warn, error)",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.summaryCommand(),
			a.fmtCommand(),
			a.geojsonCommand(),
			a.importNMEACommand(),
			a.recordCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg := config.Default()
	if path := strings.TrimSpace(cmd.String("config")); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return ctx, fmt.Errorf("config load failed: %w", err)
		}
	}
	if lvl := strings.TrimSpace(cmd.String("log-level")); lvl != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(lvl)); err != nil {
			return ctx, fmt.Errorf("--log-level: %w", err)
		}
		cfg.Log.Level = lvl
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	return ctx, nil
}

// expandPath resolves ~ and makes path absolute so that image references can
// be resolved against its directory.
func expandPath(path string) (string, error) {
	path, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	return filepath.Abs(path)
}

func (a *app) readDocument(path string) (*gps.Document, error) {
	abs, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, ok, err := gpspoint.Read(f, a.cfg.Options(filepath.Dir(abs), a.log))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: no gpspoint records found", path)
	}
	return doc, nil
}

// writeDocument writes doc to path, or to stdout when path is "" or "-".
// Stdout output resolves file references against stdoutBase, or the working
// directory when it is empty. Files are replaced atomically and keep their
// permissions.
func (a *app) writeDocument(path, stdoutBase string, doc *gps.Document) error {
	if path == "" || path == "-" {
		if stdoutBase == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			stdoutBase = cwd
		}
		return gpspoint.Write(a.stdout, doc, a.cfg.Options(stdoutBase, a.log))
	}

	abs, err := expandPath(path)
	if err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(abs); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gpspoint.Write(tmp, doc, a.cfg.Options(dir, a.log)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), abs)
}

func requireArg(cmd *cli.Command, usage string) (string, error) {
	if cmd.NArg() < 1 {
		return "", fmt.Errorf("usage: trailbook %s %s", cmd.Name, usage)
	}
	return cmd.Args().First(), nil
}
