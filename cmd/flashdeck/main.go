package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/conorfennell/flashdeck/internal/config"
	"github.com/conorfennell/flashdeck/internal/deck"
	"github.com/conorfennell/flashdeck/internal/logger"
	"github.com/conorfennell/flashdeck/internal/storage"
	"github.com/conorfennell/flashdeck/internal/vcs"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	deck    *deck.Repository
	history *storage.History
	out     io.Writer
	errOut  io.Writer
}

func (a *app) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := config.Flags("flashdeck")
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, fs)
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		usage(stderr, fs)
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	log, err := logger.Setup(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	a, err := newApp(cfg, log, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("failed to close history", "error", err)
		}
	}()

	if err := cmd.run(a, rest[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, deck.ErrSave) {
			fmt.Fprintln(stderr, "The deck was not changed. Check the data directory and retry.")
		}
		return 1
	}
	return 0
}

func newApp(cfg *config.Config, log *slog.Logger, stdout, stderr io.Writer) (*app, error) {
	a := &app{cfg: cfg, logger: log, out: stdout, errOut: stderr}

	opts := []deck.Option{
		deck.WithLogger(log),
		deck.WithStoreOptions(
			storage.WithRetries(cfg.Store.Retries),
			storage.WithRetryDelay(cfg.Store.RetryDelay),
		),
	}

	if cfg.Backup.Git {
		snaps, err := vcs.OpenSnapshots(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, deck.WithSnapshotter(snaps))
	}

	if cfg.History.Enabled {
		history, err := storage.OpenHistory(cfg.HistoryPath())
		if err != nil {
			return nil, err
		}
		a.history = history
		opts = append(opts, deck.WithHistory(history))
	}

	a.deck = deck.New(cfg.DeckPath(), opts...)
	log.Debug("deck ready", "path", cfg.DeckPath(), "history", cfg.History.Enabled, "git", cfg.Backup.Git)
	return a, nil
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: flashdeck [flags] <command> [command flags] [args]")
	fmt.Fprintln(w, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %-8s %s\n", name, strings.TrimSpace(c.summary))
	}
	fmt.Fprintln(w, "\nFlags:")
	fmt.Fprint(w, fs.FlagUsages())
}
