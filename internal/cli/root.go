// ABOUTME: Root cobra command for the wen CLI and the wiring shared by subcommands
// ABOUTME: Loads client config, sets up logging and tracing, and builds a Ritual per invocation

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/wen/internal/config"
	"github.com/2389/wen/internal/logging"
	"github.com/2389/wen/internal/manifest"
	"github.com/2389/wen/internal/memory"
	"github.com/2389/wen/internal/remote"
	"github.com/2389/wen/internal/ritual"
	"github.com/2389/wen/internal/store"
	"github.com/2389/wen/internal/telemetry"
)

// ErrNoIdentity is returned when neither --identity nor the config names one.
var ErrNoIdentity = errors.New("no identity: pass --identity or set WEN_IDENTITY")

// RootOptions holds global flags and the state loaded before a subcommand runs.
type RootOptions struct {
	Verbose    bool
	Identity   string
	ConfigPath string

	// ShiftDays moves the ritual clock forward so a new day can be
	// exercised without waiting for midnight UTC.
	ShiftDays int

	config   *config.ClientConfig
	logger   *slog.Logger
	shutdown func(context.Context) error
}

// NewRootCommand creates the root command for the wen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wen",
		Short: "wen - tear the daily scroll",
		Long: `Once a day, tear the scroll and see what it holds.

State is kept in the remote record store when it is reachable and in a
device cache when it is not.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.shutdown == nil {
				return nil
			}
			return opts.shutdown(context.Background())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.Identity, "identity", "i", "", "identity to act as (overrides WEN_IDENTITY)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/wen/wen.toml)")
	cmd.PersistentFlags().IntVar(&opts.ShiftDays, "shift-days", 0, "development: pretend this many days have passed")
	_ = cmd.PersistentFlags().MarkHidden("shift-days")

	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewTearCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewForgetCommand(opts))

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (o *RootOptions) load(cmd *cobra.Command) error {
	if o.ShiftDays < 0 {
		return fmt.Errorf("--shift-days must not be negative")
	}

	path := o.ConfigPath
	if path == "" {
		path = config.ClientConfigPath()
	}

	cfg, err := config.LoadClient(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if o.Identity != "" {
		cfg.Identity = o.Identity
	}
	o.config = cfg
	o.logger = setupLogger(cmd, cfg.Logging.Level, o.Verbose)

	shutdown, err := telemetry.Setup(cmd.Context(), "wen")
	if err != nil {
		o.logger.Warn("tracing disabled", "error", err)
	}
	o.shutdown = shutdown
	return nil
}

func (o *RootOptions) identity() (string, error) {
	if o.config == nil || o.config.Identity == "" {
		return "", ErrNoIdentity
	}
	return o.config.Identity, nil
}

// open builds a Ritual over the device cache and the configured remote.
// The returned close function releases the cache.
func (o *RootOptions) open() (*ritual.Ritual, func() error, error) {
	cache, err := store.NewSQLiteStore(o.config.Cache.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening device cache: %w", err)
	}

	gen, err := manifest.NewGenerator()
	if err != nil {
		cache.Close()
		return nil, nil, err
	}

	client := remote.NewClient(o.config.Remote.APIBase,
		remote.WithToken(o.config.Remote.Token),
		remote.WithTimeout(o.config.Remote.RequestTimeout),
	)
	mem := memory.NewStore(client, cache,
		memory.WithClock(o.now),
		memory.WithLogger(o.logger),
	)
	return ritual.New(mem, gen, ritual.WithLogger(o.logger)), cache.Close, nil
}

// now is the ritual clock, shifted by --shift-days.
func (o *RootOptions) now() time.Time {
	return time.Now().AddDate(0, 0, o.ShiftDays)
}

// begin opens a Ritual and loads the configured identity.
func (o *RootOptions) begin(ctx context.Context) (*ritual.Ritual, func() error, error) {
	identity, err := o.identity()
	if err != nil {
		return nil, nil, err
	}

	r, closeFn, err := o.open()
	if err != nil {
		return nil, nil, err
	}
	if _, err := r.Begin(ctx, identity); err != nil {
		closeFn()
		return nil, nil, err
	}
	return r, closeFn, nil
}

func setupLogger(cmd *cobra.Command, levelName string, verbose bool) *slog.Logger {
	level := logging.ParseLevel(levelName, slog.LevelWarn)
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(logging.NewColorHandler(cmd.ErrOrStderr(), level))
}))
}
