// ABOUTME: status, tear, history and forget subcommands
// ABOUTME: Each command opens a Ritual for the configured identity and renders the outcome

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389/wen/internal/scroll"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's scroll and your progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, closeFn, err := rootOpts.begin(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			phase, err := r.Resume(ctx)
			if err != nil {
				return err
			}
			renderStatus(cmd.OutOrStdout(), phase, r.State())
			return nil
		},
	}
}

// TearOptions holds flags for the tear command.
type TearOptions struct {
	*RootOptions
	Drag float64
	Pace bool
}

// NewTearCommand creates the tear command.
func NewTearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tear",
		Short: "Tear today's scroll",
		Long: `Tear today's scroll. The scroll can be torn once per day.

A drag shorter than the tear threshold snaps back without tearing.

Example:
  wen tear
  wen tear --drag 30    # snaps back
  wen tear --pace       # reveal at the ritual's pace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTear(cmd, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.Drag, "drag", 2*scroll.TearThreshold, "drag distance in pixels")
	cmd.Flags().BoolVar(&opts.Pace, "pace", false, "pause between the crack and the reveal")

	return cmd
}

func runTear(cmd *cobra.Command, opts *TearOptions) error {
	ctx := cmd.Context()
	r, closeFn, err := opts.begin(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	g := scroll.Gesture{StartX: 0, EndX: opts.Drag}
	if opts.Pace && scroll.InterpretGesture(g, r.State().HasActedToday) == scroll.DecisionTear {
		if err := pause(ctx, scroll.TearDragDuration+scroll.CrackDelay); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "  ...")
		if err := pause(ctx, scroll.ResultDelay); err != nil {
			return err
		}
	}

	res, err := r.Release(ctx, g)
	if err != nil {
		return err
	}
	renderTear(cmd.OutOrStdout(), res)
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past tears, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, closeFn, err := rootOpts.begin(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			entries, err := r.History(ctx, limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", scroll.DefaultHistoryLimit, "maximum entries to show")
	return cmd
}

// NewForgetCommand creates the forget command.
func NewForgetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Clear this device's cached state for the identity",
		Long: `Clear this device's cached state and entry journal for the identity.

The remote record store is not changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := rootOpts.identity()
			if err != nil {
				return err
			}

			r, closeFn, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := r.Forget(cmd.Context(), identity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  cleared device state for %s\n", identity)
			return nil
		},
	}
}
