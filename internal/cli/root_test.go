// ABOUTME: Tests for the wen command tree and end-to-end command runs
// ABOUTME: Commands run against a live record store and a temporary device cache

package cli

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/wen/internal/api"
	"github.com/2389/wen/internal/config"
	"github.com/2389/wen/internal/store"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "wen", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"status", "tear", "history", "forget"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	identity := cmd.PersistentFlags().Lookup("identity")
	require.NotNil(t, identity)
	assert.Equal(t, "", identity.DefValue)
}

func TestTearCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	tear, _, err := cmd.Find([]string{"tear"})
	require.NoError(t, err)

	drag := tear.Flags().Lookup("drag")
	require.NotNil(t, drag)
	assert.Equal(t, "100", drag.DefValue)
	assert.NotNil(t, tear.Flags().Lookup("pace"))
}

// setupEnv points the CLI at a fresh record store and device cache.
func setupEnv(t *testing.T) {
	t.Helper()
	cfg := config.DefaultStoreConfig()
	srv := api.NewWithStore(&cfg, store.NewMockStore(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})

	dir := t.TempDir()
	t.Setenv("WEN_CONFIG", filepath.Join(dir, "missing.toml"))
	t.Setenv("WEN_API_BASE", ts.URL)
	t.Setenv("WEN_CACHE_PATH", filepath.Join(dir, "cache.db"))
	t.Setenv("WEN_IDENTITY", "")
	t.Setenv("WEN_OTEL_ENDPOINT", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRun_RequiresIdentity(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "status")
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestRun_RitualFlow(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "status", "--identity", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "identity u1")
	assert.Contains(t, out, "scroll   intact")

	out, err = run(t, "tear", "-i", "u1", "--drag", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "snaps back")

	out, err = run(t, "tear", "-i", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "day 1, 1 entries, level 1")

	out, err = run(t, "tear", "-i", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "already torn today")

	out, err = run(t, "status", "-i", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "scroll   torn")

	out, err = run(t, "history", "-i", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "day   class")

	out, err = run(t, "forget", "-i", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared device state for u1")
}

func TestRun_IdentityFromEnvironment(t *testing.T) {
	setupEnv(t)
	t.Setenv("WEN_IDENTITY", "u9")

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "identity u9")
}

func TestRun_ShiftDaysStartsNewDay(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "tear", "-i", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "day 1, 1 entries")

	out, err = run(t, "status", "-i", "u1", "--shift-days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "day      2")
	assert.Contains(t, out, "streak   1")
	assert.Contains(t, out, "scroll   intact")

	out, err = run(t, "tear", "-i", "u1", "--shift-days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "day 2, 2 entries")
}

func TestRun_ShiftDaysRejectsNegative(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "status", "-i", "u1", "--shift-days", "-1")
	assert.Error(t, err)
}

func TestShiftDaysFlagIsHidden(t *testing.T) {
	flag := NewRootCommand().PersistentFlags().Lookup("shift-days")
	require.NotNil(t, flag)
	assert.True(t, flag.Hidden)
}

func TestSetupLogger_WritesToCommandStderr(t *testing.T) {
	cmd := &cobra.Command{}
	var errOut bytes.Buffer
	cmd.SetErr(&errOut)

	logger := setupLogger(cmd, "info", false)
	logger.Debug("hidden")
	logger.Info("remote unavailable", "id", "u1")
	assert.NotContains(t, errOut.String(), "hidden")
	assert.Contains(t, errOut.String(), "INF remote unavailable id=u1")

	errOut.Reset()
	setupLogger(cmd, "error", true).Debug("day progressed")
	assert.Contains(t, errOut.String(), "DBG day progressed")
	assert.Equal(t, slog.LevelWarn, levelOf(setupLogger(cmd, "", false)))
}

func levelOf(l *slog.Logger) slog.Level {
	for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), lvl) {
			return lvl
		}
	}
	return slog.LevelError + 1
}
