package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/polyedge/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFlags_ApplyOnlyChanged(t *testing.T) {
	cmd := scanCommand(&rootOptions{})
	require.NoError(t, cmd.Flags().Parse([]string{"--threshold", "0.02", "--tag", "exp-7"}))

	cfg := config.Default()
	wantQuery := cfg.Scanner.Query
	sf := &scanFlags{threshold: 0.02, tag: "exp-7"}
	require.NoError(t, sf.apply(cmd.Flags(), &cfg))

	assert.InDelta(t, 0.02, cfg.Gate.Threshold, 1e-12)
	assert.Equal(t, "exp-7", cfg.Scanner.ExperimentTag)
	assert.Equal(t, wantQuery, cfg.Scanner.Query)
}

func TestScanFlags_PaperOnlyWinsOverLive(t *testing.T) {
	cmd := scanCommand(&rootOptions{})
	require.NoError(t, cmd.Flags().Parse([]string{"--execute-live", "--confirm-live", "--paper-only"}))

	cfg := config.Default()
	sf := &scanFlags{executeLive: true, confirmLive: true, paperOnly: true}
	require.NoError(t, sf.apply(cmd.Flags(), &cfg))
	assert.False(t, cfg.Live())
	assert.False(t, cfg.Execution.ConfirmLive)
}

func TestWatchStopFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		watchStopFile(ctx, cancel, 10*time.Millisecond)
		close(done)
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, stopFile), nil, 0o644))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Error(t, ctx.Err())
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "markets", "scan", "monitor", "positions", "account", "resolve", "history", "runs", "models", "wallet"} {
		assert.True(t, names[want], want)
	}
}
