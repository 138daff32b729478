package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepNowDeletesStaleSessions(t *testing.T) {
	fs := setupTestStore(t)
	ctx := context.Background()

	fs.Append(ctx, "stale", RoleUser, "hi", nil)
	fs.Append(ctx, "fresh", RoleUser, "hi", nil)

	// Age the stale session past the retention window
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(fs.Dir(), "stale.json"), old, old))

	sweeper := NewSweeper(fs, "@daily", 24*time.Hour)
	deleted, err := sweeper.SweepNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	sessions, err := fs.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, sessions)
}

func TestSweepNowEmptyStore(t *testing.T) {
	fs := setupTestStore(t)

	sweeper := NewSweeper(fs, "@daily", time.Hour)
	deleted, err := sweeper.SweepNow(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSweeperStartStop(t *testing.T) {
	fs := setupTestStore(t)

	sweeper := NewSweeper(fs, "@daily", 0)
	require.NoError(t, sweeper.Start())

	// Starting twice is an error
	assert.Error(t, sweeper.Start())

	sweeper.Stop()
	// Stopping twice is harmless
	sweeper.Stop()
}

func TestSweeperInvalidSchedule(t *testing.T) {
	fs := setupTestStore(t)

	sweeper := NewSweeper(fs, "not a schedule", 0)
	assert.Error(t, sweeper.Start())
}

func TestSweeperDefaultMaxAge(t *testing.T) {
	fs := setupTestStore(t)

	sweeper := NewSweeper(fs, "@daily", 0)
	assert.Equal(t, DefaultRetentionAge, sweeper.maxAge)
}
