package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfa-forge/internal/database"
)

func TestRecomputeCommand_EmptyDatabase(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DB_DRIVER", database.DriverSQLite)
	t.Setenv("DB_DSN", dsn)
	t.Setenv("TG_TOKEN", "")
	t.Setenv("LOG_FILE", "")

	rootCmd.SetArgs([]string{"recompute"})
	require.NoError(t, Execute(context.Background()))
}

func TestRecomputeCommand_UnknownHabit(t *testing.T) {
	t.Setenv("DB_DRIVER", database.DriverSQLite)
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("LOG_FILE", "")

	rootCmd.SetArgs([]string{"recompute", "--habit", "missing"})
	t.Cleanup(func() { habitID = "" })

	assert.Error(t, Execute(context.Background()))
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "recompute", "sweep"})
}
