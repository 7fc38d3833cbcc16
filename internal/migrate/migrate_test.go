package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/ephemeraldb/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUp_RequiresDatabase(t *testing.T) {
	t.Parallel()

	_, err := Up(context.Background(), nil, fstest.MapFS{}, Options{})
	require.ErrorIs(t, err, ErrNoDatabase)
}

func TestUp_RequiresSource(t *testing.T) {
	t.Parallel()

	// sql.Open does not connect, so no server is needed here.
	db, err := sql.Open("pgx", "postgres://user@127.0.0.1:1/none")
	require.NoError(t, err)
	defer db.Close()

	_, err = Up(context.Background(), db, nil, Options{})
	require.ErrorIs(t, err, ErrNoSource)

	_, err = Version(context.Background(), db, nil, Options{})
	require.ErrorIs(t, err, ErrNoSource)
}

func TestToResults_SkipsNil(t *testing.T) {
	t.Parallel()

	assert.Empty(t, toResults(nil))
}

func TestSlogGooseLogger(t *testing.T) {
	t.Parallel()

	l, buf := logger.GetTestLogger(t)
	gl := &slogGooseLogger{logger: l}

	gl.Printf("OK   %s (%s)\n", "00001_create_todos.sql", "1.2ms")
	gl.Fatalf("migration %d failed", 2)

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "DEBUG", entries[0]["level"])
	assert.Equal(t, "OK   00001_create_todos.sql (1.2ms)", entries[0]["msg"])
	assert.Equal(t, "goose", entries[0]["component"])

	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "migration 2 failed", entries[1]["msg"])
}
