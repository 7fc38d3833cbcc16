package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/ephemeraldb/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatedAtComment_RoundTrip(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 3, 14, 15, 9, 26, 535897000, time.FixedZone("EST", -5*3600))
	comment := createdAtComment(created)

	assert.Equal(t, "ephemeraldb:created_at=2025-03-14T20:09:26.535897Z", comment)

	parsed, ok := parseCreatedAt(comment)
	require.True(t, ok)
	assert.True(t, created.Equal(parsed))
}

func TestParseCreatedAt_Rejects(t *testing.T) {
	t.Parallel()

	for _, comment := range []string{
		"",
		"created by hand",
		"ephemeraldb:created_at=",
		"ephemeraldb:created_at=yesterday",
		"2025-03-14T20:09:26Z",
	} {
		_, ok := parseCreatedAt(comment)
		assert.False(t, ok, "comment %q", comment)
	}
}

func TestQuoteLiteral(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "'plain'", quoteLiteral("plain"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
	assert.Equal(t, "''''''", quoteLiteral("''"))
}

func TestStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	databases := []Database{
		{Name: "test_old", CreatedAt: now.Add(-3 * time.Hour)},
		{Name: "test_old_in_use", CreatedAt: now.Add(-3 * time.Hour), Sessions: 2},
		{Name: "test_fresh", CreatedAt: now.Add(-10 * time.Minute)},
		{Name: "test_untagged"},
		{Name: "test_untagged_in_use", Sessions: 1},
		{Name: "test_boundary", CreatedAt: now.Add(-time.Hour)},
		{Name: "test_future", CreatedAt: now.Add(time.Hour)},
	}

	names := func(dbs []Database) []string {
		var out []string
		for _, d := range dbs {
			out = append(out, d.Name)
		}
		return out
	}

	tests := []struct {
		name  string
		force bool
		want  []string
	}{
		{name: "databases in use are kept", force: false, want: []string{"test_old"}},
		{name: "force includes databases in use", force: true, want: []string{"test_old", "test_old_in_use"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(stale(databases, now, time.Hour, tt.force)))
		})
	}
}

func TestDatabase_Age(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 90*time.Minute, Database{CreatedAt: now.Add(-90 * time.Minute)}.Age(now))
	assert.Zero(t, Database{}.Age(now))
}

func TestSweepOptions_Validate(t *testing.T) {
	t.Parallel()

	err := SweepOptions{}.withDefaults().validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Contains(t, err.Error(), "server URL is required")

	err = SweepOptions{ServerURL: "postgres://localhost", Prefix: "Nope"}.withDefaults().validate()
	assert.ErrorIs(t, err, ErrInvalidOptions)

	opts := SweepOptions{ServerURL: "postgres://localhost"}.withDefaults()
	assert.NoError(t, opts.validate())
	assert.Equal(t, NamePrefix, opts.Prefix)
	assert.Equal(t, DefaultSweepAge, opts.OlderThan)
	assert.Nil(t, opts.Now, "the server clock is used unless overridden")
}

func TestSweep_Unreachable(t *testing.T) {
	t.Parallel()

	log, _ := logger.GetTestLogger(t)
	dropped, err := Sweep(context.Background(), SweepOptions{
		ServerURL: buildServerURL("postgres", "", "127.0.0.1", refusedPort(t)),
		Timeout:   time.Second,
		Logger:    log,
	})

	assert.Empty(t, dropped)
	assert.ErrorIs(t, err, ErrConnect)
}
