package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}

func TestInsertRunRoundtrip(t *testing.T) {
	s := newTestStore(t)

	started := time.Now().UTC().Truncate(time.Second)
	id, err := s.InsertRun(&Run{
		StartedAt:      started,
		FileCount:      42,
		FailedCount:    1,
		FindingCount:   7,
		ElapsedMs:      123.5,
		NormalizedMs:   15.4,
		FilesPerSecond: 340.1,
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, id, r.ID)
	assert.WithinDuration(t, started, r.StartedAt, time.Second)
	assert.Equal(t, 42, r.FileCount)
	assert.Equal(t, 1, r.FailedCount)
	assert.Equal(t, 7, r.FindingCount)
	assert.InDelta(t, 123.5, r.ElapsedMs, 0.001)
	assert.InDelta(t, 340.1, r.FilesPerSecond, 0.001)
}

func TestRecentRuns_OrderAndLimit(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		_, err := s.InsertRun(&Run{
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			FileCount: i,
		})
		require.NoError(t, err)
	}

	runs, err := s.RecentRuns(3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 4, runs[0].FileCount)
	assert.Equal(t, 3, runs[1].FileCount)
	assert.Equal(t, 2, runs[2].FileCount)
}

func TestFindingsRoundtrip(t *testing.T) {
	s := newTestStore(t)

	runID, err := s.InsertRun(&Run{StartedAt: time.Now().UTC(), FileCount: 1})
	require.NoError(t, err)

	in := []Finding{
		{Rule: "no-debugger", Severity: "error", File: "a.js", Line: 2, Column: 3,
			Message: "unexpected debugger statement", Help: "remove it"},
		{Rule: "parser", Severity: "error", File: "b.js", Line: 1, Column: 9,
			Message: "syntax error"},
	}
	require.NoError(t, s.InsertFindings(runID, in))

	out, err := s.FindingsByRun(runID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0], *out[0])
	assert.Equal(t, in[1], *out[1])

	// Other runs see nothing.
	other, err := s.FindingsByRun(runID + 1)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestInsertFindings_EmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertFindings(1, nil))
}

func TestRuleStatsRoundtrip(t *testing.T) {
	s := newTestStore(t)

	runID, err := s.InsertRun(&Run{StartedAt: time.Now().UTC(), FileCount: 3})
	require.NoError(t, err)

	in := []RuleStat{
		{Rule: "no-console", FileCount: 2, MatchCount: 5, TotalMs: 1.25, NormalizedMs: 0.15},
		{Rule: "no-debugger", FileCount: 1, MatchCount: 1, TotalMs: 4.5, NormalizedMs: 0.56},
	}
	require.NoError(t, s.InsertRuleStats(runID, in))

	out, err := s.RuleStatsByRun(runID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	// Slowest first.
	assert.Equal(t, "no-debugger", out[0].Rule)
	assert.InDelta(t, 4.5, out[0].TotalMs, 0.001)
	assert.Equal(t, "no-console", out[1].Rule)
	assert.Equal(t, 5, out[1].MatchCount)
}
