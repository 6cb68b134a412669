package archive

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hddwater/bargesim/sim"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordThenGet(t *testing.T) {
	// GIVEN an empty archive
	s := openStore(t)
	ctx := context.Background()
	fleet := sim.Fleet{Tugs: 2, SmallTransport: 4, SmallStorage: 3}

	// WHEN a search result is recorded
	e, err := s.Record(ctx, Entry{
		Kind:   KindSmart,
		Fleet:  fleet,
		Cost:   812345.5,
		Score:  812345.5,
		Tested: 41,
		Detail: json.RawMessage(`{"totalTested":41}`),
	})
	require.NoError(t, err)

	// THEN it gets an id and can be read back whole
	assert.NotEmpty(t, e.ID)
	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, KindSmart, got.Kind)
	assert.Equal(t, fleet, got.Fleet)
	assert.Equal(t, 812345.5, got.Cost)
	assert.Equal(t, 41, got.Tested)
	assert.JSONEq(t, `{"totalTested":41}`, string(got.Detail))
	assert.WithinDuration(t, e.CreatedAt, got.CreatedAt, time.Second)
}

func TestStore_GetUnknownID(t *testing.T) {
	s := openStore(t)

	_, err := s.Get(context.Background(), "missing")

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_ListFiltersByKindNewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	first, err := s.Record(ctx, Entry{Kind: KindRun, Fleet: sim.Fleet{Tugs: 1}})
	require.NoError(t, err)
	_, err = s.Record(ctx, Entry{Kind: KindBruteForce, Fleet: sim.Fleet{Tugs: 2}})
	require.NoError(t, err)
	second, err := s.Record(ctx, Entry{Kind: KindRun, Fleet: sim.Fleet{Tugs: 3}, RanDryCount: 2})
	require.NoError(t, err)

	runs, err := s.List(ctx, KindRun, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, 2, runs[0].RanDryCount)
	assert.Nil(t, runs[0].Detail)

	all, err := s.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_RecordReportAndDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	r := &sim.Report{
		Fleet:       sim.Fleet{Tugs: 1, SmallTransport: 2},
		Costs:       sim.CostBreakdown{GrandTotal: 1000},
		Score:       1001000,
		RanDryCount: 1,
	}

	e, err := s.RecordReport(ctx, "campaign.yaml", r)
	require.NoError(t, err)
	assert.Equal(t, KindRun, e.Kind)
	assert.Equal(t, 1000.0, e.Cost)

	var back sim.Report
	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(got.Detail, &back))
	assert.Equal(t, r.Fleet, back.Fleet)
	assert.Equal(t, "campaign.yaml", got.Project)

	require.NoError(t, s.Delete(ctx, e.ID))
	_, err = s.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), Entry{Kind: KindLocal})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	all, err := s.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isTransient(errors.New("no such table")))
	assert.False(t, isTransient(nil))

	calls := 0
	err := retryOp(retryConfig{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: time.Millisecond}, func() error {
		calls++
		return errors.New("database is locked")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}
