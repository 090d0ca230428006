package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/store"
)

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	run := store.Run{
		ID:        "R1",
		StartedAt: time.Now(),
		Answers:   []store.Answer{{Query: "P(A)", Result: true}},
		Derived:   []string{"P(A)"},
	}
	require.NoError(t, s.SaveRun(ctx, run))

	got, found, err := s.GetRun(ctx, "R1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, run.Answers, got.Answers)

	// Returned runs are copies.
	got.Answers[0].Result = false
	again, _, _ := s.GetRun(ctx, "R1")
	assert.True(t, again.Answers[0].Result)
}

func TestSaveRejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.SaveRun(ctx, store.Run{StartedAt: time.Now()})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestGetMissing(t *testing.T) {
	_, found, err := New().GetRun(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveWithoutIDIgnored(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SaveRun(ctx, store.Run{}))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()

	for i, id := range []string{"A", "B", "C"} {
		require.NoError(t, s.SaveRun(ctx, store.Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Second)}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "C", runs[0].ID)
	assert.Equal(t, "B", runs[1].ID)
}
