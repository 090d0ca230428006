package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/store"
	"github.com/cognicore/horn/pkg/horn/store/memstore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	inputsDir  = filepath.Join("..", "..", "..", "testdata", "inputs")
	outputsDir = filepath.Join("..", "..", "..", "testdata", "outputs")
)

func TestDiscoverOrdersByNumber(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"input_10.txt", "input_2.txt", "notes.txt", ".input_3.txt", "input_x.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("0\n0\n"), 0644))
	}

	cases, err := Discover(dir, "expected")
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, 2, cases[0].N)
	assert.Equal(t, 10, cases[1].N)
	assert.Equal(t, filepath.Join("expected", "output_10.txt"), cases[1].Expected)
}

func TestRunFixtures(t *testing.T) {
	cases, err := Discover(inputsDir, outputsDir)
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	st := memstore.New()
	outDir := t.TempDir()
	r := &Runner{Workers: 2, Store: st, OutputDir: outDir}

	outcomes, err := r.Run(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, outcomes, len(cases))

	for _, o := range outcomes {
		assert.NoError(t, o.Err, "case %d", o.N)
		assert.True(t, o.Passed, "case %d: got %v, want %v", o.N, o.Answers, o.Expected)
		assert.NotEmpty(t, o.RunID)
	}
	assert.Equal(t, len(cases), Passed(outcomes))

	// Generated files match the expected ones byte for byte.
	for _, c := range cases {
		got, err := os.ReadFile(filepath.Join(outDir, filepath.Base(c.Expected)))
		require.NoError(t, err)
		want, err := os.ReadFile(c.Expected)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), "case %d", c.N)
	}

	runs, err := st.ListRuns(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, runs, len(cases))
}

func TestRunReportsCaseFailures(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	write := func(dir, name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write(in, "input_1.txt", "1\nFlies(Tweety)\n1\nFlies(Tweety)\n")
	write(out, "output_1.txt", "FALSE\n") // wrong on purpose
	write(in, "input_2.txt", "1\nFlies(Tweety\n0\n")
	write(in, "input_3.txt", "1\nFlies(Tweety)\n0\n") // no expected output

	cases, err := Discover(in, out)
	require.NoError(t, err)

	outcomes, err := (&Runner{}).Run(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.NoError(t, outcomes[0].Err)
	assert.False(t, outcomes[0].Passed)
	assert.Equal(t, []bool{true}, outcomes[0].Answers)

	assert.Error(t, outcomes[1].Err)
	assert.False(t, outcomes[1].Passed)

	assert.Error(t, outcomes[2].Err)
	assert.Equal(t, []bool{false}, outcomes[2].Answers)

	results := filepath.Join(t.TempDir(), "test-results")
	require.NoError(t, WriteResults(results, outcomes, "\r\n"))
	data, err := os.ReadFile(results)
	require.NoError(t, err)
	assert.Equal(t, "Test 1 : FAILED\r\nTest 2 : FAILED\r\nTest 3 : FAILED\r\n", string(data))
}

type brokenStore struct{ store.Store }

func (brokenStore) SaveRun(context.Context, store.Run) error { return errors.New("database is locked") }

func TestRunKeepsAnswersWhenStoreFails(t *testing.T) {
	cases, err := Discover(inputsDir, outputsDir)
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	outDir := t.TempDir()
	r := &Runner{Workers: 2, Store: brokenStore{memstore.New()}, OutputDir: outDir}

	outcomes, err := r.Run(context.Background(), cases)
	require.NoError(t, err)

	for _, o := range outcomes {
		assert.NoError(t, o.Err, "case %d", o.N)
		assert.ErrorIs(t, o.StoreErr, internalerr.ErrStoreUnavailable, "case %d", o.N)
		assert.True(t, o.Passed, "case %d: got %v, want %v", o.N, o.Answers, o.Expected)
		assert.FileExists(t, filepath.Join(outDir, filepath.Base(o.Case.Expected)))
	}
	assert.Equal(t, len(cases), Passed(outcomes))
}

func TestRunCancelled(t *testing.T) {
	cases, err := Discover(inputsDir, outputsDir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = (&Runner{Workers: 1}).Run(ctx, cases)
	assert.ErrorIs(t, err, context.Canceled)
}
