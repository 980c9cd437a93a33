package eventlog_test

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alejandrodnm/polyedge/internal/adapters/eventlog"
	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), "cada línea es un objeto JSON")
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestWriter_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	w := eventlog.New(path, eventlog.Options{})

	require.NoError(t, w.Append(domain.NewEvent(domain.ActionRunStart, "r1", 1).With("mode", "paper")))
	require.NoError(t, w.Append(domain.NewEvent(domain.ActionDecision, "r1", 1).WithSlug("btc-100k").With("net_edge", 0.031)))
	require.NoError(t, w.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "run_start", lines[0]["action"])
	assert.Equal(t, "paper", lines[0]["mode"])
	assert.Equal(t, "btc-100k", lines[1]["slug"])
	assert.InDelta(t, 0.031, lines[1]["net_edge"], 1e-12)
}

func TestWriter_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	w1 := eventlog.New(path, eventlog.Options{})
	require.NoError(t, w1.Append(domain.NewEvent(domain.ActionRunStart, "r1", 1)))
	require.NoError(t, w1.Close())

	w2 := eventlog.New(path, eventlog.Options{})
	require.NoError(t, w2.Append(domain.NewEvent(domain.ActionRunStart, "r2", 2)))
	require.NoError(t, w2.Close())

	assert.Len(t, readLines(t, path), 2)
}

func TestWriter_ConcurrentAppendsKeepLinesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	w := eventlog.New(path, eventlog.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Append(domain.NewEvent(domain.ActionEvaluation, "r1", i)))
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close())

	assert.Len(t, readLines(t, path), 50)
}

func TestWriter_RejectsUnencodableFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	w := eventlog.New(path, eventlog.Options{})
	defer w.Close()

	err := w.Append(domain.NewEvent(domain.ActionDecision, "r1", 1).With("improvement_bps", math.Inf(1)))
	assert.Error(t, err)
}
