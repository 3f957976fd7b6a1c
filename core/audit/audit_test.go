package audit

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "decisions.log")
	logger := New(path, true)

	require.NoError(t, logger.Log(Entry{Agent: "market-hunter", Action: ActionDiscovery, Subject: "BTC", Confidence: 0.7}))
	require.NoError(t, logger.Log(Entry{Agent: "strategic-orchestrator", Action: ActionDecision,
		Detail: map[string]interface{}{"regime": "bull"}, DurationMS: 12}))

	entries, err := logger.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "BTC", entries[0].Subject)
	assert.False(t, entries[0].Timestamp.IsZero())
	assert.Equal(t, "bull", entries[1].Detail["regime"])
	assert.Equal(t, int64(12), entries[1].DurationMS)
}

func TestDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")
	logger := New(path, false)

	require.NoError(t, logger.Log(Entry{Agent: "a", Action: "x"}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	var nilLogger *Logger
	assert.NoError(t, nilLogger.Log(Entry{Agent: "a"}))
	assert.False(t, nilLogger.Enabled())
}

func TestReadMissingFile(t *testing.T) {
	logger := New(filepath.Join(t.TempDir(), "none.log"), true)
	entries, err := logger.Read()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")
	content := `{"agent":"a","action":"x"}
not json

{"agent":"b","action":"y"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	entries, err := New(path, true).Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[1].Agent)
}

func TestRecent(t *testing.T) {
	logger := New(filepath.Join(t.TempDir(), "decisions.log"), true)
	for _, agent := range []string{"a", "b", "c"} {
		require.NoError(t, logger.Log(Entry{Agent: agent, Action: "x"}))
	}

	recent, err := logger.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Agent)
	assert.Equal(t, "c", recent[1].Agent)

	all, err := logger.Recent(10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestConcurrentLog(t *testing.T) {
	logger := New(filepath.Join(t.TempDir(), "decisions.log"), true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, logger.Log(Entry{Agent: "a", Action: "x"}))
		}()
	}
	wg.Wait()

	entries, err := logger.Read()
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
