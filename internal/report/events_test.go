package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, minLevel EventLevel) *EventLogger {
	t.Helper()
	logger, err := NewEventLogger(t.TempDir(), minLevel)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger
}

// readEvents closes the logger and decodes every line of its file
func readEvents(t *testing.T, logger *EventLogger) []Event {
	t.Helper()
	logger.Close()

	file, err := os.Open(logger.Path())
	require.NoError(t, err)
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e), "line %q", scanner.Text())
		events = append(events, e)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestNewEventLogger(t *testing.T) {
	logger := newTestLogger(t, LevelDebug)

	require.NotEmpty(t, logger.Path())
	_, err := os.Stat(logger.Path())
	assert.NoError(t, err)

	filename := filepath.Base(logger.Path())
	assert.Regexp(t, `^events-\d{8}-\d{6}\.jsonl$`, filename)
}

func TestEventLogger_Log(t *testing.T) {
	logger := newTestLogger(t, LevelDebug)

	require.NoError(t, logger.Log(&Event{
		Level:   LevelInfo,
		Event:   EventCompany,
		Role:    "developer",
		Company: "Valve",
		Rank:    1,
	}))

	events := readEvents(t, logger)
	require.Len(t, events, 1)
	assert.Equal(t, "Valve", events[0].Company)
	assert.Equal(t, 1, events[0].Rank)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.WithinDuration(t, time.Now(), events[0].Timestamp, 5*time.Second)
}

func TestEventLogger_RunID(t *testing.T) {
	logger := newTestLogger(t, LevelDebug)

	require.NoError(t, logger.LogRun("start", 0))
	logger.SetRunID("run-1")
	require.NoError(t, logger.LogRun("done", 1500*time.Millisecond))

	events := readEvents(t, logger)
	require.Len(t, events, 2)
	assert.Empty(t, events[0].RunID)
	assert.Equal(t, "run-1", events[1].RunID)
	assert.Equal(t, int64(1500), events[1].Duration)
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	logger := newTestLogger(t, LevelDebug)

	const numGoroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				assert.NoError(t, logger.LogSkip(EventDerive, int64(id*100+j), "no ratings"))
			}
		}(i)
	}
	wg.Wait()

	events := readEvents(t, logger)
	assert.Len(t, events, numGoroutines*eventsPerGoroutine)
}

func TestEventLogger_Helpers(t *testing.T) {
	logger := newTestLogger(t, LevelDebug)

	require.NoError(t, logger.LogLoad("listings", "data/steam.csv", 27075, 20*time.Millisecond))
	require.NoError(t, logger.LogMerge(100, 90, 80))
	require.NoError(t, logger.LogDerive(78, 2, time.Second))
	require.NoError(t, logger.LogCompany("publisher", "Quiet Co", 0, 0, "excluded"))
	require.NoError(t, logger.LogTrend("Indie", 0.12, 2008, 2016))
	require.NoError(t, logger.LogGPU(" 970", 5000, 9, 70))
	require.NoError(t, logger.LogError(EventDerive, 42, errors.New("bad owners")))

	events := readEvents(t, logger)
	require.Len(t, events, 7)

	assert.Equal(t, EventLoad, events[0].Event)
	assert.Equal(t, "27075", events[0].Extra["rows"])

	assert.Equal(t, LevelWarning, events[1].Level)
	assert.Equal(t, "80", events[1].Extra["after_requirement"])

	assert.Equal(t, "2", events[2].Extra["excluded"])

	assert.Equal(t, LevelWarning, events[3].Level)
	assert.Equal(t, "excluded", events[3].Reason)

	assert.Equal(t, "Indie", events[4].Label)
	assert.Equal(t, "2016", events[4].Extra["max_year"])

	assert.Equal(t, int64(5000), events[5].Owners)

	assert.Equal(t, EventDerive, events[6].Event)
	assert.Equal(t, LevelError, events[6].Level)
	assert.Equal(t, int64(42), events[6].AppID)
	assert.Equal(t, "bad owners", events[6].Error)
}

func TestEventLogger_NullLogger(t *testing.T) {
	logger := NullLogger()

	assert.NoError(t, logger.Log(&Event{Level: LevelInfo, Event: EventRun}))
	assert.NoError(t, logger.LogSkip(EventDerive, 1, "no ratings"))
	assert.NoError(t, logger.LogError(EventScore, 0, errors.New("boom")))
	assert.NoError(t, logger.LogCompany("developer", "x", 1, 0.1, ""))
	logger.SetRunID("ignored")
	assert.NoError(t, logger.Close())
	assert.Empty(t, logger.Path())
}

func TestEventLogger_LogLevelFiltering(t *testing.T) {
	all := []Event{
		{Level: LevelDebug, Event: EventGPU},
		{Level: LevelInfo, Event: EventLoad},
		{Level: LevelWarning, Event: EventCompany},
		{Level: LevelError, Event: EventError},
	}

	testCases := []struct {
		name     string
		minLevel EventLevel
		want     int
	}{
		{"LevelDebug logs all", LevelDebug, 4},
		{"LevelInfo skips debug", LevelInfo, 3},
		{"LevelWarning skips debug and info", LevelWarning, 2},
		{"LevelError only logs errors", LevelError, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger := newTestLogger(t, tc.minLevel)
			for _, e := range all {
				e := e
				require.NoError(t, logger.Log(&e))
			}
			assert.Len(t, readEvents(t, logger), tc.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelWarning, ParseLevel("warning"))
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
}
