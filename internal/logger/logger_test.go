package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// capture routes output to a buffer for the duration of the test.
func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	log := Named("retriever")
	tests := []struct {
		name    string
		verbose bool
		emit    func()
		want    string
	}{
		{"debug", true, func() { log.Debug("%d chunks", 4) }, "[DEBUG] retriever: 4 chunks\n"},
		{"info", true, func() { log.Info("ready") }, "[INFO] retriever: ready\n"},
		{"warn", true, func() { log.Warn("slow") }, "[WARN] retriever: slow\n"},
		{"error", true, func() { log.Error("failed: %s", "io") }, "[ERROR] retriever: failed: io\n"},
		{"debug quiet", false, func() { log.Debug("hidden") }, ""},
		{"warn quiet", false, func() { log.Warn("hidden") }, ""},
		{"error quiet", false, func() { log.Error("shown") }, "[ERROR] retriever: shown\n"},
		{"package level", true, func() { Info("indexed %d", 2) }, "[INFO] indexed 2\n"},
		{"package error quiet", false, func() { Error("boom") }, "[ERROR] boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.emit()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}

func TestSection(t *testing.T) {
	buf := capture(t, true)
	Section("Question")
	assert.Equal(t, "\n=== Question ===\n", buf.String())

	buf = capture(t, false)
	Section("Question")
	assert.Empty(t, buf.String())
}

func TestTimer(t *testing.T) {
	buf := capture(t, true)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time { return clock }
	t.Cleanup(func() { now = time.Now })

	stop := Named("session").Timer("embed chunks")
	clock = clock.Add(1500 * time.Millisecond)
	stop()

	assert.Equal(t, "[DEBUG] session: embed chunks took 1.5s\n", buf.String())
}

func TestConcurrentLogging(t *testing.T) {
	capture(t, true)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Named("worker").Debug("line %d", i)
			SetVerbose(i%2 == 0)
		}()
	}
	wg.Wait()
}
