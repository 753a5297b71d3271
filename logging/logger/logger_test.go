package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ncobase/pubsub/bus"
	"github.com/ncobase/pubsub/ctxutil"
	"github.com/ncobase/pubsub/logging/logger/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()

	l := NewLogger()
	_, err := l.Init(&config.Config{Level: int(logrus.DebugLevel), Format: "json"})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	return l, buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_TraceAndVersionFields(t *testing.T) {
	l, buf := newJSONLogger(t)
	l.SetVersion("1.2.3")

	ctx := ctxutil.SetTraceID(context.Background(), "trace-1")
	l.Infof(ctx, "hello %s", "bus")

	entry := decode(t, buf)
	assert.Equal(t, "hello bus", entry["msg"])
	assert.Equal(t, "trace-1", entry[traceKey])
	assert.Equal(t, "1.2.3", entry[VersionKey])
	assert.Equal(t, "info", entry["level"])
}

func TestLogger_LevelFilter(t *testing.T) {
	l := NewLogger()
	_, err := l.Init(&config.Config{Level: int(logrus.WarnLevel), Format: "json"})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	l.SetOutput(buf)

	l.Info(context.Background(), "dropped")
	assert.Zero(t, buf.Len())

	l.Warn(context.Background(), "kept")
	assert.Equal(t, "kept", decode(t, buf)["msg"])
}

func TestLogger_RecoverHandler(t *testing.T) {
	l, buf := newJSONLogger(t)

	b := bus.New(bus.WithRecoverHandler(l.RecoverHandler()))
	id := b.Subscribe("order.created", func(any) { panic("boom") })
	b.Broadcast("order.created", 1)
	b.Wait()

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "order.created", entry[EventKey])
	assert.Equal(t, id, entry[SubscriberKey])
	assert.Equal(t, "panic in event handler: boom", entry["msg"])
}

func TestLogger_FileOutput(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger()

	cleanup, err := l.Init(&config.Config{
		Level:      int(logrus.InfoLevel),
		Format:     "text",
		Output:     "file",
		OutputFile: filepath.Join(dir, "logs", "bus.log"),
	})
	require.NoError(t, err)

	l.Info(context.Background(), "to file")
	cleanup()
	assert.Equal(t, os.Stderr, l.Out)
	cleanup()

	matches, err := filepath.Glob(filepath.Join(dir, "logs", "bus.*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestLogger_PeriodicRotation(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger()
	l.logPath = filepath.Join(dir, "bus.log")
	require.NoError(t, l.setupLogFile())

	l.mu.Lock()
	first := l.logFile
	l.mu.Unlock()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		l.periodicLogRotation(stop, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.logFile != first
	}, time.Second, 5*time.Millisecond)

	close(stop)
	<-done

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Equal(t, l.logFile, l.Out)
	require.NoError(t, l.logFile.Close())
}

func TestLogger_FileOutputRequiresPath(t *testing.T) {
	_, err := NewLogger().Init(&config.Config{Output: "file"})
	assert.Error(t, err)
}
