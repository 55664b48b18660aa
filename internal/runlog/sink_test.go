package runlog

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mdkeep/internal/model"
)

func TestLogger_StampsEntries(t *testing.T) {
	mem := NewMemory()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	l := New(mem).WithClock(func() time.Time { return fixed })

	l.Info("hello %s", "world")
	l.Error("bad %d", 500)

	entries := mem.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "hello world", entries[0].Message)
	require.False(t, entries[0].IsError)
	require.Equal(t, model.LogLevelError, entries[1].Level)
	require.True(t, entries[1].IsError)
	require.Equal(t, "2026-01-02T03:04:05.006Z", entries[0].Timestamp())
}

func TestFromContext_DefaultsToDiscard(t *testing.T) {
	require.NotPanics(t, func() {
		FromContext(context.Background()).Error("dropped")
	})

	mem := NewMemory()
	ctx := WithLogger(context.Background(), New(mem))
	FromContext(ctx).Warn("kept")
	require.Len(t, mem.Entries(), 1)
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	var seen []string
	sink := Multi(a, nil, b, SinkFunc(func(e model.LogEntry) { seen = append(seen, e.Message) }))
	New(sink).Success("done")
	require.Len(t, a.Entries(), 1)
	require.Len(t, b.Entries(), 1)
	require.Equal(t, []string{"done"}, seen)

	a.Reset()
	require.Empty(t, a.Entries())
}

func TestConsole_WritesTimestampedLines(t *testing.T) {
	buf := &bytes.Buffer{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l := New(Console(buf)).WithClock(func() time.Time { return fixed })
	l.Info("first")
	l.Error("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "2026-01-02T03:04:05.000Z")
	require.Contains(t, lines[0], "first")
	require.Contains(t, lines[1], "second")
}
