package logging

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFormatEventLine_SortedFields(t *testing.T) {
	event := Event{
		Time:    time.Date(2026, 5, 17, 14, 32, 5, 0, time.UTC),
		Level:   slog.LevelInfo,
		Message: "file processed",
		Fields:  map[string]any{"world": "Sunset Pier", "count": 2},
	}
	line := FormatEventLine(event)
	if !strings.HasPrefix(line, "14:32:05 [INFO] file processed") {
		t.Fatalf("FormatEventLine() prefix = %q", line)
	}
	if !strings.Contains(line, "count=2 world=Sunset Pier") {
		t.Fatalf("FormatEventLine() fields not sorted: %q", line)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("  "); got != "<empty>" {
		t.Fatalf("Truncate(blank) = %q", got)
	}
	long := strings.Repeat("x", clipLimit+10)
	if got := Truncate(long); len(got) != clipLimit+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("Truncate(long) = %d chars", len(got))
	}
	if got := Truncate("a\nb\rc"); got != "a b c" {
		t.Fatalf("Truncate(newlines) = %q", got)
	}
}

func TestLoggerSubscribe(t *testing.T) {
	logger := New(false)
	logger.SetTerminalOutputEnabled(false)

	var seen []Event
	unsubscribe := logger.Subscribe(func(event Event) {
		seen = append(seen, event)
	})

	logger.Info("hello", Field("key", "value"))
	if len(seen) != 1 {
		t.Fatalf("expected 1 event, got %d", len(seen))
	}
	if seen[0].Message != "hello" || seen[0].Fields["key"] != "value" {
		t.Fatalf("unexpected event: %#v", seen[0])
	}

	// Hidden debug events are persisted but not published.
	logger.Debug("quiet")
	if len(seen) != 1 {
		t.Fatalf("debug event published while debug disabled")
	}

	unsubscribe()
	logger.Info("after")
	if len(seen) != 1 {
		t.Fatalf("event delivered after unsubscribe")
	}
}
