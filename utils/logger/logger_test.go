package logger

import "testing"

func TestNewAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		l, err := New(level)
		if err != nil {
			t.Fatalf("new logger %q: %v", level, err)
		}
		_ = l.Sync()
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
