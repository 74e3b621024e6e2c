package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	l, err := New("debug", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug should be enabled")
	}

	l, err = New("", true)
	if err != nil {
		t.Fatalf("New dev: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) || !l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("default level should be info")
	}

	if _, err := New("chatty", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
