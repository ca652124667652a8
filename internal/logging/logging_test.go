package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	quiet, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error = %v", err)
	}
	if quiet.Core().Enabled(zapcore.DebugLevel) {
		t.Error("non-verbose logger has debug enabled")
	}
	if !quiet.Core().Enabled(zapcore.InfoLevel) {
		t.Error("non-verbose logger has info disabled")
	}

	verbose, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	if !verbose.Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose logger has debug disabled")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) = nil")
	}
	l, _ := New(false)
	if OrNop(l) != l {
		t.Error("OrNop(l) did not return l")
	}
}
