package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	quiet, err := New(false)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if quiet.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug enabled without verbose")
	}

	loud, err := New(true)
	if err != nil {
		t.Fatalf("new verbose: %v", err)
	}
	if !loud.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug disabled with verbose")
	}
}
