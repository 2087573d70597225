package util

import (
	"path/filepath"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"windows": {"rundll32", "url.dll,FileProtocolHandler", "http://localhost:8501"},
		"darwin":  {"open", "http://localhost:8501"},
		"linux":   {"xdg-open", "http://localhost:8501"},
	}
	for goos, want := range cases {
		cmd := browserCommand(goos, "http://localhost:8501")
		if got := filepath.Base(cmd.Args[0]); got != want[0] {
			t.Fatalf("%s: command=%q, want %q", goos, got, want[0])
		}
		if len(cmd.Args) != len(want) || cmd.Args[len(cmd.Args)-1] != want[len(want)-1] {
			t.Fatalf("%s: args=%q, want %q", goos, cmd.Args, want)
		}
	}
}
