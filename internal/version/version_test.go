package version

import (
	"strings"
	"testing"
)

func TestShortCommit(t *testing.T) {
	t.Parallel()

	if got := shortCommit("abc"); got != "abc" {
		t.Fatalf("short commit: got %q", got)
	}
	if got := shortCommit("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("long commit: got %q", got)
	}
}

func TestStringNeverEmpty(t *testing.T) {
	t.Parallel()

	s := String()
	if s == "" {
		t.Fatal("empty version string")
	}
	if info := Resolve(); !strings.HasPrefix(s, info.Version) {
		t.Fatalf("String %q does not start with version %q", s, info.Version)
	}
}
