package version

import "testing"

func TestString(t *testing.T) {
	defer func(v, s, b string) { Version, GitSHA, BuildTime = v, s, b }(Version, GitSHA, BuildTime)

	if got, want := String(), "dev (unknown, built unknown)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	Version, GitSHA, BuildTime = "1.2.0", "0123456789abcdef", "2026-03-01"
	if got, want := String(), "1.2.0 (0123456789ab, built 2026-03-01)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
