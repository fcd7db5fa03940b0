package version

import (
	"strings"
	"testing"
)

// withVersionVars temporarily sets the ldflags variables and restores them
// after the test.
func withVersionVars(t *testing.T, v, commit, date string, fn func()) {
	t.Helper()
	origVersion, origCommit, origDate := version, gitCommit, buildDate
	defer func() {
		version, gitCommit, buildDate = origVersion, origCommit, origDate
	}()
	version, gitCommit, buildDate = v, commit, date
	fn()
}

func TestCurrentNeverEmpty(t *testing.T) {
	if Current().Version == "" {
		t.Error("Current().Version is empty")
	}
}

func TestCurrentPrefersLdflags(t *testing.T) {
	withVersionVars(t, "1.2.3", "abc123", "2024-01-01", func() {
		info := Current()
		if info.Version != "1.2.3" {
			t.Errorf("Version = %q, want 1.2.3", info.Version)
		}
		if info.Commit != "abc123" {
			t.Errorf("Commit = %q, want abc123", info.Commit)
		}
		if info.BuildDate != "2024-01-01" {
			t.Errorf("BuildDate = %q, want 2024-01-01", info.BuildDate)
		}
		if info.Dirty {
			t.Error("ldflags builds must not report dirty")
		}
	})
}

func TestString(t *testing.T) {
	withVersionVars(t, "2.0.0", "def456", "2024-06-15", func() {
		out := Current().String()
		if !strings.HasPrefix(out, "adminagent version 2.0.0") {
			t.Errorf("String() = %q, want adminagent version prefix", out)
		}
		for _, want := range []string{"commit: def456", "built: 2024-06-15"} {
			if !strings.Contains(out, want) {
				t.Errorf("String() missing %q: %s", want, out)
			}
		}
	})
}

func TestStringOmitsUnknownFields(t *testing.T) {
	out := Info{Version: "dev"}.String()
	if out != "adminagent version dev" {
		t.Errorf("String() = %q, want bare version line", out)
	}
}

func TestLogAttrs(t *testing.T) {
	attrs := Info{Version: "1.0.0", Commit: "abc123", BuildDate: "2024-01-01", Dirty: true}.LogAttrs()
	attrMap := make(map[string]any)
	for i := 0; i < len(attrs); i += 2 {
		attrMap[attrs[i].(string)] = attrs[i+1]
	}

	expected := map[string]any{
		"version": "1.0.0",
		"commit":  "abc123",
		"built":   "2024-01-01",
		"dirty":   true,
	}
	for k, want := range expected {
		if got := attrMap[k]; got != want {
			t.Errorf("%s = %v, want %v", k, got, want)
		}
	}
}

func TestLogAttrsVersionFirst(t *testing.T) {
	attrs := Info{Version: "dev"}.LogAttrs()
	if len(attrs) < 2 || attrs[0] != "version" {
		t.Errorf("LogAttrs() = %v, want version key first", attrs)
	}
}
