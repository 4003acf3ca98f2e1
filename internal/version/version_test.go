package version

import (
	"strings"
	"testing"
)

func TestInfoUsesBuildTimeValues(t *testing.T) {
	// Pin the ldflags-style values before the first access so the lazy
	// git fallback never runs.
	Version = "1.2.3"
	Commit = "abc1234"
	Date = "2024-06-01"

	info := Info()
	for _, want := range []string{"cursor-usage-tui", "1.2.3", "abc1234", "2024-06-01"} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() = %q, missing %q", info, want)
		}
	}

	if Short() != "1.2.3" {
		t.Errorf("Short() = %q", Short())
	}
	if CommitHash() != "abc1234" {
		t.Errorf("CommitHash() = %q", CommitHash())
	}
	if BuildDate() != "2024-06-01" {
		t.Errorf("BuildDate() = %q", BuildDate())
	}
}
