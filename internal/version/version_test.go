package version

import (
	"testing"
)

func setBuildInfo(t *testing.T, version, commit, buildTime string) {
	t.Helper()

	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	t.Cleanup(func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	})

	Version, Commit, BuildTime = version, commit, buildTime
}

func TestString(t *testing.T) {
	setBuildInfo(t, "1.2.3", "abc1234", "2024-01-15T10:00:00Z")

	expected := "1.2.3 (abc1234) built 2024-01-15T10:00:00Z"
	if result := String(); result != expected {
		t.Errorf("String() = %q, want %q", result, expected)
	}
}

func TestLogAttrs(t *testing.T) {
	setBuildInfo(t, "1.2.3", "abc1234", "2024-01-15T10:00:00Z")

	attr := LogAttrs()
	if attr.Key != "build" {
		t.Errorf("Key = %q, want %q", attr.Key, "build")
	}

	group := attr.Value.Group()
	if len(group) != 3 {
		t.Fatalf("group has %d attrs, want 3", len(group))
	}
	if group[0].Value.String() != "1.2.3" {
		t.Errorf("version = %q, want %q", group[0].Value.String(), "1.2.3")
	}
	if group[1].Value.String() != "abc1234" {
		t.Errorf("commit = %q, want %q", group[1].Value.String(), "abc1234")
	}
}

func TestDefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
}
