package domain

import (
	"errors"
	"testing"
)

func TestNewBuild(t *testing.T) {
	build := NewBuild(BuildKindRun, "hello.fc1", TargetRust, `print("hi")--`)

	if build.ID.String() == "" {
		t.Error("Build ID should not be empty")
	}

	if build.Status != BuildStatusPending {
		t.Errorf("Expected status %s, got %s", BuildStatusPending, build.Status)
	}

	if build.SourceHash != HashSource(`print("hi")--`) {
		t.Errorf("Expected source hash of the script, got %s", build.SourceHash)
	}

	if len(build.SourceHash) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(build.SourceHash))
	}

	if build.IsTerminal() {
		t.Error("New build should not be terminal")
	}
}

func TestNewBuild_UniqueIDs(t *testing.T) {
	a := NewBuild(BuildKindBuild, "a.fc1", TargetGo, "")
	b := NewBuild(BuildKindBuild, "a.fc1", TargetGo, "")

	if a.ID == b.ID {
		t.Error("Expected distinct build IDs")
	}
}

func TestBuildFinish(t *testing.T) {
	build := NewBuild(BuildKindBuild, "a.fc1", TargetRust, "")

	build.Finish(BuildStatusCompileFailed, errors.New("rustc exited with status 1"))

	if build.Status != BuildStatusCompileFailed {
		t.Errorf("Expected status %s, got %s", BuildStatusCompileFailed, build.Status)
	}

	if build.CompletedAt == nil {
		t.Error("CompletedAt should not be nil")
	}

	if build.Error != "rustc exited with status 1" {
		t.Errorf("Expected error message to be recorded, got %q", build.Error)
	}

	if !build.Failed() {
		t.Error("Compile failure should count as failed")
	}
}

func TestBuildMarkExited(t *testing.T) {
	tests := []struct {
		code       int
		wantStatus BuildStatus
		wantFailed bool
	}{
		{0, BuildStatusSucceeded, false},
		{1, BuildStatusRunFailed, true},
		{101, BuildStatusRunFailed, true},
	}

	for _, tt := range tests {
		build := NewBuild(BuildKindRun, "a.fc1", TargetRust, "")
		build.MarkExited(tt.code)

		if build.Status != tt.wantStatus {
			t.Errorf("code %d: expected status %s, got %s", tt.code, tt.wantStatus, build.Status)
		}
		if build.ExitCode != tt.code {
			t.Errorf("code %d: exit code not recorded, got %d", tt.code, build.ExitCode)
		}
		if build.Failed() != tt.wantFailed {
			t.Errorf("code %d: Failed() = %v", tt.code, build.Failed())
		}
	}
}

func TestBuildSucceededIsNotFailed(t *testing.T) {
	build := NewBuild(BuildKindBuild, "a.fc1", TargetGo, "")
	build.Finish(BuildStatusBuilt, nil)

	if build.Failed() {
		t.Error("Built should not count as failed")
	}

	if build.Error != "" {
		t.Errorf("Expected no error, got %q", build.Error)
	}
}

func TestBuild_RanAndPlatform(t *testing.T) {
	tests := []struct {
		name     string
		kind     BuildKind
		status   BuildStatus
		sandbox  bool
		ran      bool
		platform string
	}{
		{"run succeeded", BuildKindRun, BuildStatusSucceeded, false, true, "rust"},
		{"run exited non-zero", BuildKindRun, BuildStatusRunFailed, true, true, "rust/wasm"},
		{"run failed to compile", BuildKindRun, BuildStatusCompileFailed, false, false, "rust"},
		{"plain build", BuildKindBuild, BuildStatusBuilt, true, false, "rust/wasm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuild(tt.kind, "x.fc1", TargetRust, "")
			b.Status = tt.status
			b.Sandbox = tt.sandbox
			if got := b.Ran(); got != tt.ran {
				t.Errorf("Ran() = %v, want %v", got, tt.ran)
			}
			if got := b.Platform(); got != tt.platform {
				t.Errorf("Platform() = %q, want %q", got, tt.platform)
			}
		})
	}
}
