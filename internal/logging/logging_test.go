package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf, Enabled: true})

	l.Info("hidden")
	l.Warn("shown", "clip", "walk")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "clip=walk") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestDisabledLoggerDiscards(t *testing.T) {
	l := New(Config{Enabled: false})
	l.Error("nothing")
}

func TestGlobalInit(t *testing.T) {
	t.Cleanup(func() { SetGlobal(nil) })

	var buf bytes.Buffer
	Init(LevelDebug, &buf)
	Debug("cache hit", "clip", "run")

	if !strings.Contains(buf.String(), "cache hit") {
		t.Errorf("global debug message missing: %q", buf.String())
	}

	SetGlobal(nil)
	if Global() == nil {
		t.Error("Global() should recreate a default logger")
	}
}

func TestSetup(t *testing.T) {
	l, err := Setup(t.TempDir(), true, false)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer func() { _ = l.Close() }()

	l.Debug("debug line")
	data, err := os.ReadFile(l.FilePath())
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "looper starting") || !strings.Contains(string(data), "debug line") {
		t.Errorf("log file content = %q", data)
	}
}

func TestSetupDisabled(t *testing.T) {
	l, err := Setup(t.TempDir(), false, true)
	if err != nil || l != nil {
		t.Fatalf("Setup(noLog) = %v, %v, want nil, nil", l, err)
	}
	if l.FilePath() != "" || l.Close() != nil {
		t.Error("nil logger helpers should be no-ops")
	}
	if l.Writer() == nil {
		t.Error("nil logger Writer() should return io.Discard")
	}
}

func TestForClipTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf, Enabled: true})

	l.ForClip("walk").Info("loop search finished", "success", true)
	l.ForClip("").Info("untagged")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "clip=walk") || !strings.Contains(lines[0], "success=true") {
		t.Errorf("tagged line = %q", lines[0])
	}
	if strings.Contains(lines[1], "clip=") {
		t.Errorf("empty clip name should not tag: %q", lines[1])
	}
}

func TestForClipKeepsFilePath(t *testing.T) {
	l, err := Setup(t.TempDir(), false, false)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer func() { _ = l.Close() }()

	clipLogger := l.ForClip("run")
	if clipLogger.FilePath() != l.FilePath() {
		t.Errorf("FilePath() = %q, want %q", clipLogger.FilePath(), l.FilePath())
	}
	if err := clipLogger.Close(); err != nil {
		t.Errorf("derived Close() error = %v", err)
	}

	clipLogger.Info("after derived close")
	data, err := os.ReadFile(l.FilePath())
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "after derived close") || !strings.Contains(string(data), "clip=run") {
		t.Errorf("log file content = %q", data)
	}
}
