package logx

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

func newTestSink(level types.LogLevel) (*Sink, *bytes.Buffer) {
	var buf bytes.Buffer
	s := New(Options{
		Level:    level,
		Out:      &buf,
		Clock:    func() uint32 { return (3600+120+3)*1_000_000 + 4_000 },
		ThreadID: func() uint32 { return 42 },
	})
	return s, &buf
}

func TestLineFormat(t *testing.T) {
	s, buf := newTestSink(types.LogDiagnostics)
	s.Log(types.LogWarning, "board", "sensor 1 already inactive")

	want := "01:02:03.004 [   42] (W) (board): sensor 1 already inactive\n"
	if buf.String() != want {
		t.Fatalf("got %q\nwant %q", buf.String(), want)
	}
}

func TestLevelLimit(t *testing.T) {
	s, buf := newTestSink(types.LogInfo)
	s.Log(types.LogVerbose, "m", "dropped")
	s.Log(types.LogDebug, "m", "dropped")
	s.Log(types.LogError, "m", "kept")
	s.Log(types.LogInfo, "m", "kept too")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "(E) (m): kept") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
}

func TestLevelChars(t *testing.T) {
	s, buf := newTestSink(types.LogDiagnostics)
	for _, lv := range []types.LogLevel{types.LogVerbose, types.LogDebug, types.LogDiagnostics} {
		s.Log(lv, "m", "x")
	}
	got := buf.String()
	for _, tag := range []string{"(V)", "(D)"} {
		if !strings.Contains(got, tag) {
			t.Fatalf("missing %s in %q", tag, got)
		}
	}
}

func TestModuleLogger(t *testing.T) {
	s, buf := newTestSink(types.LogInfo)
	l := s.Module("spi")
	l.Errorf("transfer of %d bytes failed", 16)
	l.Debugf("hidden")

	if !strings.Contains(buf.String(), "(E) (spi): transfer of 16 bytes failed") {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug line passed an info limit")
	}

	var nilLogger *Logger
	nilLogger.Errorf("no panic") // must not panic
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radar.log")
	var buf bytes.Buffer
	s := New(Options{Level: types.LogInfo, Out: &buf, File: path, MaxSizeMB: 1})
	s.Log(types.LogInfo, "board", "hello")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "(I) (board): hello") {
		t.Fatalf("file content %q", b)
	}
}
