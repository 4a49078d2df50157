package consolelog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.Local)
}

func TestLogWritesFileAndTerminal(t *testing.T) {
	var file, tty bytes.Buffer
	l := New(Options{File: &file, Term: &tty, TermEnabled: true, Now: fixedNow})

	l.Logf(KindWS, "dial %s", "ws://h:8000/ws")
	l.Log(KindInfo, "   ")

	want := "[2026-03-04 05:06:07.008] [WS] dial ws://h:8000/ws\n"
	if file.String() != want {
		t.Fatalf("file got %q want %q", file.String(), want)
	}
	if tty.String() != want {
		t.Fatalf("terminal got %q want %q", tty.String(), want)
	}
}

func TestLogTerminalDisabled(t *testing.T) {
	var file, tty bytes.Buffer
	l := New(Options{File: &file, Term: &tty, Now: fixedNow})
	l.Func(KindRecv)("line %d", 1)
	if tty.Len() != 0 {
		t.Fatalf("terminal should stay silent, got %q", tty.String())
	}
	if !strings.Contains(file.String(), "[RECV] line 1") {
		t.Fatalf("unexpected file output %q", file.String())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Logf(KindInfo, "x")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".agentconsole", "console.log")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	l := New(Options{File: f, Now: fixedNow})
	l.Log(KindError, "boom")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "[ERROR] boom\n") {
		t.Fatalf("unexpected log %q", data)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("  a\n b\t c ", 80); got != "a b c" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("x", 100)
	got := Preview(long, 40)
	if runewidth.StringWidth(got) > 40 || !strings.HasSuffix(got, "(truncated)") {
		t.Fatalf("got %q", got)
	}
	if got := Preview("任务列表更新", 5); runewidth.StringWidth(got) > 5 {
		t.Fatalf("wide text not truncated: %q", got)
	}
	if Preview("x", 0) != "" {
		t.Fatalf("zero width should be empty")
	}
}
