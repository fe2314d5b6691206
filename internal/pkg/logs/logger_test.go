package logs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
)

func useLogger(t *testing.T, l *logrus.Logger) {
	t.Helper()
	prev := std
	std = l
	t.Cleanup(func() { std = prev })
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		" WARN ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogIDRoundTrip(t *testing.T) {
	id := NewLogID()
	if len(id) != 16 {
		t.Fatalf("expected 16 char log id, got %q", id)
	}
	ctx := SetLogID(context.Background(), id)
	if got := GetLogID(ctx); got != id {
		t.Fatalf("got %q, want %q", got, id)
	}
	if got := GetLogID(context.Background()); got != "" {
		t.Fatalf("expected empty log id, got %q", got)
	}
	if GetLogID(WithNewLogID(ctx)) == id {
		t.Fatal("expected a fresh log id")
	}
}

func TestWithFieldReplacesKey(t *testing.T) {
	ctx := WithField(context.Background(), "pass", 1)
	ctx = WithField(ctx, "mission", "fun-a")
	child := WithField(ctx, "pass", 2)

	got := fieldsOf(child)
	if len(got) != 2 || got[0].key != "mission" || got[1].value != 2 {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if fieldsOf(ctx)[0].value != 1 {
		t.Fatal("parent context must keep its own fields")
	}
}

func TestTextLineCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	useLogger(t, newLogger(&buf, &textFormatter{}, logrus.DebugLevel))

	ctx := SetLogID(context.Background(), "abc123")
	ctx = WithField(WithField(ctx, "pass", 3), "mission", "fun-1")
	CtxInfo(ctx, "[test] hello %s", "world")

	line := buf.String()
	for _, want := range []string{"INFO ", "logs/logger_test.go:", " abc123 mission=fun-1 pass=3 [test] hello world\n"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}

func TestLevelFiltersLines(t *testing.T) {
	var buf bytes.Buffer
	useLogger(t, newLogger(&buf, &textFormatter{}, logrus.WarnLevel))

	Info("dropped")
	Warn("kept %d", 1)
	if got := buf.String(); strings.Contains(got, "dropped") || !strings.Contains(got, "kept 1") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestJSONFormatKeepsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eternal.json.log")
	l, err := build(Options{Format: "json", Output: "file", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	useLogger(t, l)

	CtxWarn(WithField(SetLogID(context.Background(), "feed"), "session", "s-1"), "slow reply")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	if entry["log_id"] != "feed" || entry["session"] != "s-1" || entry["msg"] != "slow reply" || entry["level"] != "warning" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestFileOutputIsPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "eternal.log")
	l, err := build(Options{Level: "debug", Output: "file", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", l.GetLevel())
	}
	useLogger(t, l)

	Debug("[test] plain")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(raw), "\x1b[") || !strings.Contains(string(raw), "[test] plain") {
		t.Fatalf("unexpected file line: %q", raw)
	}
}

func TestBuildRejectsBadOutput(t *testing.T) {
	if _, err := build(Options{Output: "syslog"}); err == nil {
		t.Fatal("expected error for unsupported output")
	}
	if _, err := build(Options{Output: "both"}); err == nil {
		t.Fatal("expected error when file path is missing")
	}
}

func TestANSIStripper(t *testing.T) {
	var buf bytes.Buffer
	in := []byte("\x1b[32mINFO\x1b[0m done")
	n, err := ansiStripper{&buf}.Write(in)
	if err != nil || n != len(in) {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if buf.String() != "INFO done" {
		t.Fatalf("got %q", buf.String())
	}
}
