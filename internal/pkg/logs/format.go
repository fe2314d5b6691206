package logs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func newLogger(w io.Writer, f logrus.Formatter, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	if w != nil {
		l.SetOutput(w)
	}
	l.SetFormatter(f)
	l.SetLevel(level)
	return l
}

func build(opts Options) (*logrus.Logger, error) {
	output := strings.ToLower(strings.TrimSpace(opts.Output))
	if output == "" {
		output = "stdout"
	}
	w, err := buildWriter(opts, output)
	if err != nil {
		return nil, err
	}

	var f logrus.Formatter = &textFormatter{color: colorizeOutput(output)}
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		f = &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
	}
	return newLogger(w, f, parseLogLevel(opts.Level)), nil
}

func parseLogLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func buildWriter(opts Options, output string) (io.Writer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil
	case "file", "both":
		if strings.TrimSpace(opts.File) == "" {
			return nil, fmt.Errorf("log file is required when output is %s", output)
		}
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log dir failed: %w", err)
			}
		}
		rotate := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    max(opts.MaxSize, 0),
			MaxBackups: max(opts.MaxBackups, 0),
			MaxAge:     max(opts.MaxAge, 0),
			Compress:   opts.Compress,
		}
		if output == "file" {
			return rotate, nil
		}
		return io.MultiWriter(os.Stdout, ansiStripper{rotate}), nil
	default:
		return nil, fmt.Errorf("unsupported log output: %s", output)
	}
}

// textFormatter renders
//
//	LEVEL 2006-01-02 15:04:05,000 dir/file.go:42 <log_id> k=v ... message
//
// where k=v are the context fields in key order.
type textFormatter struct {
	color bool
}

func (f *textFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	level := strings.ToUpper(e.Level.String())
	if f.color {
		level = colorizeLevel(e.Level, level)
	}
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(e.Time.Format("2006-01-02 15:04:05,000"))

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != fieldCaller && k != fieldLogID {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	if caller, ok := e.Data[fieldCaller]; ok {
		fmt.Fprintf(&b, " %v", caller)
	}
	if id, ok := e.Data[fieldLogID]; ok {
		fmt.Fprintf(&b, " %v", id)
	}
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func shortFilePath(fullPath string) string {
	dir, file := filepath.Split(fullPath)
	if dir == "" {
		return file
	}
	return filepath.Base(filepath.Clean(dir)) + "/" + file
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// ansiStripper keeps colour codes out of the rotated file when stdout is
// coloured.
type ansiStripper struct {
	w io.Writer
}

func (s ansiStripper) Write(p []byte) (int, error) {
	if _, err := s.w.Write(ansiPattern.ReplaceAll(p, nil)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func colorizeOutput(output string) bool {
	return output != "file" && !color.NoColor
}

var (
	colorDebug = color.New(color.FgCyan)
	colorInfo  = color.New(color.FgGreen)
	colorWarn  = color.New(color.FgYellow)
	colorError = color.New(color.FgRed)
)

func colorizeLevel(level logrus.Level, text string) string {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return colorDebug.Sprint(text)
	case logrus.InfoLevel:
		return colorInfo.Sprint(text)
	case logrus.WarnLevel:
		return colorWarn.Sprint(text)
	default:
		return colorError.Sprint(text)
	}
}
