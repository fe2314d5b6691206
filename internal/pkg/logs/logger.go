package logs

import (
	"context"
	"encoding/hex"
	"fmt"
	"runtime"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tgifai/eternal/internal/consts"
)

const (
	fieldLogID  = "log_id"
	fieldCaller = "caller"

	// emit, the exported wrapper, then the real call site.
	callerDepth = 2
)

// std is replaced once by Init, before the daemon starts any goroutine.
var std = newLogger(nil, &textFormatter{color: colorizeOutput("stdout")}, logrus.InfoLevel)

type Options struct {
	Level      string
	Format     string
	Output     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Init builds the process logger from opts and routes hertz through it.
func Init(opts Options) error {
	l, err := build(opts)
	if err != nil {
		return err
	}
	std = l
	hlog.SetLogger(&hlogAdapter{})
	return nil
}

func Debug(format string, v ...interface{}) { emit(nil, logrus.DebugLevel, format, v...) }
func Info(format string, v ...interface{})  { emit(nil, logrus.InfoLevel, format, v...) }
func Warn(format string, v ...interface{})  { emit(nil, logrus.WarnLevel, format, v...) }
func Error(format string, v ...interface{}) { emit(nil, logrus.ErrorLevel, format, v...) }

func CtxDebug(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.DebugLevel, format, v...)
}

func CtxInfo(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.InfoLevel, format, v...)
}

func CtxWarn(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.WarnLevel, format, v...)
}

func CtxError(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.ErrorLevel, format, v...)
}

func emit(ctx context.Context, level logrus.Level, format string, v ...interface{}) {
	if !std.IsLevelEnabled(level) {
		return
	}
	data := logrus.Fields{}
	if _, file, line, ok := runtime.Caller(callerDepth); ok {
		data[fieldCaller] = fmt.Sprintf("%s:%d", shortFilePath(file), line)
	}
	if ctx != nil {
		if id := GetLogID(ctx); id != "" {
			data[fieldLogID] = id
		}
		for _, f := range fieldsOf(ctx) {
			data[f.key] = f.value
		}
	}
	std.WithFields(data).Logf(level, format, v...)
}

// NewLogID returns a 16 char hex id, short enough to scan in a terminal.
func NewLogID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:8])
}

func GetLogID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	logID, _ := ctx.Value(consts.CtxKeyLogID).(string)
	return logID
}

func SetLogID(ctx context.Context, logID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, consts.CtxKeyLogID, logID)
}

// WithNewLogID returns ctx tagged with a fresh log id.
func WithNewLogID(ctx context.Context) context.Context {
	return SetLogID(ctx, NewLogID())
}

type fieldsKey struct{}

type field struct {
	key   string
	value interface{}
}

// WithField returns ctx carrying key=value on every Ctx* line logged with
// it. A later value for the same key replaces the earlier one.
func WithField(ctx context.Context, key string, value interface{}) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := fieldsOf(ctx)
	next := make([]field, 0, len(prev)+1)
	for _, f := range prev {
		if f.key != key {
			next = append(next, f)
		}
	}
	next = append(next, field{key: key, value: value})
	return context.WithValue(ctx, fieldsKey{}, next)
}

func fieldsOf(ctx context.Context) []field {
	fs, _ := ctx.Value(fieldsKey{}).([]field)
	return fs
}
