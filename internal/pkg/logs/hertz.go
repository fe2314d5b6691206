package logs

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/sirupsen/logrus"
)

// hlogAdapter routes hertz's internal logging into the process logger, so
// request lines carry the log id set by the server middleware.
type hlogAdapter struct{}

var _ hlog.FullLogger = (*hlogAdapter)(nil)

func (hlogAdapter) Trace(v ...interface{})  { emit(nil, logrus.DebugLevel, "%s", fmt.Sprint(v...)) }
func (hlogAdapter) Debug(v ...interface{})  { emit(nil, logrus.DebugLevel, "%s", fmt.Sprint(v...)) }
func (hlogAdapter) Info(v ...interface{})   { emit(nil, logrus.InfoLevel, "%s", fmt.Sprint(v...)) }
func (hlogAdapter) Notice(v ...interface{}) { emit(nil, logrus.InfoLevel, "%s", fmt.Sprint(v...)) }
func (hlogAdapter) Warn(v ...interface{})   { emit(nil, logrus.WarnLevel, "%s", fmt.Sprint(v...)) }
func (hlogAdapter) Error(v ...interface{})  { emit(nil, logrus.ErrorLevel, "%s", fmt.Sprint(v...)) }
func (hlogAdapter) Fatal(v ...interface{}) {
	emit(nil, logrus.FatalLevel, "%s", fmt.Sprint(v...))
	std.Exit(1)
}

func (hlogAdapter) Tracef(format string, v ...interface{})  { emit(nil, logrus.DebugLevel, format, v...) }
func (hlogAdapter) Debugf(format string, v ...interface{})  { emit(nil, logrus.DebugLevel, format, v...) }
func (hlogAdapter) Infof(format string, v ...interface{})   { emit(nil, logrus.InfoLevel, format, v...) }
func (hlogAdapter) Noticef(format string, v ...interface{}) { emit(nil, logrus.InfoLevel, format, v...) }
func (hlogAdapter) Warnf(format string, v ...interface{})   { emit(nil, logrus.WarnLevel, format, v...) }
func (hlogAdapter) Errorf(format string, v ...interface{})  { emit(nil, logrus.ErrorLevel, format, v...) }
func (hlogAdapter) Fatalf(format string, v ...interface{}) {
	emit(nil, logrus.FatalLevel, format, v...)
	std.Exit(1)
}

func (hlogAdapter) CtxTracef(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.DebugLevel, format, v...)
}
func (hlogAdapter) CtxDebugf(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.DebugLevel, format, v...)
}
func (hlogAdapter) CtxInfof(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.InfoLevel, format, v...)
}
func (hlogAdapter) CtxNoticef(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.InfoLevel, format, v...)
}
func (hlogAdapter) CtxWarnf(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.WarnLevel, format, v...)
}
func (hlogAdapter) CtxErrorf(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.ErrorLevel, format, v...)
}
func (hlogAdapter) CtxFatalf(ctx context.Context, format string, v ...interface{}) {
	emit(ctx, logrus.FatalLevel, format, v...)
	std.Exit(1)
}

func (hlogAdapter) SetLevel(level hlog.Level) {
	switch level {
	case hlog.LevelTrace, hlog.LevelDebug:
		std.SetLevel(logrus.DebugLevel)
	case hlog.LevelInfo, hlog.LevelNotice:
		std.SetLevel(logrus.InfoLevel)
	case hlog.LevelWarn:
		std.SetLevel(logrus.WarnLevel)
	default:
		std.SetLevel(logrus.ErrorLevel)
	}
}

// SetOutput is a no-op, output belongs to Init.
func (hlogAdapter) SetOutput(io.Writer) {}
