// Package logx is the HAL log integration: a level-limited sink over logrus
// that prints the radar library's fixed line format.
package logx

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

const (
	fieldModule = "module"
	fieldLevel  = "acc_level"
)

// Options configures a Sink.
type Options struct {
	Level types.LogLevel
	Out   io.Writer // nil => stdout

	// File, when set, also writes to a rotating log file.
	File       string
	MaxSizeMB  int
	MaxBackups int

	// Clock and ThreadID stamp each line; normally the OS primitives.
	Clock    func() uint32
	ThreadID func() uint32
}

// Sink is the log block handed to the processing library.
type Sink struct {
	lg     *logrus.Logger
	limit  types.LogLevel
	closer io.Closer
}

func New(o Options) *Sink {
	out := o.Out
	if out == nil {
		out = os.Stdout
	}
	var closer io.Closer
	if o.File != "" {
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
		}
		out = io.MultiWriter(out, lj)
		closer = lj
	}
	lg := logrus.New()
	lg.SetOutput(out)
	// The sink enforces its own limit; logrus sees everything that passes.
	lg.SetLevel(logrus.TraceLevel)
	lg.SetFormatter(&Formatter{Clock: o.Clock, ThreadID: o.ThreadID})
	return &Sink{lg: lg, limit: o.Level, closer: closer}
}

// Limit is the most verbose level that is emitted.
func (s *Sink) Limit() types.LogLevel { return s.limit }

// Log matches the library's log(level, module, message) entry point.
func (s *Sink) Log(level types.LogLevel, module, msg string) {
	if s == nil || level > s.limit {
		return
	}
	s.lg.WithFields(logrus.Fields{
		fieldModule: module,
		fieldLevel:  level,
	}).Log(toLogrus(level), msg)
}

// Module returns a printf-style logger tagged with module.
func (s *Sink) Module(module string) *Logger { return &Logger{s: s, module: module} }

func (s *Sink) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func toLogrus(l types.LogLevel) logrus.Level {
	switch l {
	case types.LogError:
		return logrus.ErrorLevel
	case types.LogWarning:
		return logrus.WarnLevel
	case types.LogInfo:
		return logrus.InfoLevel
	case types.LogVerbose:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// Logger is a module-scoped view of a Sink. A nil *Logger discards.
type Logger struct {
	s      *Sink
	module string
}

func (l *Logger) logf(level types.LogLevel, format string, args ...any) {
	if l == nil || l.s == nil || level > l.s.limit {
		return
	}
	l.s.Log(level, l.module, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any)   { l.logf(types.LogError, format, args...) }
func (l *Logger) Warnf(format string, args ...any)    { l.logf(types.LogWarning, format, args...) }
func (l *Logger) Infof(format string, args ...any)    { l.logf(types.LogInfo, format, args...) }
func (l *Logger) Verbosef(format string, args ...any) { l.logf(types.LogVerbose, format, args...) }
func (l *Logger) Debugf(format string, args ...any)   { l.logf(types.LogDebug, format, args...) }
