// Package log is the logging facade used throughout arctile. It keeps the
// Debugf/Infof/Warnf/Errorf call surface stable while routing everything
// through a single logrus logger.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

var std = logrus.New()

func init() {
	std.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Level names accepted by SetLogLevel.
const (
	TRACE = "trace"
	DEBUG = "debug"
	INFO  = "info"
	WARN  = "warn"
	ERROR = "error"
)

// SetLogLevel sets the minimum level that will be emitted. Unknown names
// leave the level unchanged.
func SetLogLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		std.Warnf("unknown log level %q", name)
		return
	}
	std.SetLevel(lvl)
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) { std.SetOutput(w) }

func Debug(args ...interface{})                 { std.Debug(args...) }
func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }
func Info(args ...interface{})                  { std.Info(args...) }
func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Warn(args ...interface{})                  { std.Warn(args...) }
func Warnf(format string, args ...interface{})  { std.Warnf(format, args...) }
func Error(args ...interface{})                 { std.Error(args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }
