package wirechat

import (
	"github.com/sirupsen/logrus"
)

// Logger is the generic interface for log recording.
type Logger interface {
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Tracef(format string, args ...interface{})
}

// Log is the instance of Logger interface.
var Log Logger = newLogger()

// DefaultLogger is the default logger instance for this package.
// DefaultLogger is backed by logrus.
type DefaultLogger struct {
	rawLogger *logrus.Logger
}

var _ Logger = &DefaultLogger{}

func newLogger() *DefaultLogger {
	raw := logrus.New()
	raw.SetLevel(logrus.ErrorLevel)
	return &DefaultLogger{rawLogger: raw}
}

// Errorf implements Logger Errorf method.
func (d *DefaultLogger) Errorf(format string, args ...interface{}) {
	d.rawLogger.Errorf(format, args...)
}

// Debugf implements Logger Debugf method.
func (d *DefaultLogger) Debugf(format string, args ...interface{}) {
	d.rawLogger.Debugf(format, args...)
}

// Tracef implements Logger Tracef method.
func (d *DefaultLogger) Tracef(format string, args ...interface{}) {
	d.rawLogger.Tracef(format, args...)
}

// SetLevel adjusts the level of the underlying logrus logger.
func (d *DefaultLogger) SetLevel(level logrus.Level) {
	d.rawLogger.SetLevel(level)
}

// MuteLogger is the empty logger instance.
type MuteLogger struct{}

var _ Logger = &MuteLogger{}

// Errorf is an empty implementation to Logger Errorf method.
func (m *MuteLogger) Errorf(format string, args ...interface{}) {}

// Debugf is an empty implementation to Logger Debugf method.
func (m *MuteLogger) Debugf(format string, args ...interface{}) {}

// Tracef is an empty implementation to Logger Tracef method.
func (m *MuteLogger) Tracef(format string, args ...interface{}) {}

// SetLogger sets the package logger.
func SetLogger(lg Logger) {
	Log = lg
}
