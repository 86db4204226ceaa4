// Package logger — логирование клиента поверх logrus.
// По умолчанию пишет текстом в stderr с уровнем info; заменить можно через SetLogger.
package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger — то, чем пользуются пакеты клиента. Реализацию можно подменить своей.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	WithFields(fields map[string]interface{}) Logger
	WithField(key string, value interface{}) Logger
	WithError(err error) Logger
}

// Log — логгер по умолчанию
var Log = New("info")

// SetLogger заменяет логгер по умолчанию (nil игнорируется).
func SetLogger(l Logger) {
	if l != nil {
		Log = l
	}
}

type logrusImpl struct {
	impl *logrus.Entry
}

// New — logrus с текстовым форматом и уровнем из строки (debug, info, warn, error).
func New(level string) Logger {
	l := logrus.New()
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	l.SetLevel(ParseLevel(level))
	return NewWithLogger(l)
}

// NewWithLogger оборачивает готовый *logrus.Logger.
func NewWithLogger(l *logrus.Logger) Logger {
	return &logrusImpl{impl: logrus.NewEntry(l).WithField("source", "trtl")}
}

// ParseLevel — неизвестный уровень превращается в info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
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

func (l *logrusImpl) Debug(args ...interface{}) { l.impl.Debug(args...) }

func (l *logrusImpl) Debugf(format string, args ...interface{}) { l.impl.Debugf(format, args...) }

func (l *logrusImpl) Info(args ...interface{}) { l.impl.Info(args...) }

func (l *logrusImpl) Infof(format string, args ...interface{}) { l.impl.Infof(format, args...) }

func (l *logrusImpl) Warn(args ...interface{}) { l.impl.Warn(args...) }

func (l *logrusImpl) Warnf(format string, args ...interface{}) { l.impl.Warnf(format, args...) }

func (l *logrusImpl) Error(args ...interface{}) { l.impl.Error(args...) }

func (l *logrusImpl) Errorf(format string, args ...interface{}) { l.impl.Errorf(format, args...) }

func (l *logrusImpl) WithFields(fields map[string]interface{}) Logger {
	return &logrusImpl{impl: l.impl.WithFields(fields)}
}

func (l *logrusImpl) WithField(key string, value interface{}) Logger {
	return &logrusImpl{impl: l.impl.WithField(key, value)}
}

func (l *logrusImpl) WithError(err error) Logger {
	return &logrusImpl{impl: l.impl.WithError(err)}
}
