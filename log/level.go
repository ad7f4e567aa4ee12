package log

import "gopkg.in/Sirupsen/logrus.v0"

// Level re-exports logrus' severity levels so callers never need to import
// logrus directly.
type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)
