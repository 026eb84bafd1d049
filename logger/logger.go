package logger

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/FlorianRuen/skillsync/config"
	"github.com/sirupsen/logrus"
)

// Setup will configure logrus logger
func Setup(cfg config.Config) {
	var formatter logrus.Formatter = &logrus.TextFormatter{
		FullTimestamp:    true,
		CallerPrettyfier: shortCaller,
	}

	if cfg.Logs.OutputLogsAsJSON {
		formatter = &logrus.JSONFormatter{CallerPrettyfier: shortCaller}
	}

	logrus.SetFormatter(formatter)
	logrus.SetReportCaller(cfg.Logs.ReportCaller)
	logrus.SetLevel(StringToLogrusLogType(cfg.Logs.Level))
}

// Component returns an entry tagged with the emitting component (scheduler, broker...).
// Entries share the standard logger so Setup may run after they are created
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

// shortCaller keeps "package/file.go:line" instead of the full path and drops the function name
func shortCaller(frame *runtime.Frame) (string, string) {
	dir := filepath.Base(filepath.Dir(frame.File))
	return "", fmt.Sprintf("%s/%s:%d", dir, filepath.Base(frame.File), frame.Line)
}

// StringToLogrusLogType will convert string to the right logrus level
// unknown values fall back to error to keep production output quiet
func StringToLogrusLogType(logLevel string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	case "trace":
		return logrus.TraceLevel
	default:
		return logrus.ErrorLevel
	}
}
