// Package logger provides leveled logging for the YaMDb API with a console
// backend and an optional file backend.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yamdb/yamdb/config"

	"github.com/op/go-logging"
)

const (
	module      = "yamdb"
	logFileName = "yamdb.log"
	lineFormat  = `%{time:2006/01/02 15:04:05} %{level} - %{message}`
)

var (
	logger  = logging.MustGetLogger(module)
	logFile *os.File
)

// InitLogger installs a console backend at the given level and, when the log
// folder is writable, a file backend that always records DEBUG.
func InitLogger(level logging.Level) {
	backends := []logging.Backend{leveled(os.Stderr, level)}
	if file := openLogFile(); file != nil {
		backends = append(backends, leveled(file, logging.DEBUG))
	}
	l := logging.MustGetLogger(module)
	l.SetBackend(logging.MultiLogger(backends...))
	logger = l
}

func leveled(w io.Writer, level logging.Level) logging.LeveledBackend {
	b := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), logging.MustStringFormatter(lineFormat))
	lb := logging.AddModuleLevel(b)
	lb.SetLevel(level, module)
	return lb
}

// LevelFor maps a configured level to a go-logging level.
func LevelFor(level config.LogLevel) (logging.Level, error) {
	switch level {
	case config.Debug:
		return logging.DEBUG, nil
	case config.Info:
		return logging.INFO, nil
	case config.Notice:
		return logging.NOTICE, nil
	case config.Warn:
		return logging.WARNING, nil
	case config.Error:
		return logging.ERROR, nil
	}
	return logging.INFO, fmt.Errorf("unknown log level: %s", level)
}

// openLogFile replaces the current log file with the one in the configured
// folder. It reports problems on stderr and returns nil.
func openLogFile() *os.File {
	logDir := config.GetLogFolder()
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log folder %s: %v\n", logDir, err)
		return nil
	}
	logPath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", logPath, err)
		return nil
	}
	CloseLogger()
	logFile = file
	return file
}

// CloseLogger closes the log file. Should be called during shutdown.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func Debug(args ...any) {
	logger.Debug(args...)
}

func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

func Info(args ...any) {
	logger.Info(args...)
}

func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

func Warning(args ...any) {
	logger.Warning(args...)
}

func Warningf(format string, args ...any) {
	logger.Warningf(format, args...)
}

func Error(args ...any) {
	logger.Error(args...)
}

func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}
