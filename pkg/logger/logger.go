package logger

import (
	"log"
	"strings"
)

// Logger is the leveled logger shared by the hub, transports and handlers.
type Logger interface {
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	Fatalf(format string, v ...any)
}

// NewLogger returns a Logger writing through the standard log package.
// Levels: debug, info, warning, error, off.
func NewLogger(level string) Logger {
	return &stdLogger{level: parseLevel(level)}
}

type stdLogger struct {
	level int
}

const (
	levelDebug = iota
	levelInfo
	levelWarning
	levelError
	levelOff
)

func parseLevel(l string) int {
	switch strings.ToLower(l) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarning
	case "error":
		return levelError
	case "off", "silent":
		return levelOff
	default:
		return levelInfo
	}
}

func (l *stdLogger) Infof(format string, v ...any) {
	if l.level <= levelInfo {
		log.Printf("INFO: "+format, v...)
	}
}

func (l *stdLogger) Warnf(format string, v ...any) {
	if l.level <= levelWarning {
		log.Printf("WARNING: "+format, v...)
	}
}

func (l *stdLogger) Errorf(format string, v ...any) {
	if l.level <= levelError {
		log.Printf("ERROR: "+format, v...)
	}
}

func (l *stdLogger) Fatalf(format string, v ...any) {
	log.Fatalf("FATAL: "+format, v...)
}
