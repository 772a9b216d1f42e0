package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"tg-unibans/internal/config"
)

// Level is a logging severity
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

var levelPrefixes = map[Level]string{
	LevelDebug:   "DBG",
	LevelInfo:    "INF",
	LevelWarning: "WRN",
	LevelError:   "ERR",
	LevelFatal:   "FTL",
}

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// ParseLevel maps a config level name to a Level, defaulting to INFO
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// SetLevel changes the minimum level that gets written
func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

// Enabled reports whether messages at level are written
func Enabled(level Level) bool {
	return Level(currentLevel.Load()) <= level
}

// createLogFilePath generates a log file path with the current date
func createLogFilePath(logDir, prefix string) string {
	currentDate := time.Now().Format("2006-01-02")
	return filepath.Join(logDir, fmt.Sprintf("%s-%s.log", prefix, currentDate))
}

// createRotatingLogger creates a lumberjack rotating logger
func createRotatingLogger(logFilePath string, cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.Logger.Rotation.MaxSize,
		MaxBackups: cfg.Logger.Rotation.MaxBackups,
		MaxAge:     cfg.Logger.Rotation.MaxAge,
		Compress:   cfg.Logger.Rotation.Compress,
	}
}

// createMultiWriter creates a writer that outputs to both stdout and log file
func createMultiWriter(rotatingLogger io.Writer) io.Writer {
	return io.MultiWriter(os.Stdout, rotatingLogger)
}

// Setup configures logging to output to both stdout and a rotating log file
func Setup(cfg *config.Config) error {
	logDir := cfg.Logger.Directory

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := createLogFilePath(logDir, "tg-unibans")
	rotatingLogger := createRotatingLogger(logFilePath, cfg)
	log.SetOutput(createMultiWriter(rotatingLogger))
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	SetLevel(ParseLevel(cfg.Logger.Level))

	log.Printf("Logging initialized: writing to %s", logFilePath)
	return nil
}

func output(level Level, msg string) {
	if !Enabled(level) {
		return
	}
	// skip output and the exported helper so Lshortfile points at the caller
	log.Default().Output(3, levelPrefixes[level]+" -- "+msg)
}

func Error(v ...interface{}) { output(LevelError, fmt.Sprint(v...)) }

func Debugf(format string, v ...interface{})   { output(LevelDebug, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})    { output(LevelInfo, fmt.Sprintf(format, v...)) }
func Warningf(format string, v ...interface{}) { output(LevelWarning, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{})   { output(LevelError, fmt.Sprintf(format, v...)) }

// Fatalf logs at fatal level and exits the process
func Fatalf(format string, v ...interface{}) {
	output(LevelFatal, fmt.Sprintf(format, v...))
	os.Exit(1)
}
