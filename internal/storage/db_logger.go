package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"tg-unibans/internal/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// ledgerLogger writes gorm output through the bot logger. Statements are
// logged at DEBUG, slow ones at WARNING and failures at ERROR; missing
// rows are not failures.
type ledgerLogger struct {
	level gormlogger.LogLevel
	slow  time.Duration
}

// newLedgerLogger maps a bot log level name onto a gorm log level
func newLedgerLogger(levelName string) gormlogger.Interface {
	level := gormlogger.Warn
	switch logger.ParseLevel(levelName) {
	case logger.LevelDebug:
		level = gormlogger.Info
	case logger.LevelFatal:
		level = gormlogger.Error
	}
	return &ledgerLogger{level: level, slow: slowQueryThreshold}
}

func (l *ledgerLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *ledgerLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.Infof(msg, data...)
	}
}

func (l *ledgerLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.Warningf(msg, data...)
	}
}

func (l *ledgerLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.Errorf(msg, data...)
	}
}

func (l *ledgerLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	where := fmt.Sprintf("[%.3fms] [%s]", float64(elapsed.Microseconds())/1e3, utils.FileWithLineNum())

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		logger.Errorf("%s %s; error=%v", where, sql, err)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		logger.Warningf("%s %s; slow query over %v, rows=%d", where, sql, l.slow, rows)
	case l.level >= gormlogger.Info:
		logger.Debugf("%s %s; rows=%d", where, sql, rows)
	}
}
