package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/judgeboard/pkg/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// gormLog routes gorm's own log lines and query traces through the
// service logger, so they follow the configured format and level.
type gormLog struct {
	log   logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

var _ gormlogger.Interface = (*gormLog)(nil)

func newGormLog(l logger.Logger, slow time.Duration) *gormLog {
	return &gormLog{log: l.Named("gorm"), level: gormlogger.Warn, slow: slow}
}

func (g *gormLog) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLog) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Info {
		g.log.Info(ctx, fmt.Sprintf(msg, data...))
	}
}

func (g *gormLog) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.log.Warn(ctx, fmt.Sprintf(msg, data...))
	}
}

func (g *gormLog) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Error {
		g.log.Error(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace reports failed queries as errors, slow ones as warnings and, at
// Info level, every query at debug.
func (g *gormLog) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	fields := func() []logger.Field {
		sql, rows := fc()
		return []logger.Field{logger.String("sql", sql), logger.Any("rows", rows), logger.Duration("elapsed", elapsed)}
	}
	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		g.log.Error(ctx, "query failed", append(fields(), logger.Error(err))...)
	case g.slow > 0 && elapsed > g.slow && g.level >= gormlogger.Warn:
		g.log.Warn(ctx, "slow query", append(fields(), logger.Duration("threshold", g.slow))...)
	case g.level >= gormlogger.Info:
		g.log.Debug(ctx, "query", fields()...)
	}
}
