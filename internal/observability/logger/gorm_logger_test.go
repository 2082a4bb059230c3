package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL(`SELECT count(*) FROM "dice_rolls"`))
	assert.Equal(t, "DELETE", operationFromSQL(`WITH x AS (SELECT 1) DELETE FROM dice_rolls`))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, parseGormLevel("SILENT"))
	assert.Equal(t, gormlogger.Info, parseGormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, parseGormLevel(""))
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	orig := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(orig)

	l := NewGormLogger(time.Second, "warn")
	sql := func() (string, int64) { return "SELECT * FROM dice_rolls", 1 }
	ctx := context.Background()

	l.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)
	l.Trace(ctx, time.Now(), sql, nil)
	assert.Empty(t, logs.All())

	l.Trace(ctx, time.Now(), sql, errors.New("boom"))
	require.Len(t, logs.All(), 1)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	assert.Equal(t, "SELECT", logs.All()[0].ContextMap()["operation"])

	l.Trace(ctx, time.Now().Add(-2*time.Second), sql, nil)
	require.Len(t, logs.All(), 2)
	assert.Equal(t, "slow sql", logs.All()[1].Message)

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), sql, errors.New("boom"))
	assert.Len(t, logs.All(), 2)
}
