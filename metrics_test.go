package termexp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	var mc BasicMetricsCollector
	assert.Zero(t, mc.GetStats().ExpandAvgNanos)

	mc.RecordExpand(3, 5, 2*time.Millisecond, nil)
	mc.RecordExpand(3, 0, 4*time.Millisecond, errors.New("boom"))
	mc.RecordShardOpen(0, time.Millisecond, nil)
	mc.RecordShardOpen(1, time.Millisecond, errors.New("boom"))

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.ExpandCount)
	assert.Equal(t, int64(1), stats.ExpandErrors)
	assert.Equal(t, int64(5), stats.ExpandTerms)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), stats.ExpandAvgNanos)
	assert.Equal(t, int64(2), stats.ShardOpenCount)
	assert.Equal(t, int64(1), stats.ShardOpenErrors)
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.WithShard(2).LogShardOpen(context.Background(), 2, 10, nil)
	assert.Contains(t, buf.String(), `"msg":"shard opened"`)
	assert.Contains(t, buf.String(), `"documents":10`)

	buf.Reset()
	l.WithScheme("bo1").LogExpand(context.Background(), 4, 12, 3, time.Millisecond, nil)
	assert.Contains(t, buf.String(), `"scheme":"bo1"`)
	assert.Contains(t, buf.String(), `"terms":3`)

	buf.Reset()
	l.LogClose(context.Background(), 2, errors.New("boom"))
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	NoopLogger().LogClose(context.Background(), 1, nil)
	assert.Zero(t, buf.Len())
}
