package catalog

import (
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBusNotifier_LogsNotices(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := EventBus.New()
	require.NoError(t, SubscribeNotices(bus, zap.New(core)))

	n := NewBusNotifier(bus)
	n.Notify(Notice{Kind: NoticeSuccess, Brand: "anine-bing", Op: "update_price", ProductID: 7, Message: "price updated"})
	n.Notify(Notice{Kind: NoticeFailure, Brand: "anine-bing", Op: "delete", ProductID: 8, Message: "failed to delete product", Err: errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "price updated", entries[0].Message)
	assert.Equal(t, uint64(7), entries[0].ContextMap()["product_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
