package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewEventEnvelope(t *testing.T) {
	ev := New(TypeOrderCreated, "DZF-20250115-0001", OrderCreated{
		OrderID:     1,
		OrderNumber: "DZF-20250115-0001",
		TotalAmount: decimal.RequireFromString("2600"),
	})
	assert.NotEmpty(t, ev.EventID)
	assert.False(t, ev.Timestamp.IsZero())

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "order.created", out["type"])
	assert.NotContains(t, out, "Key")
	payload := out["payload"].(map[string]any)
	assert.Equal(t, "2600", payload["total_amount"])
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), New(TypeAntiGaspiSwept, "antigaspi", nil)))
	assert.NoError(t, p.Close())
}

func TestKafkaPublisherDefaultTimeout(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:9092"}, "orders", 0, zap.NewNop())
	defer p.Close()
	assert.Equal(t, DefaultPublishTimeout, p.timeout)
	assert.Equal(t, DefaultPublishTimeout, p.writer.WriteTimeout)
}

func TestKafkaPublishIsBoundedWhenBrokerIsDown(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "orders", 300*time.Millisecond, zap.NewNop())
	defer p.Close()

	start := time.Now()
	err := p.Publish(context.Background(), New(TypeOrderCreated, "DZF-20250115-0001", nil))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
