package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

const cartEventsTopic = "cart-events"

// startBroker runs a single-node broker with the cart events topic created
// and returns its address. The container is removed when the test ends.
func startBroker(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	client := &kafkaGo.Client{Addr: kafkaGo.TCP(brokers[0]), Timeout: 10 * time.Second}
	resp, err := client.CreateTopics(ctx, &kafkaGo.CreateTopicsRequest{
		Topics: []kafkaGo.TopicConfig{{
			Topic:             cartEventsTopic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		}},
	})
	require.NoError(t, err)
	require.NoError(t, resp.Errors[cartEventsTopic])

	return brokers[0]
}

// readCartEvents consumes n messages from every partition of the topic.
func readCartEvents(ctx context.Context, t *testing.T, broker string, n int) []kafkaGo.Message {
	t.Helper()

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       cartEventsTopic,
		GroupID:     "cart-events-it",
		StartOffset: kafkaGo.FirstOffset,
	})
	defer reader.Close()

	msgs := make([]kafkaGo.Message, 0, n)
	for len(msgs) < n {
		msg, err := reader.ReadMessage(ctx)
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestKafkaPublisher_SameCartSamePartition(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	broker := startBroker(ctx, t)

	publisher := NewKafkaPublisher([]string{broker}, cartEventsTopic)
	defer publisher.Close()

	sent := []CartEvent{
		{Type: CartCreated, CartID: "c1", ProductIDs: []string{"p1"}},
		{Type: ProductsAdded, CartID: "c1", ProductIDs: []string{"p2", "p3"}},
		{Type: QuantityUpdated, CartID: "c1", ProductIDs: []string{"p2"}, ProductQty: 4},
	}
	for _, event := range sent {
		require.NoError(t, publisher.Publish(ctx, event))
	}

	msgs := readCartEvents(ctx, t, broker, len(sent))

	partition := msgs[0].Partition
	for i, msg := range msgs {
		assert.Equal(t, "c1", string(msg.Key))
		assert.Equal(t, partition, msg.Partition, "events of one cart share a partition")
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, "event-type", msg.Headers[0].Key)

		var got CartEvent
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, sent[i].Type, got.Type)
		assert.Equal(t, sent[i].ProductIDs, got.ProductIDs)
		assert.Equal(t, sent[i].ProductQty, got.ProductQty)
		assert.Equal(t, string(got.Type), string(msg.Headers[0].Value))
		assert.False(t, got.OccurredAt.IsZero())
	}
}
