package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	m      sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.m.Lock()
	defer f.m.Unlock()
	f.closed = true
	return nil
}

func TestPublish_WritesKeyedJSON(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.Publish(context.Background(), CartEvent{
		Type:       ProductsAdded,
		CartID:     "c1",
		ProductIDs: []string{"p3"},
	})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "c1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "cart.products_added", string(msg.Headers[0].Value))

	var got CartEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ProductsAdded, got.Type)
	assert.Equal(t, []string{"p3"}, got.ProductIDs)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestPublish_CollectionWideKeyedByProduct(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.Publish(context.Background(), CartEvent{
		Type:       ItemDeleted,
		ProductIDs: []string{"p1"},
		Modified:   3,
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "p1", string(w.msgs[0].Key))
}

func TestPublish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &KafkaPublisher{writer: w}

	err := p.Publish(context.Background(), CartEvent{Type: CartCreated, CartID: "c1"})
	assert.ErrorContains(t, err, "broker down")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}

	assert.NoError(t, p.Publish(context.Background(), CartEvent{Type: CartCreated}))
	assert.NoError(t, p.Close())
}
