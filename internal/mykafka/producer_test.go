package mykafka

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	ev := NewEvent("account.registered", map[string]any{"id": 1})
	_, err := uuid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "account.registered", ev.Type)
	assert.WithinDuration(t, time.Now(), ev.OccurredAt, time.Second)
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	require.NoError(t, r.PublishEvent(context.Background(), TopicAccountEvents, "1", NewEvent("a", nil)))
	require.NoError(t, r.PublishEvent(context.Background(), TopicAccountEvents, "1", "raw"))
	assert.Equal(t, []string{"a"}, r.Types())
	assert.Len(t, r.Events, 2)
}

func TestNewProducer_NoBrokers(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestProducer_PublishEvent(t *testing.T) {
	brokers := os.Getenv("KAFKA_TEST_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_TEST_BROKERS is required for tests")
	}
	list := strings.Split(brokers, ",")
	topic := "hr_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	p, err := NewProducer(list)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ev := NewEvent("employee.transferred", map[string]any{"employee_id": 3})
	// the first write may race topic auto creation
	require.Eventually(t, func() bool {
		return p.PublishEvent(ctx, topic, "3", ev) == nil
	}, 20*time.Second, 500*time.Millisecond)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   list,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   time.Second,
	})
	defer r.Close()

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3", string(msg.Key))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.ID, got.ID)
}
