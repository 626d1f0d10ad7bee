package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_PublishEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "user_events"}

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := p.PublishEvent(context.Background(), "user-1", Event{
		Type: EventUserSignedUp, UserID: "user-1", Login: "a@b.com", At: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "user-1", string(msg.Key))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, EventUserSignedUp, got.Type)
	assert.Equal(t, "a@b.com", got.Login)
	assert.True(t, at.Equal(got.At))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishEvent_WriteError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}, topic: "user_events"}

	err := p.PublishEvent(context.Background(), "k", Event{Type: EventUserSignedIn})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_events")
}

func TestProducer_PublishEvent_MarshalError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{}, topic: "user_events"}

	err := p.PublishEvent(context.Background(), "k", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
}

func TestNewProducer_NoBrokers(t *testing.T) {
	_, err := NewProducer(nil, "user_events")
	require.Error(t, err)
}

func TestNewProducer_Close(t *testing.T) {
	p, err := NewProducer([]string{"localhost:9092"}, "user_events")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishEvent(context.Background(), "k", Event{}))
	assert.NoError(t, p.Close())
}
