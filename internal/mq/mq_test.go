package mq

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toteco/apiserver/config"
)

func TestNewFromConfigDisabled(t *testing.T) {
	q, err := NewFromConfig(context.Background(), config.MQConfig{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestNewFromConfigUnknownBackend(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.ErrorContains(t, err, "kafka")
}

func TestNewFromConfigRabbitMQRequiresURL(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.ErrorContains(t, err, "rabbitmq url is required")
}

func TestMemoryBackendDeliversPublishedMessages(t *testing.T) {
	q := New(NewMemoryBackend(4))
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	id, err := q.Publish(ctx, "account-recovery", []byte(`{"code":12345}`), map[string]string{"type": "recovery-code"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got := make(chan Message, 1)
	go func() {
		_ = q.Subscribe(ctx, "account-recovery", func(ctx context.Context, msg Message) error {
			got <- msg
			return nil
		})
	}()

	select {
	case msg := <-got:
		assert.Equal(t, id, msg.ID)
		assert.JSONEq(t, `{"code":12345}`, string(msg.Data))
		assert.Equal(t, "recovery-code", msg.Attributes["type"])
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestMemoryBackendRedeliversOnHandlerError(t *testing.T) {
	backend := NewMemoryBackend(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := backend.Publish(ctx, "c", []byte("x"), nil)
	require.NoError(t, err)

	attempts := 0
	done := make(chan struct{})
	go func() {
		_ = backend.Subscribe(ctx, "c", func(ctx context.Context, msg Message) error {
			attempts++
			if attempts == 1 {
				return errors.New("smtp down")
			}
			close(done)
			return nil
		})
	}()

	select {
	case <-done:
		assert.Equal(t, 2, attempts)
	case <-ctx.Done():
		t.Fatal("message not redelivered")
	}
}

func TestMemoryBackendDropsPermanentFailures(t *testing.T) {
	backend := NewMemoryBackend(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := backend.Publish(ctx, "c", []byte("bad"), nil)
	require.NoError(t, err)
	_, err = backend.Publish(ctx, "c", []byte("good"), nil)
	require.NoError(t, err)

	var seen []string
	done := make(chan struct{})
	go func() {
		_ = backend.Subscribe(ctx, "c", func(ctx context.Context, msg Message) error {
			seen = append(seen, string(msg.Data))
			if string(msg.Data) == "bad" {
				return Permanent(errors.New("invalid recipient"))
			}
			close(done)
			return nil
		})
	}()

	select {
	case <-done:
		assert.Equal(t, []string{"bad", "good"}, seen)
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestPermanentWrapsError(t *testing.T) {
	cause := errors.New("550 mailbox unavailable")
	err := fmt.Errorf("send: %w", Permanent(cause))
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsPermanent(cause))
	assert.NoError(t, Permanent(nil))
}

func TestMemoryBackendRejectsAfterClose(t *testing.T) {
	backend := NewMemoryBackend(1)
	require.NoError(t, backend.Close())
	_, err := backend.Publish(context.Background(), "c", nil, nil)
	assert.Error(t, err)
}

func TestHeadersToAttributes(t *testing.T) {
	assert.Nil(t, headersToAttributes(nil))
	attrs := headersToAttributes(amqp.Table{
		"type":  "recovery-code",
		"raw":   []byte("bytes"),
		"count": int32(3),
	})
	assert.Equal(t, map[string]string{
		"type":  "recovery-code",
		"raw":   "bytes",
		"count": "3",
	}, attrs)
}
