package mq

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// MemoryBackend delivers messages in-process. Messages published before a
// subscriber attaches are buffered per channel. A handler error requeues the
// message at the back of its channel unless it is permanent.
type MemoryBackend struct {
	mu     sync.Mutex
	queues map[string]chan Message
	seq    int
	size   int
	closed bool
}

// NewMemoryBackend returns a backend whose channels buffer up to size messages.
func NewMemoryBackend(size int) *MemoryBackend {
	if size <= 0 {
		size = 64
	}
	return &MemoryBackend{queues: map[string]chan Message{}, size: size}
}

func (m *MemoryBackend) queue(channel string) (chan Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("memory backend closed")
	}
	q, ok := m.queues[channel]
	if !ok {
		q = make(chan Message, m.size)
		m.queues[channel] = q
	}
	return q, nil
}

// Publish enqueues a message on the named channel.
func (m *MemoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if channel == "" {
		return "", errors.New("memory channel is required")
	}
	q, err := m.queue(channel)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.seq++
	id := strconv.Itoa(m.seq)
	m.mu.Unlock()

	msg := Message{ID: id, Data: append([]byte(nil), data...), Attributes: attrs}
	select {
	case q <- msg:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Subscribe consumes the named channel until ctx is cancelled.
func (m *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if channel == "" {
		return errors.New("memory channel is required")
	}
	q, err := m.queue(channel)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q:
			if err := handler(ctx, msg); err != nil && !IsPermanent(err) {
				select {
				case q <- msg:
				default:
				}
			}
		}
	}
}

// Close rejects further publishing.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
