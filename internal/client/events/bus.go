// Package events is the in-process dispatcher between the error classifier
// and whatever UI surfaces are mounted. Every subscriber receives its own
// copy of each payload; publishing never blocks the publisher.
package events

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/pharmalink/internal/client/classify"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

const (
	TopicError       = "app:error"
	TopicErrorAction = "app:error-action"
	TopicErrorRemove = "app:error-remove"

	DefaultBuffer = 16
)

// ActionEvent carries the action a user picked for a published error.
type ActionEvent struct {
	ErrorID string
	Action  classify.ActionType
}

// RemoveEvent retracts a published error, e.g. after a successful retry.
type RemoveEvent struct {
	ErrorID string
}

// Topic fans values of one type out to its subscribers.
type Topic[T any] struct {
	name   string
	buffer int
	clone  func(T) T
	logger logging.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan T
	closed bool
}

func NewTopic[T any](name string, buffer int, clone func(T) T, logger logging.Logger) *Topic[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Topic[T]{
		name:   name,
		buffer: buffer,
		clone:  clone,
		logger: logger,
		subs:   make(map[uint64]chan T),
	}
}

func (t *Topic[T]) Name() string { return t.name }

// Subscribe returns a channel of future values and a cancel func. The
// channel is closed by cancel or by Close. Subscribing to a closed topic
// yields an already closed channel.
func (t *Topic[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, t.buffer)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { t.unsubscribe(id) })
	}
}

func (t *Topic[T]) unsubscribe(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.subs[id]; ok {
		delete(t.subs, id)
		close(ch)
	}
}

// Publish hands a copy of v to every subscriber with room in its buffer
// and returns how many received it. Full subscribers miss the value.
func (t *Topic[T]) Publish(ctx context.Context, v T) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	delivered := 0
	for id, ch := range t.subs {
		select {
		case ch <- t.clone(v):
			delivered++
		default:
			t.logger.Warn(ctx, "subscriber buffer full, event dropped", "topic", t.name, "subscriber", id)
		}
	}
	return delivered
}

// Subscribers returns the current subscriber count.
func (t *Topic[T]) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Close closes every subscriber channel. Later publishes are dropped.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}

// Bus groups the three error topics.
type Bus struct {
	Errors  *Topic[classify.ProcessedError]
	Actions *Topic[ActionEvent]
	Removes *Topic[RemoveEvent]
}

func NewBus(logger logging.Logger, buffer int) *Bus {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "events")
	return &Bus{
		Errors:  NewTopic(TopicError, buffer, classify.ProcessedError.Clone, logger),
		Actions: NewTopic[ActionEvent](TopicErrorAction, buffer, nil, logger),
		Removes: NewTopic[RemoveEvent](TopicErrorRemove, buffer, nil, logger),
	}
}

func (b *Bus) Close() {
	b.Errors.Close()
	b.Actions.Close()
	b.Removes.Close()
}
