package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pharmalink/internal/client/classify"
)

func TestTopic_FanOut(t *testing.T) {
	bus := NewBus(nil, 4)
	defer bus.Close()

	a, cancelA := bus.Actions.Subscribe()
	defer cancelA()
	b, cancelB := bus.Actions.Subscribe()
	defer cancelB()

	n := bus.Actions.Publish(context.Background(), ActionEvent{ErrorID: "e1", Action: classify.ActionRetry})
	assert.Equal(t, 2, n)
	assert.Equal(t, ActionEvent{ErrorID: "e1", Action: classify.ActionRetry}, <-a)
	assert.Equal(t, ActionEvent{ErrorID: "e1", Action: classify.ActionRetry}, <-b)
}

func TestTopic_PayloadsAreIndependentCopies(t *testing.T) {
	bus := NewBus(nil, 4)
	defer bus.Close()

	a, cancelA := bus.Errors.Subscribe()
	defer cancelA()
	b, cancelB := bus.Errors.Subscribe()
	defer cancelB()

	pe := classify.ProcessedError{
		ID:          "e1",
		Fields:      map[string]string{"name": "required"},
		UserActions: []classify.UserAction{{Type: classify.ActionClose}},
	}
	bus.Errors.Publish(context.Background(), pe)

	gotA := <-a
	gotA.Fields["name"] = "mutated"
	gotA.UserActions[0].Type = classify.ActionRetry

	gotB := <-b
	assert.Equal(t, "required", gotB.Fields["name"])
	assert.Equal(t, classify.ActionClose, gotB.UserActions[0].Type)
	assert.Equal(t, "required", pe.Fields["name"])
}

func TestTopic_PublishNeverBlocks(t *testing.T) {
	topic := NewTopic[RemoveEvent](TopicErrorRemove, 1, nil, nil)
	defer topic.Close()

	ch, cancel := topic.Subscribe()
	defer cancel()

	assert.Equal(t, 1, topic.Publish(context.Background(), RemoveEvent{ErrorID: "1"}))
	assert.Equal(t, 0, topic.Publish(context.Background(), RemoveEvent{ErrorID: "2"}))
	assert.Equal(t, "1", (<-ch).ErrorID)
}

func TestTopic_CancelClosesChannel(t *testing.T) {
	topic := NewTopic[RemoveEvent](TopicErrorRemove, 1, nil, nil)
	ch, cancel := topic.Subscribe()
	require.Equal(t, 1, topic.Subscribers())

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, topic.Subscribers())
	assert.Equal(t, 0, topic.Publish(context.Background(), RemoveEvent{ErrorID: "x"}))
}

func TestBus_CloseEndsSubscriptions(t *testing.T) {
	bus := NewBus(nil, 1)
	errs, cancel := bus.Errors.Subscribe()

	bus.Close()
	cancel()

	_, ok := <-errs
	assert.False(t, ok)

	late, _ := bus.Removes.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestTopic_ConcurrentPublishAndCancel(t *testing.T) {
	topic := NewTopic[int]("numbers", 8, nil, nil)
	defer topic.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		ch, cancel := topic.Subscribe()
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		go func(i int) {
			defer wg.Done()
			topic.Publish(context.Background(), i)
			cancel()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, topic.Subscribers())
}
