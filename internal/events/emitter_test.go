package events

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []*TaskRequestEvent
	err    error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *TaskRequestEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestNewTaskRequestEvent(t *testing.T) {
	type payload struct {
		TaskID      string `json:"task_id"`
		Description string `json:"description"`
	}

	event, err := NewTaskRequestEvent("vendor_outreach", payload{
		TaskID:      "abc",
		Description: "paint my fence",
	})
	require.NoError(t, err)
	assert.Equal(t, "vendor_outreach", event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded payload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "abc", decoded.TaskID)
	assert.Equal(t, "paint my fence", decoded.Description)
}

func TestInMemoryEventEmitter(t *testing.T) {
	newEvent := func(t *testing.T) *TaskRequestEvent {
		t.Helper()
		event, err := NewTaskRequestEvent("vendor_outreach", map[string]string{"task_id": "x"})
		require.NoError(t, err)
		return event
	}

	t.Run("no_handlers_is_not_an_error", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(slog.Default())
		assert.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t)))
	})

	t.Run("all_handlers_receive_event", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(slog.Default())
		first := &recordingHandler{}
		second := &recordingHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		event := newEvent(t)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		require.Len(t, first.events, 1)
		require.Len(t, second.events, 1)
		assert.Equal(t, event.ID, first.events[0].ID)
	})

	t.Run("handler_error_does_not_stop_dispatch", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(slog.Default())
		failing := &recordingHandler{err: errors.New("boom")}
		healthy := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(healthy)

		err := emitter.EmitEvent(context.Background(), newEvent(t))
		assert.EqualError(t, err, "boom")
		assert.Len(t, healthy.events, 1, "later handlers must still run")
	})
}
