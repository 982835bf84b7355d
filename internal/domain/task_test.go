package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Run("valid_description_creates_pending_task", func(t *testing.T) {
		task, err := NewTask("Find me a landscaper in Charlotte under $300")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, "Find me a landscaper in Charlotte under $300", task.Description)
		assert.Empty(t, task.Vendors)
		assert.Zero(t, task.EmailsSent)
		assert.Empty(t, task.AgentResponse)
		assert.Empty(t, task.ErrorMessage)
		assert.False(t, task.CreatedAt.IsZero())
		assert.Equal(t, task.CreatedAt, task.UpdatedAt)

		require.Len(t, task.Events, 1, "new task must carry exactly one seed event")
		assert.Equal(t, "Task created", task.Events[0].Message)
		assert.Equal(t, EventTypeInfo, task.Events[0].Type)
	})

	t.Run("empty_description_returns_error", func(t *testing.T) {
		task, err := NewTask("")
		assert.Nil(t, task)
		assert.ErrorIs(t, err, ErrEmptyTaskDescription)
	})
}

func TestTaskValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr error
	}{
		{
			name:    "valid_task_passes",
			mutate:  func(task *Task) {},
			wantErr: nil,
		},
		{
			name:    "nil_id_fails",
			mutate:  func(task *Task) { task.ID = uuid.Nil },
			wantErr: ErrEmptyTaskID,
		},
		{
			name:    "empty_description_fails",
			mutate:  func(task *Task) { task.Description = "" },
			wantErr: ErrEmptyTaskDescription,
		},
		{
			name:    "unknown_status_fails",
			mutate:  func(task *Task) { task.Status = TaskStatus("queued") },
			wantErr: ErrInvalidTaskStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := NewTask("paint my fence")
			require.NoError(t, err)

			tt.mutate(task)
			err = task.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	t.Run("pending_to_processing", func(t *testing.T) {
		task, err := NewTask("mow the lawn")
		require.NoError(t, err)

		before := task.UpdatedAt
		time.Sleep(time.Millisecond)
		require.NoError(t, task.UpdateStatus(TaskStatusProcessing))
		assert.Equal(t, TaskStatusProcessing, task.Status)
		assert.True(t, task.UpdatedAt.After(before), "UpdatedAt must be refreshed on mutation")
	})

	t.Run("pending_to_error", func(t *testing.T) {
		task, err := NewTask("mow the lawn")
		require.NoError(t, err)

		require.NoError(t, task.UpdateStatus(TaskStatusError))
		assert.Equal(t, TaskStatusError, task.Status)
	})

	t.Run("terminal_states_admit_no_transition", func(t *testing.T) {
		for _, terminal := range []TaskStatus{TaskStatusCompleted, TaskStatusError} {
			task, err := NewTask("mow the lawn")
			require.NoError(t, err)
			task.Status = terminal

			for _, next := range []TaskStatus{TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusError} {
				assert.ErrorIs(t, task.UpdateStatus(next), ErrInvalidTransition,
					"transition %s -> %s must be rejected", terminal, next)
			}
		}
	})

	t.Run("pending_cannot_jump_to_completed", func(t *testing.T) {
		task, err := NewTask("mow the lawn")
		require.NoError(t, err)

		assert.ErrorIs(t, task.UpdateStatus(TaskStatusCompleted), ErrInvalidTransition)
	})

	t.Run("invalid_status_rejected", func(t *testing.T) {
		task, err := NewTask("mow the lawn")
		require.NoError(t, err)

		assert.ErrorIs(t, task.UpdateStatus(TaskStatus("done")), ErrInvalidTaskStatus)
	})
}

func TestAppendEvent(t *testing.T) {
	task, err := NewTask("clean the gutters")
	require.NoError(t, err)

	task.AppendEvent(NewEvent("Task queued for agent processing", EventTypeInfo))
	task.AppendEvent(NewEvent("Agent processing started", EventTypeInfo))

	require.Len(t, task.Events, 3)
	assert.Equal(t, "Task created", task.Events[0].Message)
	assert.Equal(t, "Task queued for agent processing", task.Events[1].Message)
	assert.Equal(t, "Agent processing started", task.Events[2].Message)
}
