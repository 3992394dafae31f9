package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJobState_IsValid tests all valid and invalid states
func TestJobState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    JobState
		expected bool
	}{
		{name: "queued is valid", state: StateQueued, expected: true},
		{name: "extracting is valid", state: StateExtracting, expected: true},
		{name: "chunking is valid", state: StateChunking, expected: true},
		{name: "embedding is valid", state: StateEmbedding, expected: true},
		{name: "injecting is valid", state: StateInjecting, expected: true},
		{name: "completed is valid", state: StateCompleted, expected: true},
		{name: "error is valid", state: StateError, expected: true},
		{name: "empty string is invalid", state: JobState(""), expected: false},
		{name: "unknown state is invalid", state: JobState("paused"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.IsValid())
		})
	}
}

// TestJobState_Terminal tests terminal state detection
func TestJobState_Terminal(t *testing.T) {
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateError.Terminal())

	for _, s := range []JobState{StateQueued, StateExtracting, StateChunking, StateEmbedding, StateInjecting} {
		assert.False(t, s.Terminal(), "state %s should not be terminal", s)
	}
}

// TestJobState_CanTransitionTo tests the transition table
func TestJobState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    JobState
		to      JobState
		allowed bool
	}{
		{name: "queued to extracting", from: StateQueued, to: StateExtracting, allowed: true},
		{name: "extracting to chunking", from: StateExtracting, to: StateChunking, allowed: true},
		{name: "chunking to embedding", from: StateChunking, to: StateEmbedding, allowed: true},
		{name: "embedding to injecting", from: StateEmbedding, to: StateInjecting, allowed: true},
		{name: "injecting to completed", from: StateInjecting, to: StateCompleted, allowed: true},
		{name: "queued to error", from: StateQueued, to: StateError, allowed: true},
		{name: "injecting to error", from: StateInjecting, to: StateError, allowed: true},
		{name: "skipping a stage", from: StateQueued, to: StateChunking, allowed: false},
		{name: "moving backwards", from: StateEmbedding, to: StateExtracting, allowed: false},
		{name: "completed to embedding", from: StateCompleted, to: StateEmbedding, allowed: false},
		{name: "completed to error", from: StateCompleted, to: StateError, allowed: false},
		{name: "error to anything", from: StateError, to: StateQueued, allowed: false},
		{name: "queued to completed", from: StateQueued, to: StateCompleted, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// TestNewIngestJob tests job construction
func TestNewIngestJob(t *testing.T) {
	job := NewIngestJob("job-1", "report.pdf", "knowledge")

	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "report.pdf", job.Filename)
	assert.Equal(t, "knowledge", job.Collection)
	assert.Equal(t, StateQueued, job.State)
	assert.Equal(t, DocumentID("report.pdf"), job.DocumentID)
	assert.Empty(t, job.Error)
	assert.Nil(t, job.CompletedAt)
	assert.False(t, job.CreatedAt.IsZero())
}

// TestIngestJob_Transition tests legal and illegal transitions
func TestIngestJob_Transition(t *testing.T) {
	t.Run("full pipeline", func(t *testing.T) {
		job := NewIngestJob("job-1", "report.pdf", "knowledge")

		for _, s := range []JobState{StateExtracting, StateChunking, StateEmbedding, StateInjecting, StateCompleted} {
			require.NoError(t, job.Transition(s))
			assert.Equal(t, s, job.State)
		}

		require.NotNil(t, job.CompletedAt)
		assert.True(t, job.State.Terminal())
	})

	t.Run("illegal transition leaves job unchanged", func(t *testing.T) {
		job := NewIngestJob("job-1", "report.pdf", "knowledge")

		err := job.Transition(StateEmbedding)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
		assert.Equal(t, StateQueued, job.State)
		assert.Nil(t, job.CompletedAt)
	})

	t.Run("terminal job rejects further transitions", func(t *testing.T) {
		job := NewIngestJob("job-1", "report.pdf", "knowledge")
		job.Fail(errors.New("boom"))

		err := job.Transition(StateExtracting)
		require.Error(t, err)
		assert.Equal(t, StateError, job.State)
	})
}

// TestIngestJob_Fail tests failure recording
func TestIngestJob_Fail(t *testing.T) {
	job := NewIngestJob("job-1", "report.pdf", "knowledge")
	require.NoError(t, job.Transition(StateExtracting))

	job.Fail(errors.New("extractor exploded"))

	assert.Equal(t, StateError, job.State)
	assert.Equal(t, "extractor exploded", job.Error)
	require.NotNil(t, job.CompletedAt)

	// A second Fail must not overwrite the original cause.
	job.Fail(errors.New("later failure"))
	assert.Equal(t, "extractor exploded", job.Error)
}
