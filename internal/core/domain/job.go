package domain

import "time"

// JobState identifies one stage of a document's ingestion lifecycle.
type JobState string

// Ingestion states. A job moves through the pipeline states in order and
// finishes in StateCompleted, or drops into StateError from any
// non-terminal state.
const (
	// StateQueued is the initial state after submission.
	StateQueued JobState = "queued"

	// StateExtracting is the text-extraction stage.
	StateExtracting JobState = "extracting"

	// StateChunking is the passage-splitting stage.
	StateChunking JobState = "chunking"

	// StateEmbedding is the vector-computation stage.
	StateEmbedding JobState = "embedding"

	// StateInjecting is the vector-store write stage.
	StateInjecting JobState = "injecting"

	// StateCompleted is the successful terminal state.
	StateCompleted JobState = "completed"

	// StateError is the failed terminal state.
	StateError JobState = "error"
)

// IsValid returns true if the state is recognised.
func (s JobState) IsValid() bool {
	switch s {
	case StateQueued, StateExtracting, StateChunking, StateEmbedding,
		StateInjecting, StateCompleted, StateError:
		return true
	default:
		return false
	}
}

// Terminal returns true once a job can no longer change state.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateError
}

// next is the single authoritative transition table. Every legal
// forward transition appears here exactly once.
var next = map[JobState]JobState{
	StateQueued:     StateExtracting,
	StateExtracting: StateChunking,
	StateChunking:   StateEmbedding,
	StateEmbedding:  StateInjecting,
	StateInjecting:  StateCompleted,
}

// CanTransitionTo reports whether moving from s to target is legal.
// Any non-terminal state may move to StateError; everything else must
// follow the pipeline order.
func (s JobState) CanTransitionTo(target JobState) bool {
	if s.Terminal() {
		return false
	}
	if target == StateError {
		return true
	}
	return next[s] == target
}

// String returns the string representation.
func (s JobState) String() string {
	return string(s)
}

// ExtractionMethod records which extraction path produced a job's text.
type ExtractionMethod string

// Extraction methods.
const (
	// MethodLocal is the in-process extraction path.
	MethodLocal ExtractionMethod = "local"

	// MethodCloudFallback is the remote parser, used only when local
	// extraction fails or misses the quality gate.
	MethodCloudFallback ExtractionMethod = "cloud-fallback"
)

// IngestJob represents one document's ingestion lifecycle.
// It is created on submission, mutated only through state transitions,
// and retained in the job store until explicitly purged.
type IngestJob struct {
	// ID is the opaque job identifier returned to the submitter.
	ID string

	// Filename is the source filename as submitted.
	Filename string

	// Collection is the target collection for this document's points.
	Collection string

	// DocumentID is the stable identifier derived from the filename.
	// Re-submitting the same file yields the same DocumentID, which is
	// what makes re-ingestion overwrite instead of duplicate.
	DocumentID string

	// State is the current lifecycle state.
	State JobState

	// Method is the extraction path that produced the text.
	// Empty until the extracting stage finishes.
	Method ExtractionMethod

	// Error holds the failure cause when State is StateError.
	Error string

	// Extraction metadata, populated during the extracting stage.
	PageCount int
	Title     string
	Author    string

	// Final statistics, populated as stages complete.
	PassageCount int
	TokenCount   int
	PointCount   int

	// CreatedAt is when the job was submitted.
	CreatedAt time.Time

	// UpdatedAt is when the job last changed state.
	UpdatedAt time.Time

	// CompletedAt is when the job reached a terminal state.
	CompletedAt *time.Time
}

// NewIngestJob creates a queued job for one submitted document.
func NewIngestJob(id, filename, collection string) *IngestJob {
	now := time.Now().UTC()
	return &IngestJob{
		ID:         id,
		Filename:   filename,
		Collection: collection,
		DocumentID: DocumentID(filename),
		State:      StateQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Transition moves the job to the target state.
// Illegal transitions return ErrInvalidInput and leave the job unchanged.
func (j *IngestJob) Transition(target JobState) error {
	if !target.IsValid() || !j.State.CanTransitionTo(target) {
		return ErrInvalidInput
	}

	j.State = target
	j.UpdatedAt = time.Now().UTC()

	if target.Terminal() {
		completed := j.UpdatedAt
		j.CompletedAt = &completed
	}
	return nil
}

// Fail transitions the job to StateError and records the cause.
// Calling Fail on a terminal job is a no-op.
func (j *IngestJob) Fail(cause error) {
	if j.State.Terminal() {
		return
	}
	j.Error = cause.Error()
	_ = j.Transition(StateError)
}
