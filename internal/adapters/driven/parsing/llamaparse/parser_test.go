package llamaparse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

func newTestParser(t *testing.T, handler http.Handler) *Parser {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	parser, err := New(Config{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		PollInterval: 10 * time.Millisecond,
		MaxWait:      time.Second,
	})
	require.NoError(t, err)
	// Tests poll aggressively; do not throttle them.
	parser.limiter.SetLimit(1000)
	return parser
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestExtract_NilSubmission(t *testing.T) {
	parser := newTestParser(t, http.NotFoundHandler())

	result, err := parser.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestExtract_UploadPollFetch(t *testing.T) {
	var statusCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/parsing/upload", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "en", r.FormValue("language"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "scanned.pdf", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": "PENDING"})
	})
	mux.HandleFunc("/api/parsing/job/job-1", func(w http.ResponseWriter, r *http.Request) {
		status := "PENDING"
		if statusCalls.Add(1) >= 3 {
			status = "SUCCESS"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": status})
	})
	mux.HandleFunc("/api/parsing/job/job-1/result/markdown", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"markdown":     "# Scanned Document\n\nRecovered body text.",
			"job_metadata": map[string]any{"job_pages": 4},
		})
	})

	parser := newTestParser(t, mux)

	sub := &domain.Submission{
		Filename: "/vault/scanned.pdf",
		Data:     []byte("%PDF-1.4 pretend scan"),
	}
	result, err := parser.Extract(context.Background(), sub)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Contains(t, result.Text, "Recovered body text.")
	assert.Equal(t, 4, result.PageCount)
	assert.GreaterOrEqual(t, statusCalls.Load(), int32(3))
}

func TestExtract_JobError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/parsing/upload", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-2", "status": "PENDING"})
	})
	mux.HandleFunc("/api/parsing/job/job-2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "job-2", "status": "ERROR", "error_message": "unreadable file",
		})
	})

	parser := newTestParser(t, mux)

	sub := &domain.Submission{Filename: "bad.pdf", Data: []byte("x")}
	_, err := parser.Extract(context.Background(), sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "unreadable file")
}

func TestExtract_Timeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/parsing/upload", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-3", "status": "PENDING"})
	})
	mux.HandleFunc("/api/parsing/job/job-3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-3", "status": "PENDING"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	parser, err := New(Config{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		PollInterval: 5 * time.Millisecond,
		MaxWait:      50 * time.Millisecond,
	})
	require.NoError(t, err)
	parser.limiter.SetLimit(1000)

	sub := &domain.Submission{Filename: "slow.pdf", Data: []byte("x")}
	_, err = parser.Extract(context.Background(), sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "timed out")
}

func TestExtract_UploadRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/parsing/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "invalid token"}`))
	})

	parser := newTestParser(t, mux)

	sub := &domain.Submission{Filename: "doc.pdf", Data: []byte("x")}
	_, err := parser.Extract(context.Background(), sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}
