package papers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"paper-backend/internal/shared/telemetry"
)

const maxErrorMessageChars = 500

// Service ties the registry, the analysis pipeline, chat and graph
// extraction together behind the transport layer.
type Service struct {
	Registry *Registry
	Analyzer *Analyzer
	Chats    *ChatManager
	Graphs   *GraphExtractor
}

func NewService(registry *Registry, analyzer *Analyzer, chats *ChatManager, graphs *GraphExtractor) *Service {
	return &Service{
		Registry: registry,
		Analyzer: analyzer,
		Chats:    chats,
		Graphs:   graphs,
	}
}

// Submit registers a new job for the uploaded file and starts analysis in
// the background. It returns as soon as the job is visible in processing
// state.
func (s *Service) Submit(ctx context.Context, filename string, content []byte) (Job, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return Job{}, fmt.Errorf("%w: %s", ErrUnsupportedType, filename)
	}

	job := Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		Status:    StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Registry.Create(ctx, job); err != nil {
		return Job{}, err
	}
	telemetry.Info("job accepted", map[string]any{"job_id": job.ID, "filename": filename})

	// The request context ends when the HTTP response is written, so the
	// background analysis runs under its own context.
	go s.completeAsync(context.Background(), job.ID, content)
	return job, nil
}

func (s *Service) completeAsync(ctx context.Context, jobID string, content []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			s.failJob(ctx, jobID, fmt.Sprintf("analysis panicked: %v", rec))
		}
	}()

	path, err := s.Analyzer.SaveUpload(content)
	if err != nil {
		s.failJob(ctx, jobID, err.Error())
		return
	}

	started := time.Now()
	result, err := s.Analyzer.Analyze(ctx, path)
	if err != nil {
		s.failJob(ctx, jobID, err.Error())
		return
	}

	if err := s.Registry.Complete(ctx, jobID, result); err != nil {
		// The job may have been deleted while analysis was running.
		telemetry.Warn("job completion dropped", map[string]any{"job_id": jobID, "error": err.Error()})
		return
	}
	telemetry.Info("job completed", map[string]any{
		"job_id":      jobID,
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

func (s *Service) failJob(ctx context.Context, jobID, message string) {
	message = sanitizeError(message)
	if err := s.Registry.Fail(ctx, jobID, message); err != nil {
		telemetry.Warn("job failure dropped", map[string]any{"job_id": jobID, "error": err.Error()})
		return
	}
	telemetry.Error("job failed", map[string]any{"job_id": jobID, "error": message})
}

// sanitizeError keeps stored error messages single-line and bounded so they
// are safe to return over the API.
func sanitizeError(message string) string {
	message = strings.Join(strings.Fields(message), " ")
	if len(message) > maxErrorMessageChars {
		message = message[:maxErrorMessageChars]
	}
	return message
}

// Status returns the job in its current state.
func (s *Service) Status(ctx context.Context, jobID string) (Job, error) {
	return s.Registry.Get(ctx, jobID)
}

// Delete removes the job and everything attached to it.
func (s *Service) Delete(ctx context.Context, jobID string) error {
	if err := s.Registry.Delete(ctx, jobID); err != nil {
		return err
	}
	telemetry.Info("job deleted", map[string]any{"job_id": jobID})
	return nil
}

// Chat answers a follow-up question about a completed analysis and records
// the exchange in the job's history.
func (s *Service) Chat(ctx context.Context, jobID, message string) (ChatTurn, error) {
	job, err := s.Registry.Get(ctx, jobID)
	if err != nil {
		return ChatTurn{}, err
	}
	if job.Status != StatusCompleted || job.Result == nil || job.Result.Empty() {
		return ChatTurn{}, fmt.Errorf("%w: job %s is not ready for chat", ErrInvalidState, jobID)
	}

	response := s.Chats.Respond(ctx, message, *job.Result, job.ChatHistory)
	turn := ChatTurn{
		Timestamp: time.Now().UTC(),
		Query:     message,
		Response:  response,
	}
	if err := s.Registry.AppendChatTurn(ctx, jobID, turn); err != nil {
		return ChatTurn{}, err
	}
	return turn, nil
}

// History returns the chat transcript for a job.
func (s *Service) History(ctx context.Context, jobID string) ([]ChatTurn, error) {
	return s.Registry.ChatHistory(ctx, jobID)
}

// Graph builds the knowledge graph for a completed analysis.
func (s *Service) Graph(ctx context.Context, jobID string) (Graph, error) {
	job, err := s.Registry.Get(ctx, jobID)
	if err != nil {
		return Graph{}, err
	}
	if job.Status != StatusCompleted || job.Result == nil || job.Result.Empty() {
		return Graph{}, fmt.Errorf("%w: job %s has no completed analysis", ErrInvalidState, jobID)
	}
	return s.Graphs.Extract(ctx, *job.Result), nil
}
