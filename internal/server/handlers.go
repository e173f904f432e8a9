package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/podcast-scripter/internal/db"
	"github.com/jonathan/podcast-scripter/internal/outline"
	"github.com/jonathan/podcast-scripter/internal/pipeline"
	"github.com/jonathan/podcast-scripter/internal/retry"
)

// GenerateRequest is the body of POST /generate/stream.
type GenerateRequest struct {
	Topic         string `json:"topic"`
	Material      string `json:"material,omitempty"`
	Outline       string `json:"outline,omitempty"`
	TargetMinutes int    `json:"target_minutes,omitempty"`
	HostA         string `json:"host_a,omitempty"`
	HostB         string `json:"host_b,omitempty"`
	MaxAttempts   int    `json:"max_attempts,omitempty"`
}

// ParseOutlineRequest is the body of POST /outline/parse.
type ParseOutlineRequest struct {
	Outline string `json:"outline"`
}

// sseNotifier forwards pipeline notifications as SSE events.
type sseNotifier struct {
	sse *SSEWriter
}

func (n *sseNotifier) Info(message string) {
	n.sse.WriteEvent("info", map[string]string{"message": message}) //nolint:errcheck
}

func (n *sseNotifier) Success(message string) {
	n.sse.WriteEvent("success", map[string]string{"message": message}) //nolint:errcheck
}

func (n *sseNotifier) Error(message string) {
	n.sse.WriteEvent("warning", map[string]string{"message": message}) //nolint:errcheck
}

// handleGenerateStream runs the full outline-to-script flow and streams
// progress via SSE
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Topic == "" && req.Outline == "" {
		s.errorResponse(w, http.StatusBadRequest, "Either topic or outline is required")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := r.Context()

	runID := uuid.Nil
	var store pipeline.ArtifactStore
	if s.db != nil {
		id, err := s.db.CreateRun(ctx, req.Topic, "")
		if err != nil {
			log.Printf("Failed to create run record: %v", err)
		} else {
			runID = id
			store = s.db
		}
	}

	orch := pipeline.New(pipeline.Config{
		Client:      s.client,
		RetryPolicy: retry.DefaultPolicy(),
		Notifier:    &sseNotifier{sse: sse},
		Progress: pipeline.ProgressFunc(func(stageID string, percent float64) {
			sse.WriteEvent("progress", map[string]any{ //nolint:errcheck
				"stage":   stageID,
				"percent": percent,
			})
		}),
		Store:       store,
		RunID:       runID,
		MaxAttempts: req.MaxAttempts,
		HostA:       req.HostA,
		HostB:       req.HostB,
	})

	log.Printf("Starting streaming script run...")

	outlineText := req.Outline
	var parsed *outline.Outline
	if outlineText == "" {
		parsed, outlineText, err = orch.GenerateOutline(ctx, pipeline.OutlineBrief{
			Topic:         req.Topic,
			Material:      req.Material,
			TargetMinutes: req.TargetMinutes,
		})
	} else {
		parsed, err = outline.Parse(outlineText)
	}
	if err != nil {
		s.finishRun(ctx, runID, err)
		sse.WriteError(err.Error())
		return
	}
	sse.WriteEvent("outline", map[string]any{ //nolint:errcheck
		"text":     outlineText,
		"sections": parsed.Sections,
	})

	result, err := orch.GenerateScript(ctx, parsed.Sections)
	if err != nil {
		s.finishRun(ctx, runID, err)
		// Partial sections already streamed via the buffer are included
		// so the client keeps what was produced before the failure.
		sse.WriteEvent("partial", map[string]any{ //nolint:errcheck
			"sections": orch.Buffer().Sections(),
		})
		sse.WriteError(err.Error())
		return
	}

	sse.WriteEvent("script", map[string]any{ //nolint:errcheck
		"script":         result.Script,
		"total_attempts": result.TotalAttempts,
		"usage":          result.Usage,
	})
	s.finishRun(ctx, runID, nil)
	sse.WriteComplete(runID.String(), db.StatusCompleted)
}

// handleParseOutline parses outline text into leaf sections without
// running any generation
func (s *Server) handleParseOutline(w http.ResponseWriter, r *http.Request) {
	var req ParseOutlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Outline == "" {
		s.errorResponse(w, http.StatusBadRequest, "outline is required")
		return
	}

	parsed, err := outline.Parse(req.Outline)
	if err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, parsed)
}

// handleListRuns returns recent episode runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	runs, err := s.db.ListRuns(r.Context(), 50)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns one episode run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := s.db.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleRunArtifacts lists a run's artifacts
func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run id")
		return
	}
	artifacts, err := s.db.ListArtifacts(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"artifacts": artifacts})
}

// handleRunScript returns a run's final script as plain text
func (s *Server) handleRunScript(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run id")
		return
	}
	script, err := s.db.GetTextArtifact(r.Context(), runID, pipeline.StepScriptFinal)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if script == "" {
		s.errorResponse(w, http.StatusNotFound, "no final script for run")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(script))
}

// finishRun records the run's terminal status when persistence is active
func (s *Server) finishRun(ctx context.Context, runID uuid.UUID, runErr error) {
	if s.db == nil || runID == uuid.Nil {
		return
	}

	status := db.StatusCompleted
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		status = db.StatusCancelled
	case runErr != nil:
		status = db.StatusFailed
	}

	// The request context is gone when the client disconnected; use a
	// detached context so the status update still lands.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := s.db.CompleteRun(ctx, runID, status); err != nil {
		log.Printf("Failed to mark run %s %s: %v", runID, status, err)
	}
}
