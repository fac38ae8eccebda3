package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/course-compass/internal/discussion"
	"github.com/jonathan/course-compass/internal/pipeline"
	"github.com/jonathan/course-compass/internal/progress"
	"github.com/jonathan/course-compass/internal/ratings"
	"github.com/jonathan/course-compass/internal/types"
)

// AnalyzeRequest is the request body for analysis runs
type AnalyzeRequest struct {
	Topic               string `json:"topic" validate:"required,min=2"`
	MaxThreads          int    `json:"max_threads" validate:"omitempty,min=1,max=50"`
	MaxRepliesPerThread int    `json:"max_replies_per_thread" validate:"omitempty,min=1,max=200"`
	TargetedLookup      *bool  `json:"targeted_lookup"`
	Institution         string `json:"institution"`
	SessionID           string `json:"session_id"`
}

// SearchResponse wraps discussion search passthrough results
type SearchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Threads []types.Thread `json:"threads"`
}

// SubjectsResponse lists subject codes available in the review database
type SubjectsResponse struct {
	Count    int      `json:"count"`
	Subjects []string `json:"subjects"`
}

// ProgressResponse is a page of a session's progress event log
type ProgressResponse struct {
	SessionID string                `json:"session_id"`
	Next      int                   `json:"next"`
	Events    []types.ProgressEvent `json:"events"`
}

// decodeAnalyzeRequest parses and validates the request body, applying
// defaults for omitted fields.
func (s *Server) decodeAnalyzeRequest(r *http.Request) (*AnalyzeRequest, error) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := s.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ErrValidation{
				Field:   strings.ToLower(verrs[0].Field()),
				Message: "failed on the '" + verrs[0].Tag() + "' rule",
			}
		}
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}

	if req.Institution == "" {
		req.Institution = ratings.DefaultInstitution
	}
	return &req, nil
}

// runOptions maps a validated request onto pipeline options.
func (req *AnalyzeRequest) runOptions() pipeline.Options {
	targeted := true
	if req.TargetedLookup != nil {
		targeted = *req.TargetedLookup
	}
	return pipeline.Options{
		Topic:               req.Topic,
		MaxThreads:          req.MaxThreads,
		MaxRepliesPerThread: req.MaxRepliesPerThread,
		TargetedLookup:      targeted,
		InstitutionName:     req.Institution,
		SessionID:           req.SessionID,
	}
}

// handleAnalyze runs the full analysis synchronously and returns the result
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAnalyzeRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	log.Printf("Starting analysis run for %q", req.Topic)

	result, err := s.runner.Run(r.Context(), req.runOptions())
	if result == nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusOK
	if result.Outcome == pipeline.OutcomeFailure {
		status = http.StatusBadGateway
	}
	s.jsonResponse(w, status, result)
}

// handleAnalyzeStream runs the analysis and streams progress via SSE,
// ending with a terminal complete or error event.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAnalyzeRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Register the session before the run goroutine starts so the reader
	// below sees a live session instead of immediate end-of-stream.
	zero := 0
	s.progress.Emit(req.SessionID, "ACCEPTED", "analysis accepted", &zero)
	sse.WriteEvent("session", map[string]string{"session_id": req.SessionID}) //nolint:errcheck

	log.Printf("Starting streaming analysis run for %q (session %s)", req.Topic, req.SessionID)

	type runOutcome struct {
		result *pipeline.Result
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		result, runErr := s.runner.Run(r.Context(), req.runOptions())
		if result == nil {
			// The run rejected its options before installing its own
			// cleanup; drop the session the accepted event created.
			s.progress.Cleanup(req.SessionID)
		}
		done <- runOutcome{result: result, err: runErr}
	}()

	// The stream closes when the run cleans its session up. Delivery is
	// best-effort; the terminal event below carries the full result.
	stream := progress.NewReader(s.progress, req.SessionID).Stream(r.Context())
	for ev := range stream {
		if err := sse.WriteEvent("progress", ev); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}

	out := <-done
	if out.result == nil {
		sse.WriteError(out.err.Error())
		return
	}
	sse.WriteComplete(out.result)
	log.Printf("Streaming analysis run completed (session %s)", req.SessionID)
}

// handleProgress returns a session's progress events from an index
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	from := 0
	if v := r.URL.Query().Get("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.errorResponse(w, http.StatusBadRequest, "from must be a non-negative integer")
			return
		}
		from = n
	}

	events, ok := s.progress.Events(session, from)
	if !ok {
		err := &ErrSessionNotFound{Session: session}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, ProgressResponse{
		SessionID: session,
		Next:      from + len(events),
		Events:    events,
	})
}

// handleSearch is a passthrough to the discussion connector's search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.errorResponse(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := discussion.DefaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	threads, err := s.threads.Search(r.Context(), query, limit)
	if err != nil {
		uerr := &ErrUpstream{Name: "discussion", Err: err}
		s.errorResponse(w, HTTPStatus(uerr), uerr.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, SearchResponse{
		Query:   query,
		Count:   len(threads),
		Threads: threads,
	})
}

// handleThreadReplies fetches one thread with its reply tree
func (s *Server) handleThreadReplies(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	maxReplies := pipeline.DefaultMaxRepliesPerThread
	if v := r.URL.Query().Get("max_replies"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.errorResponse(w, http.StatusBadRequest, "max_replies must be a positive integer")
			return
		}
		maxReplies = n
	}

	thread, err := s.threads.FetchThread(r.Context(), id, maxReplies)
	if err != nil {
		uerr := &ErrUpstream{Name: "discussion", Err: err}
		s.errorResponse(w, HTTPStatus(uerr), uerr.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, thread)
}

// handleSubjects lists the subject codes present in the review database
func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.reviews.ListAvailableSubjects(r.Context())
	if err != nil {
		uerr := &ErrUpstream{Name: "review database", Err: err}
		s.errorResponse(w, HTTPStatus(uerr), uerr.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, SubjectsResponse{
		Count:    len(subjects),
		Subjects: subjects,
	})
}

// handleSubjectSummary returns aggregate review statistics for one subject
func (s *Server) handleSubjectSummary(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	summary, err := s.reviews.Summary(r.Context(), code)
	if err != nil {
		uerr := &ErrUpstream{Name: "review database", Err: err}
		s.errorResponse(w, HTTPStatus(uerr), uerr.Error())
		return
	}
	if !summary.Found {
		nerr := &ErrSubjectNotFound{Subject: summary.SubjectCode}
		s.errorResponse(w, HTTPStatus(nerr), nerr.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, summary)
}
