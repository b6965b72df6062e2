package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hookcode/internal/diff"
	"hookcode/internal/model"
	"hookcode/internal/store"
)

// ErrorResponse is an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RunsResponse is the body of GET /v1/runs.
type RunsResponse struct {
	Runs     []store.RunSummary `json:"runs"`
	Warnings []string           `json:"warnings,omitempty"`
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err string, msg string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleListRuns returns run summaries, newest first. Query parameters:
// provider, limit.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	provider, err := model.ParseProvider(r.URL.Query().Get("provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer")
			return
		}
	}

	result, err := store.ListRuns(store.ListOptions{
		Root:       s.config.RunsDir,
		Provider:   provider,
		Limit:      limit,
		MaxSummary: 120,
	})
	if err != nil {
		log.Printf("server: list runs: %v", err)
		writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}

	resp := RunsResponse{Runs: result.Summaries}
	if resp.Runs == nil {
		resp.Runs = []store.RunSummary{}
	}
	for _, warning := range result.Warnings {
		resp.Warnings = append(resp.Warnings, warning.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, chi.URLParam(r, "runID"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run.Document())
}

// handleGetDiff renders one file diff of a file_change item. The context
// query parameter overrides the configured context lines.
func (s *Server) handleGetDiff(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "index must be a non-negative integer")
		return
	}
	contextLines := s.config.ContextLines
	if raw := r.URL.Query().Get("context"); raw != "" {
		contextLines, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "context must be an integer")
			return
		}
	}

	run, ok := s.loadRun(w, chi.URLParam(r, "runID"))
	if !ok {
		return
	}

	itemID := chi.URLParam(r, "itemID")
	item, found := run.Timeline.Item(itemID)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "item not found: "+itemID)
		return
	}
	fc, isFile := item.(model.FileChange)
	if !isFile {
		writeError(w, http.StatusNotFound, "not_found", "item is not a file change: "+itemID)
		return
	}
	if index >= len(fc.Diffs) {
		writeError(w, http.StatusNotFound, "not_found", "diff index out of range")
		return
	}

	result, err := diff.ForFile(fc.Diffs[index], contextLines)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "diff_error", err.Error())
		return
	}
	if result.Hunks == nil {
		result.Hunks = []diff.Hunk{}
	}
	writeJSON(w, http.StatusOK, result)
}

// loadRun resolves and reduces a run, writing the error response itself.
func (s *Server) loadRun(w http.ResponseWriter, runID string) (store.Run, bool) {
	path, err := store.FindRunPath(s.config.RunsDir, runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
		}
		return store.Run{}, false
	}

	start := time.Now()
	run, err := store.LoadRun(path)
	runLoadDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("server: load run %s: %v", runID, err)
		writeError(w, http.StatusInternalServerError, "load_failed", err.Error())
		return store.Run{}, false
	}

	skipped := len(run.Report.Skipped)
	linesTotal.WithLabelValues("applied").Add(float64(run.Report.Lines - skipped))
	linesTotal.WithLabelValues("skipped").Add(float64(skipped))
	return run, true
}
