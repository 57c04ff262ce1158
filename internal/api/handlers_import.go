package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/texchunk/internal/pipeline"
)

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	filename, route, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(filename, data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("import queued", "job_id", job.ID, "filename", filename, "route", route.String(), "bytes", len(data))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"route":    route.String(),
		"poll_url": fmt.Sprintf("/api/import/%s/status", job.ID),
	})
}

// handlePreview parses an upload synchronously and returns the document it
// would produce, leaving the session untouched.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	filename, route, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	doc, err := s.orchestrator.Importer().Import(r.Context(), bytes.NewReader(data), filename)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, pipeline.ErrUnsupportedFormat) {
			code = http.StatusBadRequest
		}
		jsonError(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"route":    route.String(),
		"document": doc,
	})
}

// readUpload reads the multipart "file" field, checking its format and size.
// On failure it has already written the error response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, pipeline.Route, []byte, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", 0, nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", 0, nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	route, err := pipeline.RouteFor(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return "", 0, nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", 0, nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", 0, nil, false
	}
	return filename, route, data, true
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Keep only the base name, whichever separator the client used.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
