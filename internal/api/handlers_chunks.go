package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/texchunk/internal/doctree"
	"github.com/dgallion1/texchunk/internal/generate"
	"github.com/dgallion1/texchunk/internal/registry"
)

const maxEditBytes = 1 << 20

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Document())
}

// handleSource returns the document regenerated from its active chunks.
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-tex; charset=utf-8")
	w.Write([]byte(generate.Generate(s.session.Document())))
}

// handlePartition lists one partition in order. ?active=false selects the
// standby pool; the default is the active one.
func (s *Server) handlePartition(w http.ResponseWriter, r *http.Request) {
	active := true
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "active must be a boolean", http.StatusBadRequest)
			return
		}
		active = b
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active": active,
		"chunks": s.session.Partition(active),
	})
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	c, err := s.session.Chunk(chi.URLParam(r, "chunkID"))
	if err != nil {
		s.chunkError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateChunk(w http.ResponseWriter, r *http.Request) {
	var in registry.NewChunkInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := s.session.NewChunk(in)
	if err != nil {
		s.chunkError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Delete(chi.URLParam(r, "chunkID")); err != nil {
		s.chunkError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content *string `json:"content"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Content == nil {
		jsonError(w, "content is required", http.StatusBadRequest)
		return
	}
	s.mutateAndReturn(w, chi.URLParam(r, "chunkID"), func(id string) error {
		return s.session.UpdateContent(id, *body.Content)
	})
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Order *int `json:"order"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Order == nil {
		jsonError(w, "order is required", http.StatusBadRequest)
		return
	}
	s.mutateAndReturn(w, chi.URLParam(r, "chunkID"), func(id string) error {
		return s.session.Reorder(id, *body.Order)
	})
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active *bool `json:"is_active"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Active == nil {
		jsonError(w, "is_active is required", http.StatusBadRequest)
		return
	}
	s.mutateAndReturn(w, chi.URLParam(r, "chunkID"), func(id string) error {
		return s.session.SetActive(id, *body.Active)
	})
}

// mutateAndReturn applies fn to the chunk and responds with its new state.
func (s *Server) mutateAndReturn(w http.ResponseWriter, id string, fn func(string) error) {
	if err := fn(id); err != nil {
		s.chunkError(w, err)
		return
	}
	c, err := s.session.Chunk(id)
	if err != nil {
		s.chunkError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) chunkError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, doctree.ErrChunkNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, registry.ErrInvalidType), errors.Is(err, registry.ErrSectionParent):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("chunk operation failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxEditBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
