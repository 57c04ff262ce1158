// Package registry holds the live document and the mutation operations that
// keep its ordering invariants intact.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dgallion1/texchunk/internal/doctree"
	"github.com/dgallion1/texchunk/internal/metadata"
)

var (
	ErrNilDocument   = errors.New("document is nil")
	ErrInvalidType   = errors.New("invalid chunk type")
	ErrSectionParent = errors.New("section chunks cannot have a parent")
)

// Registry owns one document. It is not safe for concurrent use; see Session.
type Registry struct {
	doc *doctree.Document
}

// New returns a registry holding an empty document.
func New() *Registry {
	return &Registry{doc: emptyDocument()}
}

func emptyDocument() *doctree.Document {
	return &doctree.Document{
		DocumentClass: doctree.DefaultDocumentClass,
		Packages:      []string{},
		Chunks:        []*doctree.Chunk{},
	}
}

// ReplaceAll swaps in doc wholesale. The registry keeps its own copy. If doc
// fails validation the previous document is left untouched.
func (r *Registry) ReplaceAll(doc *doctree.Document) error {
	if doc == nil {
		return ErrNilDocument
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	for _, c := range doc.Chunks {
		if !c.Type.Valid() {
			return fmt.Errorf("replace document: %w: %q on %s", ErrInvalidType, c.Type, c.ID)
		}
	}
	next := doc.Clone()
	if next.DocumentClass == "" {
		next.DocumentClass = doctree.DefaultDocumentClass
	}
	r.doc = next
	return nil
}

// Document returns a deep copy of the current document.
func (r *Registry) Document() *doctree.Document {
	return r.doc.Clone()
}

// Chunk returns a copy of the chunk with the given id.
func (r *Registry) Chunk(id string) (*doctree.Chunk, error) {
	c := r.doc.Find(id)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", doctree.ErrChunkNotFound, id)
	}
	return c.Clone(), nil
}

// Partition returns copies of the active or standby chunks in order.
func (r *Registry) Partition(active bool) []*doctree.Chunk {
	part := doctree.Partition(r.doc.Chunks, active)
	out := make([]*doctree.Chunk, len(part))
	for i, c := range part {
		out[i] = c.Clone()
	}
	return out
}

// Reorder moves a chunk to position target within its own partition. Target
// is clamped to the partition bounds. Only the chunks between the old and new
// positions are renumbered, reusing the order values they already held; the
// other partition is never touched. If the partition's order values are not
// strictly increasing (ties left by SetActive, for instance) the whole
// partition is renumbered from 0 instead.
func (r *Registry) Reorder(id string, target int) error {
	c := r.doc.Find(id)
	if c == nil {
		return fmt.Errorf("%w: %s", doctree.ErrChunkNotFound, id)
	}
	part := doctree.Partition(r.doc.Chunks, c.Active)
	from := slices.Index(part, c)
	target = max(0, min(target, len(part)-1))
	if from == target {
		return nil
	}

	strict := true
	for i := 1; i < len(part); i++ {
		if part[i].Order <= part[i-1].Order {
			strict = false
			break
		}
	}

	lo, hi := min(from, target), max(from, target)
	values := make([]int, 0, hi-lo+1)
	for _, p := range part[lo : hi+1] {
		values = append(values, p.Order)
	}

	moved := slices.Delete(slices.Clone(part), from, from+1)
	moved = slices.Insert(moved, target, c)

	if !strict {
		for i, p := range moved {
			p.Order = i
		}
		return nil
	}
	for i, p := range moved[lo : hi+1] {
		p.Order = values[i]
	}
	return nil
}

// SetActive moves a chunk between the active and standby sets. Its Order is
// kept as is.
func (r *Registry) SetActive(id string, active bool) error {
	c := r.doc.Find(id)
	if c == nil {
		return fmt.Errorf("%w: %s", doctree.ErrChunkNotFound, id)
	}
	c.Active = active
	return nil
}

// Delete removes one chunk. Chunks whose ParentID names it are kept as they
// are.
func (r *Registry) Delete(id string) error {
	i := slices.IndexFunc(r.doc.Chunks, func(c *doctree.Chunk) bool { return c.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", doctree.ErrChunkNotFound, id)
	}
	r.doc.Chunks = slices.Delete(r.doc.Chunks, i, i+1)
	return nil
}

// UpdateContent replaces a chunk's Content and RawSource with text. An edited
// section no longer carries child slots: its text is emitted exactly as
// given and its children follow it.
func (r *Registry) UpdateContent(id, text string) error {
	c := r.doc.Find(id)
	if c == nil {
		return fmt.Errorf("%w: %s", doctree.ErrChunkNotFound, id)
	}
	c.Content = text
	c.RawSource = text
	c.Slots = nil
	return nil
}

// NewChunkInput describes a chunk created by hand rather than by a parser.
type NewChunkInput struct {
	Type     doctree.ChunkType `json:"type"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	ParentID string            `json:"parent_id,omitempty"`
	Active   bool              `json:"is_active"`
}

// NewChunk appends a chunk with a fresh id at the end of its partition and
// returns a copy of it. Content doubles as the raw source.
func (r *Registry) NewChunk(in NewChunkInput) (*doctree.Chunk, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, in.Type)
	}
	if in.Type == doctree.TypeSection && in.ParentID != "" {
		return nil, ErrSectionParent
	}

	order := 0
	for _, c := range r.doc.Chunks {
		if c.Active == in.Active && c.Order >= order {
			order = c.Order + 1
		}
	}

	c := &doctree.Chunk{
		ID:        uuid.NewString(),
		Type:      in.Type,
		Title:     in.Title,
		Content:   strings.TrimSpace(in.Content),
		RawSource: in.Content,
		Order:     order,
		Active:    in.Active,
		ParentID:  in.ParentID,
		Tags:      []string{},
	}
	if in.Title != "" {
		c.Tags = []string{strings.ToLower(in.Title)}
	}
	if meta := metadata.Extract(in.Content); !meta.IsZero() {
		c.Metadata = &meta
	}
	r.doc.Chunks = append(r.doc.Chunks, c)
	return c.Clone(), nil
}
