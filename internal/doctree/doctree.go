package doctree

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// DefaultDocumentClass is used when the source declares no \documentclass.
const DefaultDocumentClass = "article"

var (
	ErrChunkNotFound = errors.New("chunk not found")
	ErrDuplicateID   = errors.New("duplicate chunk id")
	ErrEmptyID       = errors.New("chunk id is empty")
)

// ChunkType is the structural role of a chunk.
type ChunkType string

const (
	TypeSection    ChunkType = "section"
	TypeSubsection ChunkType = "subsection"
	TypeItem       ChunkType = "item"
)

// Valid reports whether t is one of the known chunk types.
func (t ChunkType) Valid() bool {
	switch t {
	case TypeSection, TypeSubsection, TypeItem:
		return true
	}
	return false
}

// Family names the pattern family that produced an item chunk.
type Family string

const (
	FamilySubsection Family = "subsection"
	FamilyItem       Family = "item"
	FamilyEntry      Family = "entry"
)

// Metadata holds shallow hints pulled out of chunk text.
// An empty field means "not detected".
type Metadata struct {
	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`
	Dates    string `json:"dates,omitempty"`
	Location string `json:"location,omitempty"`
}

// IsZero reports whether nothing was detected.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Slot records where a child unit sat inside its container's RawSource, so
// the generator can splice the child's current text back in place.
type Slot struct {
	ID     string `json:"id"`
	Family Family `json:"family"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Chunk is an atomic, independently orderable unit of document content.
type Chunk struct {
	ID        string    `json:"id"`
	Type      ChunkType `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	RawSource string    `json:"raw_source_text"` // Verbatim source; the unit of truth for regeneration
	Order     int       `json:"order"`           // Meaningful only among chunks with the same Active value
	Active    bool      `json:"is_active"`
	ParentID  string    `json:"parent_id,omitempty"` // Weak reference by id, sections never set it
	Tags      []string  `json:"tags"`
	Metadata  *Metadata `json:"metadata,omitempty"`

	// Slots is set on structurally parsed sections, and on subsection items
	// that hold nested units. Offsets are relative to this chunk's RawSource.
	Slots []Slot `json:"slots,omitempty"`
}

// Clone returns a deep copy of c.
func (c *Chunk) Clone() *Chunk {
	out := *c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.Metadata != nil {
		m := *c.Metadata
		out.Metadata = &m
	}
	if c.Slots != nil {
		out.Slots = append([]Slot(nil), c.Slots...)
	}
	return &out
}

// Document is the parse and regeneration unit.
type Document struct {
	Preamble      string   `json:"preamble"`
	DocumentClass string   `json:"document_class"`
	Packages      []string `json:"packages"`

	// Lead is the body text between \begin{document} and the first section,
	// typically the name and contact block.
	Lead string `json:"lead,omitempty"`

	Chunks []*Chunk `json:"chunks"`
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{
		Preamble:      d.Preamble,
		DocumentClass: d.DocumentClass,
		Packages:      append([]string{}, d.Packages...),
		Lead:          d.Lead,
		Chunks:        make([]*Chunk, 0, len(d.Chunks)),
	}
	for _, c := range d.Chunks {
		out.Chunks = append(out.Chunks, c.Clone())
	}
	return out
}

// Find returns the chunk with the given id, or nil.
func (d *Document) Find(id string) *Chunk {
	for _, c := range d.Chunks {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Validate checks the id invariants of the chunk collection.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Chunks))
	for _, c := range d.Chunks {
		if c.ID == "" {
			return ErrEmptyID
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// Partition returns the chunks whose Active flag equals active, ordered by
// Order. Ties keep their relative position in chunks.
func Partition(chunks []*Chunk, active bool) []*Chunk {
	var out []*Chunk
	for _, c := range chunks {
		if c.Active == active {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b *Chunk) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}
