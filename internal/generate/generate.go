// Package generate projects a document's active chunks back into LaTeX.
package generate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dgallion1/texchunk/internal/doctree"
)

const (
	beginDocument = `\begin{document}`
	endDocument   = "\\end{document}\n"
)

// Generate returns the LaTeX for doc: the preamble, \begin{document}, the
// lead, every active section in order with its active children, and
// \end{document}. It does not modify doc.
//
// A section that recorded child slots at parse time has its active children
// spliced back into the slots of their own family, in active order; slots of
// standby or deleted children emit nothing. A subsection child holding nested
// units splices them the same way inside its own text, and its nested units
// are written only through it. Children without a slot follow their section.
// A child whose parent is not a section in doc is emitted on its own at its
// position in the active order; a child of a standby section is not emitted.
func Generate(doc *doctree.Document) string {
	active := doctree.Partition(doc.Chunks, true)

	byID := make(map[string]*doctree.Chunk, len(doc.Chunks))
	for _, c := range doc.Chunks {
		byID[c.ID] = c
	}

	children := make(map[string][]*doctree.Chunk)
	for _, c := range active {
		if c.Type == doctree.TypeSection || !hasSectionParent(c, byID) {
			continue
		}
		children[c.ParentID] = append(children[c.ParentID], c)
	}
	containers := make(map[string][]*doctree.Chunk)
	for _, c := range doc.Chunks {
		if c.Type != doctree.TypeSection && len(c.Slots) > 0 && hasSectionParent(c, byID) {
			containers[c.ParentID] = append(containers[c.ParentID], c)
		}
	}

	var sb strings.Builder
	sb.WriteString(doc.Preamble)
	sb.WriteString(beginDocument)
	sb.WriteString(doc.Lead)
	for _, c := range active {
		switch {
		case c.Type == doctree.TypeSection:
			writeSection(&sb, c, children[c.ID], containers[c.ID])
		case hasSectionParent(c, byID):
			// Written with its section, or dropped with it.
		default:
			sb.WriteString(c.RawSource)
		}
	}
	sb.WriteString(endDocument)
	return sb.String()
}

func hasSectionParent(c *doctree.Chunk, byID map[string]*doctree.Chunk) bool {
	if c.ParentID == "" {
		return false
	}
	p, ok := byID[c.ParentID]
	return ok && p.Type == doctree.TypeSection
}

// writeSection writes sec followed or interleaved with kids, which are in
// active order. containers are the section's children, active or not, that
// carry slots of their own.
func writeSection(sb *strings.Builder, sec *doctree.Chunk, kids, containers []*doctree.Chunk) {
	sp := &splicer{
		sb:     sb,
		slots:  make(map[string][]doctree.Slot),
		queues: make(map[slotKey][]*doctree.Chunk),
		live:   make(map[string]bool, len(kids)),
	}

	// Each slotted id belongs to the container whose valid slots name it.
	owner := make(map[string]slotKey)
	for _, c := range append([]*doctree.Chunk{sec}, containers...) {
		slots := slices.SortedFunc(slices.Values(c.Slots), func(a, b doctree.Slot) int {
			return cmp.Compare(a.Start, b.Start)
		})
		if !slotsValid(slots, len(c.RawSource)) {
			continue
		}
		sp.slots[c.ID] = slots
		for _, s := range slots {
			owner[s.ID] = slotKey{container: c.ID, family: s.Family}
		}
	}

	// Queue the slotted kids per container and family; the rest trail the
	// section.
	var trailing []*doctree.Chunk
	for _, k := range kids {
		sp.live[k.ID] = true
		if key, ok := owner[k.ID]; ok {
			sp.queues[key] = append(sp.queues[key], k)
			continue
		}
		trailing = append(trailing, k)
	}

	sp.write(sec)
	for _, k := range trailing {
		sp.write(k)
	}
}

type slotKey struct {
	container string
	family    doctree.Family
}

type splicer struct {
	sb     *strings.Builder
	slots  map[string][]doctree.Slot // Sorted, valid slots per container id
	queues map[slotKey][]*doctree.Chunk
	live   map[string]bool
}

// write emits c, filling each live slot it holds with the next queued kid of
// the slot's family.
func (sp *splicer) write(c *doctree.Chunk) {
	slots, ok := sp.slots[c.ID]
	if !ok {
		sp.sb.WriteString(c.RawSource)
		return
	}
	raw := c.RawSource
	pos := 0
	for _, s := range slots {
		sp.sb.WriteString(raw[pos:s.Start])
		pos = s.End
		key := slotKey{container: c.ID, family: s.Family}
		q := sp.queues[key]
		if !sp.live[s.ID] || len(q) == 0 {
			continue
		}
		sp.queues[key] = q[1:]
		sp.write(q[0])
	}
	sp.sb.WriteString(raw[pos:])
}

// slotsValid reports whether sorted slots are non-empty, do not overlap and
// lie inside a raw text of length n.
func slotsValid(slots []doctree.Slot, n int) bool {
	if len(slots) == 0 {
		return false
	}
	pos := 0
	for _, s := range slots {
		if s.Start < pos || s.End < s.Start || s.End > n {
			return false
		}
		pos = s.End
	}
	return true
}
