package parser

import (
	"fmt"
	"strings"

	"github.com/dgallion1/texchunk/internal/doctree"
	"github.com/dgallion1/texchunk/internal/latex"
	"github.com/dgallion1/texchunk/internal/metadata"
)

// idCounter hands out section ids for one parse call.
type idCounter struct {
	sections int
}

func (c *idCounter) nextSection() string {
	id := fmt.Sprintf("section-%d", c.sections)
	c.sections++
	return id
}

func itemID(parentID string, k int) string {
	return fmt.Sprintf("%s-item-%d", parentID, k)
}

// ParseStructural splits LaTeX source into a preamble and an ordered chunk
// list. Each \section becomes a section chunk immediately followed by the
// item chunks found inside it, including those nested under a \subsection.
// It never fails: missing constructs leave the corresponding fields at their
// defaults.
//
// Source without \begin{document} is read as a fragment, see splitFragment.
func ParseStructural(src string) *doctree.Document {
	doc := &doctree.Document{
		DocumentClass: doctree.DefaultDocumentClass,
		Packages:      []string{},
		Chunks:        []*doctree.Chunk{},
	}

	preamble, body, ok := latex.SplitDocument(src)
	if !ok {
		preamble, body = splitFragment(src)
	}
	doc.Preamble = preamble
	if class := latex.DocumentClass(preamble); class != "" {
		doc.DocumentClass = class
	}
	doc.Packages = latex.Packages(preamble)

	secs := latex.Sections(body)
	if len(secs) == 0 {
		doc.Lead = body
		return doc
	}
	doc.Lead = body[:secs[0].Start]

	var ids idCounter
	for _, s := range secs {
		raw := body[s.Start:s.End]
		contentStart := s.HeaderEnd - s.Start

		sec := &doctree.Chunk{
			ID:        ids.nextSection(),
			Type:      doctree.TypeSection,
			Title:     s.Title,
			Content:   strings.TrimSpace(raw[contentStart:]),
			RawSource: raw,
			Active:    true,
			Tags:      titleTags(s.Title),
		}
		doc.Chunks = append(doc.Chunks, sec)

		units := latex.Units(raw, contentStart)
		chunks := make([]*doctree.Chunk, len(units))
		for k, u := range units {
			span := raw[u.Start:u.End]
			id := itemID(sec.ID, k)
			meta := metadata.Extract(span)

			title := meta.Position
			if title == "" {
				title = u.Title
			}
			if title == "" {
				title = "Item"
			}

			item := &doctree.Chunk{
				ID:        id,
				Type:      doctree.TypeItem,
				Title:     title,
				Content:   strings.TrimSpace(span),
				RawSource: span,
				Active:    true,
				ParentID:  sec.ID,
				Tags:      itemTags(u.Family, title),
			}
			if !meta.IsZero() {
				item.Metadata = &meta
			}
			doc.Chunks = append(doc.Chunks, item)
			chunks[k] = item

			// Nested units are spliced back through the subsection that
			// holds them, so their slots are relative to its text.
			owner, base := sec, 0
			if u.Within >= 0 {
				owner, base = chunks[u.Within], units[u.Within].Start
			}
			owner.Slots = append(owner.Slots, doctree.Slot{
				ID:     id,
				Family: u.Family,
				Start:  u.Start - base,
				End:    u.End - base,
			})
		}
	}

	for i, c := range doc.Chunks {
		c.Order = i
	}
	return doc
}

// splitFragment handles source without \begin{document}. Text before the first
// \section is the preamble (trimmed) and the sections form the body; without
// any section the whole text is preamble.
func splitFragment(src string) (preamble, body string) {
	secs := latex.Sections(src)
	if len(secs) == 0 {
		return strings.TrimSpace(src), ""
	}
	return strings.TrimSpace(src[:secs[0].Start]), src[secs[0].Start:]
}

// itemTags tags an item with its family and its lower-cased title.
func itemTags(family doctree.Family, title string) []string {
	tags := []string{string(family)}
	if t := strings.ToLower(title); t != string(family) {
		tags = append(tags, t)
	}
	return tags
}

func titleTags(title string) []string {
	if title == "" {
		return []string{}
	}
	return []string{strings.ToLower(title)}
}
