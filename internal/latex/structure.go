package latex

import (
	"strings"

	"github.com/dgallion1/texchunk/internal/doctree"
)

// EntryFields is the number of brace groups in an inline entry:
// role, organization, start, end, location, description.
const EntryFields = 6

// Section is a top-level \section span inside a document body.
type Section struct {
	Start     int // Offset of the \section command
	HeaderEnd int // Offset just past the title group
	End       int // Offset of the next \section, or the end of the body
	Title     string
}

// Unit is a child span inside a section.
type Unit struct {
	Family doctree.Family
	Start  int
	End    int
	Title  string   // First captured group
	Fields []string // Entry fields, set for FamilyEntry only

	// Within is the index of the subsection unit that contains this one,
	// or -1 when the unit sits directly in the section.
	Within int
}

// SplitDocument cuts src at \begin{document} and \end{document}. When there
// is no \end{document} the body runs to the end of src. ok is false when no
// \begin{document} is present.
func SplitDocument(src string) (preamble, body string, ok bool) {
	cmds := Commands(src)
	bodyStart := -1
	for _, c := range cmds {
		if c.Name != "begin" {
			continue
		}
		groups, end := Args(src, c.End, 1)
		if len(groups) == 1 && strings.TrimSpace(groups[0].Text) == "document" {
			preamble = src[:c.Start]
			bodyStart = end
			break
		}
	}
	if bodyStart < 0 {
		return "", "", false
	}
	for _, c := range cmds {
		if c.Name != "end" || c.Start < bodyStart {
			continue
		}
		groups, _ := Args(src, c.End, 1)
		if len(groups) == 1 && strings.TrimSpace(groups[0].Text) == "document" {
			return preamble, src[bodyStart:c.Start], true
		}
	}
	return preamble, src[bodyStart:], true
}

// DocumentClass returns the first \documentclass name in src, or "".
func DocumentClass(src string) string {
	for _, c := range Commands(src) {
		if c.Name != "documentclass" {
			continue
		}
		if groups, _ := Args(src, c.End, 1); len(groups) == 1 {
			return strings.TrimSpace(groups[0].Text)
		}
	}
	return ""
}

// Packages returns every package named by \usepackage or \RequirePackage in
// source order. Comma lists are split; duplicates are kept.
func Packages(src string) []string {
	pkgs := []string{}
	for _, c := range Commands(src) {
		if c.Name != "usepackage" && c.Name != "RequirePackage" {
			continue
		}
		groups, _ := Args(src, c.End, 1)
		if len(groups) == 0 {
			continue
		}
		for _, name := range strings.Split(groups[0].Text, ",") {
			if name = strings.TrimSpace(name); name != "" {
				pkgs = append(pkgs, name)
			}
		}
	}
	return pkgs
}

// Sections finds the top-level section spans of body. Each span runs from its
// header to the next header or the end of body.
func Sections(body string) []Section {
	var secs []Section
	for _, c := range Commands(body) {
		if c.Name != "section" {
			continue
		}
		groups, end := Args(body, c.End, 1)
		if len(groups) == 0 {
			continue
		}
		secs = append(secs, Section{
			Start:     c.Start,
			HeaderEnd: end,
			Title:     strings.TrimSpace(groups[0].Text),
		})
	}
	for i := range secs {
		if i+1 < len(secs) {
			secs[i].End = secs[i+1].Start
		} else {
			secs[i].End = len(body)
		}
	}
	return secs
}

// Units scans raw from offset from for child units, one family at a time:
// subsection spans first, then \item spans, then six-field inline entries.
// Within a family units are in source order. The families are scanned
// independently, so an \item or entry under a \subsection is a unit of its
// own nested in that subsection (see Unit.Within). An \item inside the
// arguments of an entry belongs to that entry, and a unit that straddles a
// subsection boundary is dropped. Two units are therefore either disjoint or
// one is a subsection holding the other.
func Units(raw string, from int) []Unit {
	var cmds []Command
	for _, c := range Commands(raw) {
		if c.Start >= from {
			cmds = append(cmds, c)
		}
	}

	var subs []Unit
	for _, c := range cmds {
		if c.Name != "subsection" {
			continue
		}
		groups, _ := Args(raw, c.End, 1)
		if len(groups) == 0 {
			continue
		}
		subs = append(subs, Unit{
			Family: doctree.FamilySubsection,
			Start:  c.Start,
			Title:  strings.TrimSpace(groups[0].Text),
			Within: -1,
		})
	}
	for i := range subs {
		if i+1 < len(subs) {
			subs[i].End = subs[i+1].Start
		} else {
			subs[i].End = len(raw)
		}
	}

	candidates := entryCandidates(raw, cmds)

	var items []Unit
	for i, c := range cmds {
		if c.Name != "item" || claimed(candidates, c.Start) {
			continue
		}
		end := len(raw)
		for _, next := range cmds[i+1:] {
			if isItemBoundary(next.Name) {
				end = next.Start
				break
			}
		}
		for _, e := range candidates {
			if e.Start > c.Start && e.Start < end {
				end = e.Start
				break
			}
		}
		for _, s := range subs {
			if s.Start > c.Start && s.Start < end {
				end = s.Start
				break
			}
		}
		bodyStart := SkipOptional(raw, c.End)
		items = append(items, Unit{
			Family: doctree.FamilyItem,
			Start:  c.Start,
			End:    end,
			Title:  strings.TrimSpace(raw[bodyStart:end]),
		})
	}

	var entries []Unit
	for _, e := range candidates {
		if claimed(items, e.Start) {
			continue
		}
		entries = append(entries, e)
	}

	units := make([]Unit, 0, len(subs)+len(items)+len(entries))
	units = append(units, subs...)
	for _, u := range append(items, entries...) {
		within, ok := enclosing(subs, u)
		if !ok {
			continue
		}
		u.Within = within
		units = append(units, u)
	}
	return units
}

// enclosing returns the index of the subsection holding u, or -1 when u lies
// outside every subsection. ok is false when u straddles a subsection edge.
func enclosing(subs []Unit, u Unit) (int, bool) {
	for i, s := range subs {
		if u.End <= s.Start || u.Start >= s.End {
			continue
		}
		if u.Start >= s.Start && u.End <= s.End {
			return i, true
		}
		return -1, false
	}
	return -1, true
}

// ParseEntry reads a six-field inline entry at the start of text (after
// leading whitespace). ok is false when text does not begin with one.
func ParseEntry(text string) (fields []string, ok bool) {
	cmds := Commands(text)
	if len(cmds) == 0 || strings.TrimSpace(text[:cmds[0].Start]) != "" {
		return nil, false
	}
	c := cmds[0]
	if !entryName(c.Name) {
		return nil, false
	}
	groups, _ := Args(text, c.End, EntryFields)
	if len(groups) != EntryFields {
		return nil, false
	}
	return groupTexts(groups), true
}

func entryCandidates(raw string, cmds []Command) []Unit {
	var out []Unit
	last := -1
	for _, c := range cmds {
		if c.Start < last || !entryName(c.Name) {
			continue
		}
		groups, end := Args(raw, c.End, EntryFields)
		if len(groups) != EntryFields {
			continue
		}
		fields := groupTexts(groups)
		out = append(out, Unit{
			Family: doctree.FamilyEntry,
			Start:  c.Start,
			End:    end,
			Title:  fields[0],
			Fields: fields,
		})
		last = end
	}
	return out
}

func groupTexts(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = strings.TrimSpace(g.Text)
	}
	return out
}

func entryName(name string) bool {
	switch name {
	case "section", "subsection", "item", "begin", "end":
		return false
	}
	return true
}

func isItemBoundary(name string) bool {
	switch name {
	case "item", "subsection", "section", "end":
		return true
	}
	return false
}

func claimed(units []Unit, pos int) bool {
	for _, u := range units {
		if pos >= u.Start && pos < u.End {
			return true
		}
	}
	return false
}
