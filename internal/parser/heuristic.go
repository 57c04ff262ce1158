package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/texchunk/internal/doctree"
	"github.com/dgallion1/texchunk/internal/latex"
	"github.com/dgallion1/texchunk/internal/metadata"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPreamble is used for documents built from extracted text, which
// carries no class or package declarations of its own.
const DefaultPreamble = `\documentclass[11pt]{article}
\usepackage[margin=0.75in]{geometry}
\usepackage[T1]{fontenc}
\usepackage{enumitem}
\usepackage{hyperref}
\setlength{\parindent}{0pt}
\pagestyle{empty}
`

// FallbackTitle names the single section emitted when no header is found.
const FallbackTitle = "Resume Content"

// maxSubheadingLen is the rune length under which a capitalized line is
// treated as a subheading.
const maxSubheadingLen = 100

// Matched against the cleaned, lower-cased line.
var sectionHeaders = []*regexp.Regexp{
	regexp.MustCompile(`^(work |professional |relevant )?experience$`),
	regexp.MustCompile(`^(employment|work) history$`),
	regexp.MustCompile(`^education( and training)?$`),
	regexp.MustCompile(`^(technical |core |key )?skills( and (abilities|interests))?$`),
	regexp.MustCompile(`^(personal |selected |key )?projects$`),
	regexp.MustCompile(`^(certifications?|licenses)( (and )?(certifications|licenses))?$`),
	regexp.MustCompile(`^(awards|honors)( (and )?(awards|honors))?$`),
	regexp.MustCompile(`^(professional |career )?(summary|profile|objective)$`),
	regexp.MustCompile(`^publications$`),
	regexp.MustCompile(`^volunteer(ing| experience| work)?$`),
	regexp.MustCompile(`^languages$`),
}

var (
	leadingNonLetters = regexp.MustCompile(`^[^\p{L}]+`)
	nonAlphanumeric   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	bulletGlyphs      = []string{"•", "●", "▪", "◦", "-", "*"}
)

// ParseHeuristic segments flat extracted text into section chunks, inferring
// boundaries from known header keywords and synthesizing equivalent LaTeX for
// each section. Lines before the first header become the document lead.
func ParseHeuristic(text string) *doctree.Document {
	doc := &doctree.Document{
		Preamble:      DefaultPreamble,
		DocumentClass: latex.DocumentClass(DefaultPreamble),
		Packages:      latex.Packages(DefaultPreamble),
		Chunks:        []*doctree.Chunk{},
	}

	lines := splitLines(text)

	var (
		ids     idCounter
		lead    []string
		title   string
		body    []string
		started bool
	)
	flush := func() {
		if !started {
			return
		}
		content := strings.Join(body, "\n")
		c := &doctree.Chunk{
			ID:        ids.nextSection(),
			Type:      doctree.TypeSection,
			Title:     title,
			Content:   content,
			RawSource: sectionSource(title, body),
			Active:    true,
			Tags:      titleTags(title),
		}
		if meta := metadata.Extract(content); !meta.IsZero() {
			c.Metadata = &meta
		}
		doc.Chunks = append(doc.Chunks, c)
		body = nil
	}

	for _, line := range lines {
		if isSectionHeader(line) {
			flush()
			title = CleanTitle(line)
			started = true
			continue
		}
		if started {
			body = append(body, line)
		} else {
			lead = append(lead, line)
		}
	}
	flush()

	if !started {
		doc.Chunks = append(doc.Chunks, &doctree.Chunk{
			ID:        ids.nextSection(),
			Type:      doctree.TypeSection,
			Title:     FallbackTitle,
			Content:   text,
			RawSource: sectionSource(FallbackTitle, lines),
			Active:    true,
			Tags:      []string{"imported"},
		})
	} else if len(lead) > 0 {
		doc.Lead = "\n" + ConvertLines(lead)
	}

	for i, c := range doc.Chunks {
		c.Order = i
	}
	return doc
}

// CleanTitle strips leading non-letters and non-alphanumeric characters from
// a header line and title-cases each word.
func CleanTitle(line string) string {
	s := leadingNonLetters.ReplaceAllString(line, "")
	s = nonAlphanumeric.ReplaceAllString(s, "")
	// A Caser keeps state, so each call gets its own.
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}

// ConvertLines turns plain lines into LaTeX. Bulleted lines become \item
// entries inside an itemize environment, short capitalized lines become
// \subsection headers and everything else becomes an escaped line ending in
// a line break.
func ConvertLines(lines []string) string {
	var sb strings.Builder
	inList := false
	for _, line := range lines {
		if text, ok := stripBullet(line); ok {
			if !inList {
				sb.WriteString("\\begin{itemize}\n")
				inList = true
			}
			sb.WriteString("  \\item " + latex.Escape(text) + "\n")
			continue
		}
		if inList {
			sb.WriteString("\\end{itemize}\n")
			inList = false
		}
		if isSubheading(line) {
			sb.WriteString("\\subsection{" + latex.Escape(line) + "}\n")
		} else {
			sb.WriteString(latex.Escape(line) + " \\\\\n")
		}
	}
	if inList {
		sb.WriteString("\\end{itemize}\n")
	}
	return sb.String()
}

func sectionSource(title string, body []string) string {
	return "\\section{" + latex.Escape(title) + "}\n" + ConvertLines(body) + "\n"
}

func isSectionHeader(line string) bool {
	cleaned := strings.ToLower(CleanTitle(line))
	if cleaned == "" {
		return false
	}
	for _, re := range sectionHeaders {
		if re.MatchString(cleaned) {
			return true
		}
	}
	return false
}

func isSubheading(line string) bool {
	if utf8.RuneCountInString(line) >= maxSubheadingLen {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsUpper(r)
}

// stripBullet reports whether line starts with a bullet glyph and returns the
// text after it. ASCII glyphs need a following space so "**bold**" and "-5%"
// stay plain text.
func stripBullet(line string) (string, bool) {
	for _, g := range bulletGlyphs {
		rest, ok := strings.CutPrefix(line, g)
		if !ok {
			continue
		}
		if len(g) == 1 && rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			return "", false
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == '\f'
	}) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
