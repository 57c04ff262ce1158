// Package metadata pulls shallow hints (dates, company, role) out of a unit
// of chunk text. Nothing here fails: an undetected field stays empty.
package metadata

import (
	"regexp"
	"strings"

	"github.com/dgallion1/texchunk/internal/doctree"
	"github.com/dgallion1/texchunk/internal/latex"
)

var (
	yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	boldPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\\textbf\{([^{}]+)\}`),
		regexp.MustCompile(`\{\\bf\s+([^{}]+)\}`),
		regexp.MustCompile(`\*\*([^*]+)\*\*`),
		regexp.MustCompile(`(?i)<(?:b|strong)>([^<]+)</(?:b|strong)>`),
	}
)

// Extract returns the metadata that can be inferred from text alone.
func Extract(text string) doctree.Metadata {
	var m doctree.Metadata
	if fields, ok := latex.ParseEntry(text); ok {
		m.Position = fields[0]
		m.Company = fields[1]
		m.Dates = joinDates(fields[2], fields[3])
		m.Location = fields[4]
	}
	if m.Dates == "" {
		m.Dates = Dates(text)
	}
	if m.Company == "" {
		m.Company = Company(text)
	}
	return m
}

// Dates returns the first {...} or (...) span that contains a year.
func Dates(text string) string {
	for i := 0; i < len(text); i++ {
		var closer byte
		switch text[i] {
		case '{':
			closer = '}'
		case '(':
			closer = ')'
		default:
			continue
		}
		j := strings.IndexByte(text[i+1:], closer)
		if j < 0 {
			continue
		}
		inner := text[i+1 : i+1+j]
		if strings.ContainsAny(inner, "{(") {
			continue
		}
		if yearPattern.MatchString(inner) {
			return strings.TrimSpace(inner)
		}
	}
	return ""
}

// Company returns the first bold-marked span.
func Company(text string) string {
	best, bestPos := "", -1
	for _, re := range boldPatterns {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if bestPos < 0 || loc[0] < bestPos {
			best, bestPos = strings.TrimSpace(text[loc[2]:loc[3]]), loc[0]
		}
	}
	return best
}

func joinDates(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + " -- " + end
	case start != "":
		return start
	}
	return end
}
