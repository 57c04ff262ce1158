package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/texchunk/internal/doctree"
	"github.com/dgallion1/texchunk/internal/extract"
	"github.com/dgallion1/texchunk/internal/parser"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNoText            = errors.New("no text extracted")
)

// Route says which parser a file goes through.
type Route int

const (
	// RouteStructural parses LaTeX source directly.
	RouteStructural Route = iota
	// RouteHeuristic extracts flat text first and segments it.
	RouteHeuristic
)

func (r Route) String() string {
	if r == RouteStructural {
		return "structural"
	}
	return "heuristic"
}

var latexExtensions = map[string]bool{
	".tex":   true,
	".latex": true,
	".ltx":   true,
}

// RouteFor picks the route for filename by extension. Unknown extensions
// fail with ErrUnsupportedFormat before anything is read.
func RouteFor(filename string) (Route, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case latexExtensions[ext]:
		return RouteStructural, nil
	case extract.IsSupportedExtension(filename):
		return RouteHeuristic, nil
	case ext == "":
		return 0, fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, filename)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// Importer turns an uploaded file into a document.
type Importer struct {
	opts  extract.Options
	stats *extract.ExtractStats
	log   *slog.Logger
}

// NewImporter returns an importer. stats and log may be nil.
func NewImporter(opts extract.Options, stats *extract.ExtractStats, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Importer{opts: opts, stats: stats, log: log}
}

// Import reads filename's content from r and parses it along its route.
func (im *Importer) Import(ctx context.Context, r io.Reader, filename string) (*doctree.Document, error) {
	route, err := RouteFor(filename)
	if err != nil {
		return nil, err
	}
	text, err := im.Text(ctx, route, r, filename)
	if err != nil {
		return nil, err
	}
	return im.Parse(route, text), nil
}

// Text returns the text the parser for route works on: the source itself for
// LaTeX, the extractor's output otherwise. Extraction errors are returned
// wrapped, and extraction that yields only whitespace fails with ErrNoText.
func (im *Importer) Text(ctx context.Context, route Route, r io.Reader, filename string) (string, error) {
	if route == RouteStructural {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filename, err)
		}
		return string(data), nil
	}

	e, err := extract.ForFile(filename, im.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, err)
	}
	text, err := extract.Timed(e, im.stats).Extract(ctx, r, filename)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("extract %s: %w", filename, ErrNoText)
	}
	return text, nil
}

// Parse runs the parser for route over text.
func (im *Importer) Parse(route Route, text string) *doctree.Document {
	var doc *doctree.Document
	if route == RouteStructural {
		doc = parser.ParseStructural(text)
	} else {
		doc = parser.ParseHeuristic(text)
	}
	im.log.Debug("parsed document", "route", route.String(), "chunks", len(doc.Chunks))
	return doc
}
