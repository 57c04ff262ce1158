package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Extractor turns the bytes of a document into a flat text stream, one
// logical line per line, with bullets kept as leading glyphs.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists file extensions this package can extract.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string, opts Options) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Options configures extractor construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// Timed wraps e so every call records its latency in stats.
func Timed(e Extractor, stats *ExtractStats) Extractor {
	if stats == nil {
		return e
	}
	return &timedExtractor{next: e, stats: stats}
}

type timedExtractor struct {
	next  Extractor
	stats *ExtractStats
}

func (t *timedExtractor) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	start := time.Now()
	text, err := t.next.Extract(ctx, r, filename)
	t.stats.Record(time.Since(start).Milliseconds(), err != nil)
	return text, err
}
