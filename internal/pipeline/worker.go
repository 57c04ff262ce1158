package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/texchunk/internal/doctree"
	"github.com/dgallion1/texchunk/internal/registry"
)

// Worker processes a single import job.
type Worker struct {
	importer *Importer
	session  *registry.Session
	log      *slog.Logger
}

func NewWorker(importer *Importer, session *registry.Session, log *slog.Logger) *Worker {
	return &Worker{
		importer: importer,
		session:  session,
		log:      log,
	}
}

// Process runs extraction and parsing for a job and, only when both succeed,
// replaces the session's document with the result.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	route, err := RouteFor(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "routing")
		return
	}

	// Phase 1: Extract
	if route == RouteHeuristic {
		job.SetStatus(StatusExtracting, "extracting")
	} else {
		job.SetStatus(StatusParsing, "reading")
	}
	text, err := w.importer.Text(ctx, route, bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc := w.importer.Parse(route, text)
	sections, items := countChunks(doc)

	// Phase 3: Commit
	if err := w.session.ReplaceAll(doc); err != nil {
		log.Error("replace document failed", "error", err)
		job.AddError(fmt.Sprintf("commit: %s", err))
		job.SetStatus(StatusFailed, "committing")
		return
	}

	job.SetResult(route, sections, items)
	job.SetFileData(nil)
	job.SetStatus(StatusCompleted, "done")
	log.Info("import complete", "route", route.String(), "sections", sections, "items", items)
}

func countChunks(doc *doctree.Document) (sections, items int) {
	for _, c := range doc.Chunks {
		if c.Type == doctree.TypeSection {
			sections++
		} else {
			items++
		}
	}
	return sections, items
}
