package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXExtractor handles .docx files. Each non-empty paragraph becomes a line;
// numbered or list-styled paragraphs get a "• " prefix and bold runs keep **
// markers so the organization of an entry can still be recognized.
type DOCXExtractor struct{}

func (e *DOCXExtractor) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "texchunk-docx-*.docx")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if line := docxLine(it); line != "" {
				lines = append(lines, line)
			}
		case *docx.Table:
			lines = append(lines, docxTableLines(it)...)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func docxLine(para *docx.Paragraph) string {
	text := docxParagraphText(para)
	if text == "" {
		return ""
	}
	if docxIsListItem(para) {
		return "• " + text
	}
	return text
}

func docxIsListItem(para *docx.Paragraph) bool {
	if para.Properties == nil {
		return false
	}
	if para.Properties.NumProperties != nil {
		return true
	}
	if para.Properties.Style != nil {
		return strings.Contains(strings.ToLower(para.Properties.Style.Val), "list")
	}
	return false
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var rb strings.Builder
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				rb.WriteString(t.Text)
			}
		}
		text := rb.String()
		if run.RunProperties != nil && run.RunProperties.Bold != nil && strings.TrimSpace(text) != "" {
			text = "**" + strings.TrimSpace(text) + "**"
		}
		buf.WriteString(text)
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

// docxTableLines flattens a table row by row, joining cells with " | ".
func docxTableLines(tbl *docx.Table) []string {
	var lines []string
	for _, row := range tbl.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, p := range cell.Paragraphs {
				if t := docxParagraphText(p); t != "" {
					parts = append(parts, t)
				}
			}
			if len(parts) > 0 {
				cells = append(cells, strings.Join(parts, " "))
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " | "))
		}
	}
	return lines
}
