package extract

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor flattens Markdown files using goldmark. Headings and
// paragraphs become lines, list items become "• " lines and strong emphasis
// keeps its ** markers.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var lines []string
	add := func(s string) {
		for _, l := range strings.Split(s, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
	}

	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Heading:
				add(inlineText(node, src))
			case *ast.List:
				walk(node)
			case *ast.ListItem:
				first := true
				for part := node.FirstChild(); part != nil; part = part.NextSibling() {
					if _, ok := part.(*ast.List); ok {
						walk(part)
						continue
					}
					t := strings.TrimSpace(inlineText(part, src))
					if t == "" {
						continue
					}
					if first {
						t = "• " + t
						first = false
					}
					add(t)
				}
			case *ast.ThematicBreak:
			case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
				add(blockLines(node, src))
			default:
				if node.HasChildren() && node.Type() == ast.TypeBlock && !isInlineContainer(node) {
					walk(node)
					continue
				}
				add(inlineText(node, src))
			}
		}
	}
	walk(doc)

	return strings.Join(lines, "\n"), nil
}

// isInlineContainer reports whether a block holds inline children directly.
func isInlineContainer(n ast.Node) bool {
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		return true
	}
	return false
}

// inlineText gets the text content of a goldmark node's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.Emphasis:
			inner := inlineText(t, src)
			if t.Level >= 2 {
				inner = "**" + inner + "**"
			}
			buf.WriteString(inner)
		default:
			// Recurse for nested inlines.
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}

func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return buf.String()
}
