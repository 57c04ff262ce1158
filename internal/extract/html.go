package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor flattens HTML files. Headings, paragraphs and table cells
// become lines; list items become "• " lines; <b> and <strong> keep ** markers.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var lines []string
	add := func(s string) {
		for _, l := range strings.Split(s, "\n") {
			if l = strings.Join(strings.Fields(l), " "); l != "" {
				lines = append(lines, l)
			}
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "head":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "td", "th", "blockquote", "dt", "dd":
				add(textContent(n))
				return
			case "li":
				if t := textContent(n); strings.TrimSpace(t) != "" {
					add("• " + strings.TrimSpace(t))
				}
				return
			case "br":
				lines = append(lines, "")
			}
		}
		if n.Type == html.TextNode {
			add(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	var out []string
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n"), nil
}

// textContent collects the text below n, marking bold runs with ** and
// turning <br> into line breaks.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
			return
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteString("\n")
			return
		case n.Type == html.ElementNode && (n.Data == "b" || n.Data == "strong"):
			buf.WriteString("**")
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				extract(c)
			}
			buf.WriteString("**")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
