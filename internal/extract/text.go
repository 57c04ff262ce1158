package extract

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// TextExtractor handles plain text files. Lines are passed through with
// trailing whitespace removed.
type TextExtractor struct{}

func (e *TextExtractor) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
