// Package latex is a small boundary scanner for LaTeX source. It finds
// control words, brace groups and the structural spans the parsers care
// about without trying to validate the grammar.
package latex

// Command is a control word (\name or \name*) found outside comments.
type Command struct {
	Name  string
	Star  bool
	Start int // Offset of the backslash
	End   int // Offset just past the name (and star)
}

// Group is a brace-delimited argument.
type Group struct {
	Start int    // Offset of '{'
	End   int    // Offset just past the matching '}'
	Text  string // Inner text without the braces
}

// Commands returns every control word in src in source order. Text after an
// unescaped % up to the end of the line is skipped, and control symbols such
// as \% or \\ are stepped over.
func Commands(src string) []Command {
	var cmds []Command
	i := 0
	for i < len(src) {
		switch src[i] {
		case '%':
			i = skipComment(src, i)
		case '\\':
			if i+1 >= len(src) {
				return cmds
			}
			if !isLetter(src[i+1]) {
				i += 2
				continue
			}
			j := i + 1
			for j < len(src) && isLetter(src[j]) {
				j++
			}
			cmd := Command{Name: src[i+1 : j], Start: i}
			if j < len(src) && src[j] == '*' {
				cmd.Star = true
				j++
			}
			cmd.End = j
			cmds = append(cmds, cmd)
			i = j
		default:
			i++
		}
	}
	return cmds
}

// Args reads up to limit brace groups following pos. Whitespace and comments
// between groups are allowed, as is one optional [..] argument before the
// first group. It returns the groups read and the offset just past the last
// one, or pos when none was found.
func Args(src string, pos, limit int) ([]Group, int) {
	var groups []Group
	p := pos
	end := pos
	for len(groups) < limit {
		q := skipSpace(src, p)
		if q >= len(src) {
			break
		}
		if src[q] == '[' && len(groups) == 0 {
			stop := matchBracket(src, q)
			if stop < 0 {
				break
			}
			p = stop
			continue
		}
		if src[q] != '{' {
			break
		}
		stop := MatchBrace(src, q)
		if stop < 0 {
			break
		}
		groups = append(groups, Group{Start: q, End: stop, Text: src[q+1 : stop-1]})
		p = stop
		end = stop
	}
	return groups, end
}

// SkipOptional steps over whitespace and one [..] argument at pos, if present.
func SkipOptional(src string, pos int) int {
	q := skipSpace(src, pos)
	if q < len(src) && src[q] == '[' {
		if stop := matchBracket(src, q); stop > 0 {
			return stop
		}
	}
	return pos
}

// MatchBrace returns the offset just past the '}' closing the '{' at open,
// or -1 if the group is unbalanced.
func MatchBrace(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '%':
			i = skipComment(src, i) - 1
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func matchBracket(src string, open int) int {
	depth := 0
	for i := open + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		case ']':
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func skipComment(src string, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

func skipSpace(src string, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		case '%':
			i = skipComment(src, i)
		default:
			return i
		}
	}
	return i
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
