package latex

import "strings"

// SpecialChars are the characters LaTeX treats as control characters in
// running text.
const SpecialChars = `\&%$#_{}~^`

var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape makes s render literally in LaTeX running text.
func Escape(s string) string {
	return escaper.Replace(s)
}
