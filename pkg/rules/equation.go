package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/texlint/pkg/report"
)

const (
	eqBegin = `\begin{equation}`
	eqEnd   = `\end{equation}`
)

// Punctuation added to the formula line is redundant when the trailing
// \label line already carries it; these strip the duplicate.
var (
	labelCommaCleanup = regexp.MustCompile(`,(\s*\n\s*\\label\{[^}]*\},\s*\n\s*\\end\{equation\})`)
	labelDotCleanup   = regexp.MustCompile(`\.(\s*\n\s*\\label\{[^}]*\}\.\s*\n\s*\\end\{equation\})`)
)

// equationRule punctuates displayed equations according to the text that
// follows them: a comma before an explanatory "где", a period before a
// sentence starting with a capital letter. The gap between the equation
// and the following text collapses to a single newline.
type equationRule struct {
	log *report.Logger
}

func (r *equationRule) Name() string { return "equation-punctuation" }

func (r *equationRule) Apply(path, text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text))
	rest := text

	for {
		i := strings.Index(rest, eqBegin)
		if i < 0 {
			break
		}
		j := strings.Index(rest[i+len(eqBegin):], eqEnd)
		if j < 0 {
			break
		}
		blockEnd := i + len(eqBegin) + j + len(eqEnd)
		block := rest[i:blockEnd]
		after := rest[blockEnd:]

		b.WriteString(rest[:i])
		mark, gap := followingMark(after)
		if mark == 0 {
			b.WriteString(block)
			rest = after
			continue
		}
		b.WriteString(r.punctuate(path, block, mark))
		b.WriteString("\n")
		rest = after[gap:]
	}
	b.WriteString(rest)

	out := labelCommaCleanup.ReplaceAllString(b.String(), "$1")
	out = labelDotCleanup.ReplaceAllString(out, "$1")
	return out, false
}

// followingMark decides which punctuation the equation needs from the
// text after it. gap is the width of the whitespace run separating the
// two; mark is zero when no punctuation applies.
func followingMark(after string) (mark rune, gap int) {
	gap = 0
	for gap < len(after) {
		r, n := utf8.DecodeRuneInString(after[gap:])
		if !isSpaceRune(r) {
			break
		}
		gap += n
	}
	if gap == 0 || gap == len(after) {
		return 0, 0
	}

	next := after[gap:]
	if hasGdeWord(next) {
		return ',', gap
	}
	r, _ := utf8.DecodeRuneInString(next)
	if (r >= 'А' && r <= 'Я') || (r >= 'A' && r <= 'Z') {
		return '.', gap
	}
	return 0, 0
}

func isSpaceRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// hasGdeWord reports whether s starts with the standalone word "где".
func hasGdeWord(s string) bool {
	for _, prefix := range []string{"где", "Где"} {
		if strings.HasPrefix(s, prefix) {
			rest := s[len(prefix):]
			if rest == "" {
				return true
			}
			r, _ := utf8.DecodeRuneInString(rest)
			if !isWordRune(r) {
				return true
			}
		}
	}
	return false
}

// punctuate appends mark to the last non-empty line before the closing
// \end{equation}, unless that line already ends with punctuation.
func (r *equationRule) punctuate(path, block string, mark rune) string {
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return block
	}

	endIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), eqEnd) {
			endIdx = i
			break
		}
	}
	if endIdx <= 0 {
		return block
	}

	prevIdx := endIdx - 1
	for prevIdx >= 0 && strings.TrimSpace(lines[prevIdx]) == "" {
		prevIdx--
	}
	if prevIdx < 0 {
		return block
	}

	last := strings.TrimRight(lines[prevIdx], " \t")
	if strings.HasSuffix(last, ".") || strings.HasSuffix(last, ",") ||
		strings.HasSuffix(last, ";") || strings.HasSuffix(last, ":") ||
		strings.HasSuffix(last, "!") || strings.HasSuffix(last, "?") {
		return block
	}

	lines[prevIdx] = last + string(mark)
	r.log.Infof("%s: added punctuation to equation line: %s", path, strings.TrimSpace(last))
	return strings.Join(lines, "\n")
}
