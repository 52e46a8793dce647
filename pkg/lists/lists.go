// Package lists implements the list punctuation engine: it locates
// itemize/enumerate blocks, classifies each block's governing mode from the
// lines preceding it, and rewrites item capitalization and terminal
// punctuation to the house style. Rewriting is idempotent: applying it to
// already-correct text changes nothing.
package lists

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coolbeans/texlint/pkg/report"
	"github.com/coolbeans/texlint/pkg/texdoc"
)

// Mode is the punctuation regime governing a list block.
type Mode int

const (
	// ModeStandard capitalizes items and terminates each with a period.
	ModeStandard Mode = iota

	// ModeColon applies when the list is introduced by a trailing colon:
	// items are lowercased, non-final items end with a semicolon, the
	// final item with a period.
	ModeColon

	// ModePostExplanatory applies to lists enumerating symbols after the
	// word "где". Punctuation follows ModeColon, but the preceding
	// context line is never touched.
	ModePostExplanatory
)

func (m Mode) String() string {
	switch m {
	case ModeColon:
		return "colon"
	case ModePostExplanatory:
		return "post-explanatory"
	}
	return "standard"
}

// IgnoreMarker suppresses rewriting for the line carrying it. On the line
// preceding a list it also disables context classification for the block.
const IgnoreMarker = "% #lint-ignore"

// contextWindow bounds how many preceding non-empty lines are inspected.
const contextWindow = 5

// Rewriter rewrites list blocks in fragment text.
type Rewriter struct {
	abbreviations []string
	log           *report.Logger
}

// NewRewriter creates a list rewriter. Abbreviations are lowercase tails
// whose trailing period must survive the punctuation pass.
func NewRewriter(abbreviations []string, log *report.Logger) *Rewriter {
	lower := make([]string, len(abbreviations))
	for i, a := range abbreviations {
		lower[i] = strings.ToLower(a)
	}
	return &Rewriter{abbreviations: lower, log: log}
}

type change struct {
	line     int // 1-based
	old, new string
}

// Fix rewrites every list block in text and returns the result. Changed
// lines are reported as unified-diff style info messages against path.
func (rw *Rewriter) Fix(path, text string) string {
	lines := strings.Split(text, "\n")

	var changes []change
	blocksFixed := 0

	for i := 0; i < len(lines); {
		kind, ok := texdoc.ListBegin(lines[i])
		if !ok {
			i++
			continue
		}
		end := findListEnd(lines, i+1, kind)
		if end < 0 {
			i++
			continue
		}

		blockChanges := rw.fixBlock(lines, i, end)
		if len(blockChanges) > 0 {
			blocksFixed++
			changes = append(changes, blockChanges...)
		}
		i = end + 1
	}

	if len(changes) > 0 {
		for _, c := range changes {
			rw.log.Infof("%s:%d:", path, c.line)
			rw.log.Infof("- %s", strings.TrimRight(c.old, " \t"))
			rw.log.Infof("+ %s", strings.TrimRight(c.new, " \t"))
		}
		rw.log.Infof("%s: fixed %d list block(s)", path, blocksFixed)
	}

	return strings.Join(lines, "\n")
}

// findListEnd returns the index of the first matching \end line, or -1.
func findListEnd(lines []string, from int, kind texdoc.ListKind) int {
	for j := from; j < len(lines); j++ {
		if texdoc.IsListEnd(lines[j], kind) {
			return j
		}
	}
	return -1
}

// blockContext is the classification of a list block's surroundings.
type blockContext struct {
	mode     Mode
	ignore   bool // nearest preceding line carries the ignore marker
	colonCue bool // nearest preceding line ends with ':'
	preIdx   int  // index of the nearest preceding non-empty line
}

// analyzeContext inspects up to contextWindow non-empty lines before the
// block (stopping at a blank line). ok is false when there is no context at
// all, in which case the whole block is left untouched.
func analyzeContext(lines []string, start int, hasColonInItems bool) (blockContext, bool) {
	var context []string
	idx := start - 1
	for idx >= 0 && len(context) < contextWindow {
		s := strings.TrimSpace(lines[idx])
		if s == "" {
			break
		}
		context = append(context, s)
		idx--
	}
	if len(context) == 0 {
		return blockContext{}, false
	}

	nearest := context[0]
	bc := blockContext{
		ignore:   strings.Contains(nearest, IgnoreMarker),
		colonCue: strings.HasSuffix(nearest, ":"),
		preIdx:   start - 1,
	}

	post := false
	for _, line := range context {
		if endsWithGde(line) {
			post = true
			break
		}
	}

	switch {
	case bc.ignore:
		bc.mode = ModeStandard
	case post:
		bc.mode = ModePostExplanatory
	case bc.colonCue && !hasColonInItems:
		bc.mode = ModeColon
	default:
		bc.mode = ModeStandard
	}
	return bc, true
}

// endsWithGde reports whether the line ends with the standalone word "где".
func endsWithGde(line string) bool {
	s := strings.ToLower(strings.TrimRight(line, " \t"))
	if !strings.HasSuffix(s, "где") {
		return false
	}
	head := s[:len(s)-len("где")]
	if head == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(head)
	return !unicode.IsLetter(r)
}

type itemRef struct {
	line int // index into lines
	pos  int // byte offset of the \item marker
}

// fixBlock rewrites one list block in place and returns the changes made.
func (rw *Rewriter) fixBlock(lines []string, start, end int) []change {
	var items []itemRef
	for j := start + 1; j < end; j++ {
		if pos := texdoc.ItemMarker(lines[j]); pos >= 0 {
			items = append(items, itemRef{line: j, pos: pos})
		}
	}
	if len(items) == 0 {
		return nil
	}

	hasColon := false
	for _, it := range items {
		line := lines[it.line]
		if strings.Contains(line, IgnoreMarker) {
			continue
		}
		if texdoc.HasBareColon(texdoc.ItemBody(line, it.pos)) {
			hasColon = true
			break
		}
	}

	bc, ok := analyzeContext(lines, start, hasColon)
	if !ok {
		return nil
	}

	var changes []change

	if newPre, changed := rw.fixContextLine(lines[bc.preIdx], bc, hasColon); changed {
		changes = append(changes, change{line: bc.preIdx + 1, old: lines[bc.preIdx], new: newPre})
		lines[bc.preIdx] = newPre
	}

	for n, it := range items {
		last := n == len(items)-1
		newLine, changed := rw.rewriteItem(lines[it.line], it.pos, bc.mode, last)
		if changed {
			changes = append(changes, change{line: it.line + 1, old: lines[it.line], new: newLine})
			lines[it.line] = newLine
		}
	}
	return changes
}

// fixContextLine applies the block's side effect on the preceding line:
// a trailing colon turns into a period when colon mode is disallowed, and a
// line with no terminal punctuation gains a period in standard mode. Colon
// and post-explanatory blocks leave the line alone, as does the ignore
// marker. The two edits are mutually exclusive.
func (rw *Rewriter) fixContextLine(line string, bc blockContext, hasColonInItems bool) (string, bool) {
	if bc.ignore || bc.mode != ModeStandard {
		return line, false
	}

	stripped := strings.TrimRight(line, " \t")
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	body := strings.TrimSpace(line)

	// Comment lines are never rewritten.
	if strings.HasPrefix(body, "%") {
		return line, false
	}

	if bc.colonCue && hasColonInItems {
		// Colon mode was vetoed by a colon inside an item; the intro
		// line becomes a plain sentence.
		if strings.HasSuffix(stripped, ":") && !endsWithSentencePunct(strings.TrimRight(stripped[:len(stripped)-1], " \t")) {
			newLine := indent + strings.TrimRight(body[:len(body)-1], " \t") + "."
			return newLine, newLine != line
		}
		return line, false
	}

	if r, size := lastRune(stripped); size > 0 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		newLine := stripped + "."
		return newLine, newLine != line
	}
	return line, false
}

func endsWithSentencePunct(s string) bool {
	r, size := lastRune(s)
	return size > 0 && (r == '.' || r == '!' || r == '?')
}

func lastRune(s string) (rune, int) {
	if s == "" {
		return 0, 0
	}
	return utf8.DecodeLastRuneInString(s)
}

// rewriteItem applies casing and terminal punctuation to one item line.
func (rw *Rewriter) rewriteItem(line string, pos int, mode Mode, last bool) (string, bool) {
	if strings.Contains(line, IgnoreMarker) {
		return line, false
	}

	body := texdoc.ItemBody(line, pos)
	if body == "" {
		return line, false
	}

	if !skipCasing(body) {
		body = adjustCase(body, mode)
	}
	body = rw.adjustTail(body, mode, last)

	newLine := line[:pos] + `\item ` + body
	return newLine, newLine != line
}

// skipCasing reports whether the item body's lead letter must be left as
// written: markup starts, acronym first words (more than one uppercase
// letter) and single uppercase letters (math symbols in text mode).
func skipCasing(body string) bool {
	if texdoc.StartsWithMarkup(body) {
		return true
	}
	word := texdoc.FirstWord(body)
	if texdoc.UppercaseCount(word) > 1 {
		return true
	}
	if utf8.RuneCountInString(word) == 1 {
		r, _ := utf8.DecodeRuneInString(word)
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// adjustCase lowercases the first letter in colon and post-explanatory
// modes and uppercases it otherwise.
func adjustCase(body string, mode Mode) string {
	for i, r := range body {
		if !unicode.IsLetter(r) {
			continue
		}
		var repl rune
		if mode == ModeColon || mode == ModePostExplanatory {
			repl = unicode.ToLower(r)
		} else {
			repl = unicode.ToUpper(r)
		}
		if repl == r {
			return body
		}
		return body[:i] + string(repl) + body[i+utf8.RuneLen(r):]
	}
	return body
}

// adjustTail normalizes the item's terminal punctuation. Items ending in
// '!' or '?', inside an unclosed math span, or on a recognized abbreviation
// are left unchanged.
func (rw *Rewriter) adjustTail(body string, mode Mode, last bool) string {
	t := strings.TrimRight(body, " \t")
	if t == "" {
		return body
	}

	r, size := lastRune(t)
	if r == '!' || r == '?' {
		return body
	}
	if texdoc.EndsInMath(t) {
		return body
	}

	if r == '.' || r == ',' || r == ';' || r == ':' {
		if rw.isAbbreviation(t) {
			return body
		}
		t = strings.TrimRight(t[:len(t)-size], " \t")
		if t == "" {
			return body
		}
	}
	return t + string(targetPunct(mode, last))
}

func (rw *Rewriter) isAbbreviation(tail string) bool {
	lower := strings.ToLower(tail)
	for _, abbr := range rw.abbreviations {
		if strings.HasSuffix(lower, abbr) {
			return true
		}
	}
	return false
}

// targetPunct decides the terminal punctuation for an item.
func targetPunct(mode Mode, last bool) rune {
	if (mode == ModeColon || mode == ModePostExplanatory) && !last {
		return ';'
	}
	return '.'
}
