// Package texdoc provides structural scanning primitives over raw LaTeX
// fragment text: list environment boundaries, item markers, math-span state,
// citation keys and bibliography entries. The scanners are explicit cursor
// loops with tracked state so escaped delimiters and command braces stay
// auditable; none of them build a syntax tree, and malformed input is
// reported as "not found" rather than failing.
package texdoc

import (
	"strings"
	"unicode"
)

// ListKind names a recognized list environment.
type ListKind string

const (
	ListItemize   ListKind = "itemize"
	ListEnumerate ListKind = "enumerate"
)

const itemMarker = `\item`

// ListBegin reports whether the line opens a list environment and which one.
func ListBegin(line string) (ListKind, bool) {
	s := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(s, `\begin{itemize}`):
		return ListItemize, true
	case strings.HasPrefix(s, `\begin{enumerate}`):
		return ListEnumerate, true
	}
	return "", false
}

// IsListEnd reports whether the line closes the given list environment.
func IsListEnd(line string, kind ListKind) bool {
	return strings.TrimSpace(line) == `\end{`+string(kind)+`}`
}

// ItemMarker returns the byte offset of the \item marker in line, or -1.
// Longer commands sharing the prefix (\itemsep, \itemindent) do not count.
func ItemMarker(line string) int {
	for from := 0; ; {
		i := strings.Index(line[from:], itemMarker)
		if i < 0 {
			return -1
		}
		at := from + i
		rest := line[at+len(itemMarker):]
		if rest == "" || !isASCIILetter(rest[0]) {
			return at
		}
		from = at + len(itemMarker)
	}
}

// ItemBody returns the item text following the \item marker at offset pos,
// with leading spaces removed.
func ItemBody(line string, pos int) string {
	return strings.TrimLeft(line[pos+len(itemMarker):], " \t")
}

// EndsInMath reports whether s terminates inside an unclosed math span:
// $...$ or $$...$$ (tracked by dollar parity) or \(...\) / \[...\]
// (tracked by nesting depth). Escaped delimiters (\$) do not count.
func EndsInMath(s string) bool {
	inDollar := false
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				break
			}
			switch s[i+1] {
			case '(', '[':
				depth++
			case ')', ']':
				if depth > 0 {
					depth--
				}
			}
			i++ // the escaped or bracket character is consumed
		case '$':
			inDollar = !inDollar
		}
	}
	return inDollar || depth > 0
}

// HasBareColon reports whether s contains a colon outside of LaTeX command
// arguments. A command is a backslash followed by letters, optionally with
// one brace group; colons inside that group (e.g. \ref{fig:one}) and
// escaped colons (\:) do not count.
func HasBareColon(s string) bool {
	for i := 0; i < len(s); {
		c := s[i]
		if c == '\\' {
			if i+1 < len(s) && isASCIILetter(s[i+1]) {
				j := i + 1
				for j < len(s) && isASCIILetter(s[j]) {
					j++
				}
				if j < len(s) && s[j] == '{' {
					depth := 1
					j++
					for j < len(s) && depth > 0 {
						switch s[j] {
						case '{':
							depth++
						case '}':
							depth--
						}
						j++
					}
				}
				i = j
				continue
			}
			i += 2 // escaped character
			continue
		}
		if c == ':' {
			return true
		}
		i++
	}
	return false
}

// Citations returns every citation key from every \cite{...} group in text,
// flattened in order of appearance. Keys are comma-separated inside a group;
// empty keys are dropped.
func Citations(text string) []string {
	var keys []string
	const cite = `\cite{`
	for from := 0; ; {
		i := strings.Index(text[from:], cite)
		if i < 0 {
			break
		}
		start := from + i + len(cite)
		n := strings.IndexByte(text[start:], '}')
		if n < 0 {
			break
		}
		for _, key := range strings.Split(text[start:start+n], ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
		from = start + n + 1
	}
	return keys
}

const (
	bibBegin = `\begin{thebibliography}`
	bibEnd   = `\end{thebibliography}`
)

// BibEnv locates the thebibliography environment in text. The returned span
// [start, end) covers the environment content starting at the \begin marker
// and ending just before the \end marker.
func BibEnv(text string) (start, end int, ok bool) {
	start = strings.Index(text, bibBegin)
	if start < 0 {
		return 0, 0, false
	}
	n := strings.Index(text[start:], bibEnd)
	if n < 0 {
		return 0, 0, false
	}
	return start, start + n, true
}

// BibEndMarkerLen is the length of the \end{thebibliography} marker that
// follows the span returned by BibEnv.
const BibEndMarkerLen = len(bibEnd)

// BibEntry is one bibliography record inside a thebibliography environment.
type BibEntry struct {
	// Key is the citation key from the \bibitem argument.
	Key string

	// Text is the entry verbatim: the \bibitem line and every following
	// line up to the next entry, including trailing blank lines.
	Text string
}

// SplitBibEntries partitions the environment content into the preamble
// (every line before the first \bibitem, kept verbatim) and the ordered
// entries. Joining preamble and entry texts with newlines reproduces the
// input exactly.
func SplitBibEntries(env string) (preamble string, entries []BibEntry) {
	lines := strings.Split(env, "\n")

	var preambleLines []string
	var buf []string
	currentKey := ""
	inEntry := false

	flush := func() {
		if inEntry {
			entries = append(entries, BibEntry{Key: currentKey, Text: strings.Join(buf, "\n")})
			buf = buf[:0]
		}
	}

	for _, line := range lines {
		if key, _, ok := ParseBibItem(line); ok {
			flush()
			inEntry = true
			currentKey = key
			buf = append(buf, line)
			continue
		}
		if inEntry {
			buf = append(buf, line)
		} else {
			preambleLines = append(preambleLines, line)
		}
	}
	flush()

	return strings.Join(preambleLines, "\n"), entries
}

// ParseBibItem splits a bibliography entry into its citation key and the
// content after the key argument. The entry may span multiple lines; leading
// whitespace before \bibitem is tolerated. ok is false when the entry does
// not start with a well-formed \bibitem{key}.
func ParseBibItem(entry string) (key, content string, ok bool) {
	s := strings.TrimSpace(entry)
	const marker = `\bibitem`
	if !strings.HasPrefix(s, marker) {
		return "", "", false
	}
	rest := s[len(marker):]
	if rest == "" || rest[0] != '{' {
		return "", "", false
	}
	n := strings.IndexByte(rest, '}')
	if n < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(rest[1:n])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(rest[n+1:]), true
}

// firstWordDelimiters terminate the leading word of an item body.
const firstWordDelimiters = " ,.;:!?([{/\\"

// FirstWord returns the run of characters before the first delimiter
// (space, punctuation, bracket or backslash).
func FirstWord(s string) string {
	for i, r := range s {
		if r < 128 && strings.ContainsRune(firstWordDelimiters, r) {
			return s[:i]
		}
	}
	return s
}

// StartsWithMarkup reports whether s begins with a LaTeX command or math
// delimiter, optionally behind << quoting. Item bodies starting this way
// keep their lead character casing.
func StartsWithMarkup(s string) bool {
	t := strings.TrimLeft(s, "<> \t")
	return strings.HasPrefix(t, "$") || strings.HasPrefix(t, `\`)
}

// UppercaseCount counts uppercase letters in s.
func UppercaseCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsUpper(r) {
			n++
		}
	}
	return n
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
