package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/coolbeans/texlint/pkg/report"
)

// forbiddenRule reports banned words. It never rewrites text; the author
// has to rephrase.
type forbiddenRule struct {
	words []string
	log   *report.Logger
}

func (r *forbiddenRule) Name() string { return "forbidden-words" }

func (r *forbiddenRule) Apply(path, text string) (string, bool) {
	hadError := false
	for i, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, word := range r.words {
			if strings.Contains(lower, word) {
				r.log.ErrorAt(path, i+1, "forbidden word '%s'", word)
				hadError = true
			}
		}
	}
	return text, hadError
}

// typographyReplacements maps typographic characters to their plain TeX
// spellings, applied in order.
var typographyReplacements = []struct {
	old, new string
}{
	{"«", "<<"},
	{"»", ">>"},
	{"“", "<<"},
	{"”", ">>"},
	{"„", "<<"},
	{"‟", ">>"},
	{"❝", "<<"},
	{"❞", ">>"},
	{"…", "..."},
	{"×", ` $\times$ `},
}

type typographyRule struct {
	log *report.Logger
}

func (r *typographyRule) Name() string { return "typography" }

func (r *typographyRule) Apply(path, text string) (string, bool) {
	out := text
	for _, rep := range typographyReplacements {
		out = strings.ReplaceAll(out, rep.old, rep.new)
	}
	if out != text {
		r.log.Infof("%s: replaced typographic symbols", path)
	}
	return out, false
}

// dashRule converts typographic dashes to TeX ligatures.
type dashRule struct {
	log *report.Logger
}

func (r *dashRule) Name() string { return "dashes" }

func (r *dashRule) Apply(path, text string) (string, bool) {
	out := strings.ReplaceAll(text, "—", "---")
	out = strings.ReplaceAll(out, "–", "--")
	if out != text {
		r.log.Infof("%s: replaced typographic dashes", path)
	}
	return out, false
}

// citeSpacePattern matches a breakable space before a reference command.
var citeSpacePattern = regexp.MustCompile(` (\\(?:ref|cite|eqref|vref|pageref|autoref|cref|Cref)\b)`)

// citeSpaceRule ties reference commands to the preceding word with ~.
type citeSpaceRule struct {
	log *report.Logger
}

func (r *citeSpaceRule) Name() string { return "nbsp-references" }

func (r *citeSpaceRule) Apply(path, text string) (string, bool) {
	count := 0
	out := citeSpacePattern.ReplaceAllStringFunc(text, func(m string) string {
		count++
		return "~" + m[1:]
	})
	if count > 0 {
		r.log.Infof("%s: replaced %d space(s) with ~ before references", path, count)
	}
	return out, false
}

// yoRule restores the letter ё in words commonly typed with е, preserving
// the case of the original word.
type yoRule struct {
	words map[string]string
	log   *report.Logger
}

func (r *yoRule) Name() string { return "yo-spelling" }

func (r *yoRule) Apply(path, text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text))
	count := 0

	runes := []rune(text)
	for i := 0; i < len(runes); {
		if !isWordRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && isWordRune(runes[j]) {
			j++
		}
		word := string(runes[i:j])
		if correct, ok := r.words[strings.ToLower(word)]; ok {
			b.WriteString(applyCase(word, correct))
			count++
		} else {
			b.WriteString(word)
		}
		i = j
	}
	if count > 0 {
		r.log.Infof("%s: replaced %d word(s) spelled with 'е' instead of 'ё'", path, count)
	}
	return b.String(), false
}

// isWordRune mirrors regexp word-character semantics so that word
// boundaries fall on punctuation and whitespace only.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// applyCase transfers the casing of the original word onto the
// replacement.
func applyCase(original, replacement string) string {
	orig := []rune(original)
	if isUpperWord(orig) {
		return strings.ToUpper(replacement)
	}
	if unicode.IsUpper(orig[0]) {
		rep := []rune(replacement)
		rep[0] = unicode.ToUpper(rep[0])
		return string(rep)
	}
	return replacement
}

func isUpperWord(word []rune) bool {
	hasLetter := false
	for _, r := range word {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// todoPattern matches a #TODO note and captures the remainder of the line.
var todoPattern = regexp.MustCompile(`(?i)#TODO(.*)`)

// todoRule reports leftover #TODO notes.
type todoRule struct {
	log *report.Logger
}

func (r *todoRule) Name() string { return "todo-comments" }

func (r *todoRule) Apply(path, text string) (string, bool) {
	for i, line := range strings.Split(text, "\n") {
		if m := todoPattern.FindStringSubmatch(line); m != nil {
			r.log.WarningAt(path, i+1, "found #TODO: %s", strings.TrimSpace(m[1]))
		}
	}
	return text, false
}
