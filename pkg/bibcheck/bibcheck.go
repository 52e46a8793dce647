// Package bibcheck validates bibliography entries against the house
// formatting rules: author layout, electronic-resource annotations,
// structural separators and general consistency. Rules only ever append
// warnings; the single hard error is an entry whose \bibitem structure
// cannot be parsed.
package bibcheck

import (
	"regexp"
	"strings"

	"github.com/coolbeans/texlint/pkg/texdoc"
)

// SourceType classifies where a bibliography entry comes from.
type SourceType string

const (
	// SourceScientific is a scientific repository (arXiv, eLibrary, ...).
	SourceScientific SourceType = "scientific"

	// SourceElectronic is any other URL-bearing source.
	SourceElectronic SourceType = "electronic"

	// SourcePrint is a source without a URL.
	SourcePrint SourceType = "print"

	// SourceUnknown is used when the entry could not be parsed.
	SourceUnknown SourceType = "unknown"
)

// ElectronicMarker is the exact annotation required on non-repository
// electronic sources.
const ElectronicMarker = "[Электронный ресурс]"

// EtAlMarker is the exact marker abbreviating a long author list.
const EtAlMarker = "[и др.]"

// Result is the validation outcome for one entry.
type Result struct {
	Key        string
	SourceType SourceType
	URL        string
	Warnings   []string
	Errors     []string
}

// Valid reports whether the entry passed with no findings at all.
func (r *Result) Valid() bool {
	return len(r.Warnings) == 0 && len(r.Errors) == 0
}

// Summary aggregates validation results for a whole bibliography.
type Summary struct {
	Total   int
	Valid   int
	Invalid int
	Results []*Result
}

// Validator checks bibliography entries. Patterns are compiled once;
// a Validator is safe for concurrent use.
type Validator struct {
	domains []string
	re      patterns
}

type patterns struct {
	authorWithComma  *regexp.Regexp
	etalSource       *regexp.Regexp
	etalMarker       *regexp.Regexp
	authorSlash      *regexp.Regexp
	urlRef           *regexp.Regexp
	electronicMarker *regexp.Regexp
	accessDate       *regexp.Regexp
	dashSeparator    *regexp.Regexp
	volumeWrong      *regexp.Regexp
	volumeCorrect    *regexp.Regexp
	numberWrong      *regexp.Regexp
	numberCorrect    *regexp.Regexp
	pagesWrong       *regexp.Regexp
	pagesCorrect     *regexp.Regexp
	extraSpaces      *regexp.Regexp
	doublePunct      *regexp.Regexp
	venueLetters     *regexp.Regexp
}

// venueKeywords hint that an entry describes a journal, conference or
// collection and therefore needs a "//" separator.
var venueKeywords = []string{
	"journal",
	"proc.",
	"conference",
	"proceedings",
	"сборник",
	"конференция",
	"журнал",
	"доклады",
	"труды",
}

// NewValidator creates a validator. scientificDomains classify URLs as
// scientific repository sources; matching is by substring of the lowercase
// URL.
func NewValidator(scientificDomains []string) *Validator {
	return &Validator{
		domains: scientificDomains,
		re: patterns{
			// Word boundaries are written out as \P{L} guards: RE2's \b
			// is ASCII-only and never fires next to Cyrillic letters.
			authorWithComma:  regexp.MustCompile(`([А-ЯЁа-яёA-Z][а-яёa-z]+),\s*([А-ЯЁA-Z]\.)`),
			etalSource:       regexp.MustCompile(`(?i)(?:^|\P{L})(?:et\s*\.?\s*al\.?|и\s*др\.?)`),
			etalMarker:       regexp.MustCompile(`\[и\s*др\.\]`),
			authorSlash:      regexp.MustCompile(`^([^/]+)\s*/\s*([^/]+?(?://|$))`),
			urlRef:           regexp.MustCompile(`URL:\s*\\url\{([^}]+)\}`),
			electronicMarker: regexp.MustCompile(`(?i)\[Электронный ресурс\]`),
			accessDate:       regexp.MustCompile(`\(дата\s+обращения:\s*(\d{2}\.\d{2}\.\d{4})\)`),
			dashSeparator:    regexp.MustCompile(`\s---\s`),
			volumeWrong:      regexp.MustCompile(`(?i)(?:^|\P{L})vol\.?\s*\d`),
			volumeCorrect:    regexp.MustCompile(`(?:^|\P{L})Т(?:ом)?\.?\s*\d`),
			numberWrong:      regexp.MustCompile(`(?i)(?:^|\P{L})no\.?\s*\d`),
			numberCorrect:    regexp.MustCompile(`№\s*\d`),
			pagesWrong:       regexp.MustCompile(`(?i)(?:^|\P{L})(?:pp\.?|p\.?|с\.?|стр\.?)\s*\d`),
			pagesCorrect:     regexp.MustCompile(`(?:^|\P{L})С\.\s*\d`),
			extraSpaces:      regexp.MustCompile(`\s{2,}`),
			doublePunct:      regexp.MustCompile(`\.{2,}|,{2,}|;{2,}|:{2,}`),
			venueLetters:     regexp.MustCompile(`\p{L}{3,}`),
		},
	}
}

// ValidateEntry validates one \bibitem entry. The entry may span multiple
// lines; continuation indentation is folded into single spaces before the
// rules run.
func (v *Validator) ValidateEntry(entry string) *Result {
	result := &Result{SourceType: SourceUnknown}

	key, content, ok := parseEntry(entry)
	if !ok {
		result.Errors = append(result.Errors, `cannot parse \bibitem entry structure`)
		return result
	}
	result.Key = key

	url := ""
	if m := v.re.urlRef.FindStringSubmatch(content); m != nil {
		url = m[1]
	}
	result.URL = url
	switch {
	case v.isScientificRepo(url):
		result.SourceType = SourceScientific
	case url != "":
		result.SourceType = SourceElectronic
	default:
		result.SourceType = SourcePrint
	}

	v.checkAuthors(content, result)
	v.checkElectronic(content, url, result)
	v.checkStructure(content, result)
	v.checkConsistency(content, result)

	return result
}

// ValidateBibliography validates a sequence of entries and aggregates the
// results.
func (v *Validator) ValidateBibliography(entries []string) *Summary {
	summary := &Summary{Total: len(entries)}
	for _, entry := range entries {
		result := v.ValidateEntry(entry)
		if result.Valid() {
			summary.Valid++
		} else {
			summary.Invalid++
		}
		summary.Results = append(summary.Results, result)
	}
	return summary
}

// parseEntry extracts the key and flattens the content to one line.
func parseEntry(entry string) (key, content string, ok bool) {
	key, content, ok = texdoc.ParseBibItem(entry)
	if !ok {
		return "", "", false
	}
	return key, flatten(content), true
}

// flatten joins continuation lines with single spaces so that line breaks
// inside an entry do not trip the whitespace rules.
func flatten(s string) string {
	lines := strings.Split(s, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if t := strings.TrimSpace(line); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (v *Validator) isScientificRepo(url string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(url)
	for _, domain := range v.domains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// countAuthors counts comma/semicolon-separated names in a segment.
func countAuthors(s string) int {
	n := 0
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

// leadSegment returns the entry text before the first "//" or "---"
// separator, where the head author list lives.
func leadSegment(s string) string {
	cut := len(s)
	if i := strings.Index(s, "//"); i >= 0 && i < cut {
		cut = i
	}
	if i := strings.Index(s, "--"); i >= 0 && i < cut {
		cut = i
	}
	return strings.TrimSpace(s[:cut])
}

func (v *Validator) hasEtAl(s string) bool {
	return v.re.etalSource.MatchString(s) || v.re.etalMarker.MatchString(s)
}

// checkAuthors enforces the author layout rules.
func (v *Validator) checkAuthors(content string, result *Result) {
	for _, m := range v.re.authorWithComma.FindAllStringSubmatch(content, -1) {
		result.Warnings = append(result.Warnings,
			`author written as "`+m[1]+`, `+m[2]+`"; use "Фамилия И." without a comma`)
	}

	slash := v.re.authorSlash.FindStringSubmatch(content)
	hasElectronic := v.re.electronicMarker.MatchString(content)

	authorCount := countAuthors(leadSegment(content))
	hasEtAl := v.hasEtAl(content)

	if authorCount > 3 || hasEtAl {
		if slash == nil {
			result.Warnings = append(result.Warnings,
				`more than 3 authors (or an "`+EtAlMarker+`" marker) require a "/" full author list section`)
			return
		}
		full := strings.TrimSpace(cutAt(cutAt(slash[2], "//"), "--"))
		if !v.hasEtAl(full) && countAuthors(full) < authorCount {
			result.Warnings = append(result.Warnings,
				`full author list after "/" must name all authors from the lead segment or carry "`+EtAlMarker+`"`)
		}
		return
	}

	if slash != nil && !hasElectronic {
		result.Warnings = append(result.Warnings,
			`the "/" separator is not used with 3 or fewer authors and no "`+EtAlMarker+`" marker`)
	}
}

func cutAt(s, sep string) string {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i]
	}
	return s
}

// checkElectronic enforces the electronic-resource annotation rules.
func (v *Validator) checkElectronic(content, url string, result *Result) {
	scientific := v.isScientificRepo(url)
	hasMarker := v.re.electronicMarker.MatchString(content)
	hasDate := v.re.accessDate.MatchString(content)

	if scientific {
		if hasMarker {
			result.Warnings = append(result.Warnings,
				`scientific repository sources do not carry the "`+ElectronicMarker+`" marker`)
		}
		if hasDate {
			result.Warnings = append(result.Warnings,
				"scientific repository sources do not carry an access date")
		}
		return
	}

	if url != "" {
		if hasMarker && !hasDate {
			result.Warnings = append(result.Warnings,
				`the "`+ElectronicMarker+`" marker requires an access date "(дата обращения: ДД.ММ.ГГГГ)"`)
		}
		if !hasMarker {
			result.Warnings = append(result.Warnings,
				`electronic source without the "`+ElectronicMarker+`" marker`)
		}
	}
	if hasDate && !hasMarker {
		result.Warnings = append(result.Warnings,
			`an access date is only given together with the "`+ElectronicMarker+`" marker`)
	}
	if hasMarker && url == "" {
		result.Warnings = append(result.Warnings,
			`the "`+ElectronicMarker+`" marker requires a URL`)
	}
}

// checkStructure enforces separator and localization rules.
func (v *Validator) checkStructure(content string, result *Result) {
	if !v.re.dashSeparator.MatchString(content) {
		result.Warnings = append(result.Warnings,
			`entry parts (year, volume, pages) must be separated with "---"`)
	}

	v.checkVenue(content, result)

	if v.re.volumeWrong.MatchString(content) && !v.re.volumeCorrect.MatchString(content) {
		result.Warnings = append(result.Warnings,
			`"Vol." must be localized as "Т."`)
	}
	if v.re.numberWrong.MatchString(content) && !v.re.numberCorrect.MatchString(content) {
		result.Warnings = append(result.Warnings,
			`"No." must be localized as "№"`)
	}
	if v.re.pagesWrong.MatchString(content) && !v.re.pagesCorrect.MatchString(content) {
		result.Warnings = append(result.Warnings,
			`"pp."/"p."/"с."/"стр." must be localized as "С."`)
	}
}

// checkVenue requires a real publication name after the "//" separator, or
// the separator itself when venue keywords suggest one is needed.
func (v *Validator) checkVenue(content string, result *Result) {
	sep := strings.Index(content, "//")
	if sep < 0 {
		lower := strings.ToLower(content)
		for _, kw := range venueKeywords {
			if strings.Contains(lower, kw) {
				result.Warnings = append(result.Warnings,
					`journal/conference/collection sources need a "//" separator before the publication name`)
				return
			}
		}
		return
	}

	after := strings.TrimSpace(content[sep+2:])
	cut := len(after)
	if i := strings.Index(after, "--"); i >= 0 && i < cut {
		cut = i
	}
	if i := strings.Index(after, "["); i >= 0 && i < cut {
		cut = i
	}
	name := strings.TrimSpace(after[:cut])

	switch {
	case name == "":
		result.Warnings = append(result.Warnings,
			`no publication name after the "//" separator`)
	case len([]rune(name)) < 5:
		result.Warnings = append(result.Warnings,
			`publication name after "//" is too short: "`+name+`"`)
	case !v.re.venueLetters.MatchString(name):
		result.Warnings = append(result.Warnings,
			`publication name after "//" does not look like a name: "`+name+`"`)
	}
}

// checkConsistency enforces whitespace, punctuation and marker hygiene.
func (v *Validator) checkConsistency(content string, result *Result) {
	if v.re.extraSpaces.MatchString(content) {
		result.Warnings = append(result.Warnings, "repeated whitespace; use single spaces")
	}
	if m := v.re.doublePunct.FindString(content); m != "" {
		result.Warnings = append(result.Warnings, `repeated punctuation: "`+m+`"`)
	}
	for _, m := range v.re.etalMarker.FindAllString(content, -1) {
		if m != EtAlMarker {
			result.Warnings = append(result.Warnings,
				`malformed authors marker "`+m+`"; use exactly "`+EtAlMarker+`"`)
		}
	}
}
