// Package rules implements the linting pipeline. Each rule takes the full
// text of a fragment and returns the rewritten text together with a flag
// reporting whether the rule found hard errors. Rules never abort the
// pipeline; diagnostics go to the shared logger.
package rules

import (
	"path/filepath"
	"strings"

	"github.com/coolbeans/texlint/pkg/bibcheck"
	"github.com/coolbeans/texlint/pkg/citeorder"
	"github.com/coolbeans/texlint/pkg/config"
	"github.com/coolbeans/texlint/pkg/lists"
	"github.com/coolbeans/texlint/pkg/report"
	"github.com/coolbeans/texlint/pkg/texdoc"
)

// Rule is one pipeline stage.
type Rule interface {
	// Name identifies the rule in diagnostics.
	Name() string

	// Apply rewrites text and reports whether hard errors were found.
	Apply(path, text string) (string, bool)
}

// Pipeline runs rules in a fixed order.
type Pipeline struct {
	rules []Rule
}

// NewPipeline creates a pipeline over the given rules, applied in order.
func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// Apply runs every rule over the text. The error flag is true when any
// rule reported errors; a failing rule does not stop later rules.
func (p *Pipeline) Apply(path, text string) (string, bool) {
	hadError := false
	for _, r := range p.rules {
		var e bool
		text, e = r.Apply(path, text)
		if e {
			hadError = true
		}
	}
	return text, hadError
}

// Stages returns the rule names in pipeline order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name()
	}
	return names
}

// Stem returns the fragment identity for a path, the base name without
// the extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Standard builds the default pipeline. The citation rule must see every
// ordinary fragment before the bibliography fragment; the runner feeds
// files in that order.
func Standard(cfg *config.Config, log *report.Logger, session *citeorder.Session) *Pipeline {
	return NewPipeline(
		&forbiddenRule{words: cfg.ForbiddenWords, log: log},
		&listRule{rw: lists.NewRewriter(cfg.Abbreviations, log)},
		&citationRule{bib: cfg.Bibliography, session: session, log: log},
		&typographyRule{log: log},
		&dashRule{log: log},
		&citeSpaceRule{log: log},
		&yoRule{words: cfg.YoWords, log: log},
		&todoRule{log: log},
		&equationRule{log: log},
		&bibFormatRule{bib: cfg.Bibliography, v: bibcheck.NewValidator(cfg.ScientificDomains), log: log},
	)
}

// listRule adapts the list rewriter to the pipeline.
type listRule struct {
	rw *lists.Rewriter
}

func (r *listRule) Name() string { return "list-punctuation" }

func (r *listRule) Apply(path, text string) (string, bool) {
	return r.rw.Fix(path, text), false
}

// citationRule accumulates citation keys from ordinary fragments and
// reorders the bibliography fragment once all of them have been seen.
type citationRule struct {
	bib     string
	session *citeorder.Session
	log     *report.Logger
}

func (r *citationRule) Name() string { return "citation-order" }

func (r *citationRule) Apply(path, text string) (string, bool) {
	stem := Stem(path)
	if stem == r.bib {
		out, err := r.session.Reorder(path, text)
		if err != nil {
			r.log.Errorf("%s: %v", path, err)
			return text, true
		}
		return out, false
	}
	if err := r.session.Collect(stem, text); err != nil {
		r.log.Errorf("%s: %v", path, err)
		return text, true
	}
	return text, false
}

// bibFormatRule validates bibliography entry formatting. It only applies
// to the bibliography fragment and never rewrites text.
type bibFormatRule struct {
	bib string
	v   *bibcheck.Validator
	log *report.Logger
}

func (r *bibFormatRule) Name() string { return "bibliography-format" }

func (r *bibFormatRule) Apply(path, text string) (string, bool) {
	if Stem(path) != r.bib {
		return text, false
	}
	start, end, ok := texdoc.BibEnv(text)
	if !ok {
		return text, false
	}
	_, entries := texdoc.SplitBibEntries(text[start:end])
	hadError := false
	for _, entry := range entries {
		result := r.v.ValidateEntry(entry.Text)
		for _, w := range result.Warnings {
			r.log.Warningf("%s: entry '%s': %s", path, entry.Key, w)
		}
		for _, e := range result.Errors {
			r.log.Errorf("%s: entry '%s': %s", path, entry.Key, e)
			hadError = true
		}
	}
	return text, hadError
}
