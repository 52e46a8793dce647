// Package citeorder tracks the first occurrence of every citation key
// across a run's document fragments and reorders the bibliography to match.
// A Session has an explicit two-phase lifecycle: fragments are collected
// first, then a single Reorder consumes the state; collecting after that is
// an error until Reset.
package citeorder

import (
	"errors"
	"sort"
	"strings"

	"github.com/coolbeans/texlint/pkg/report"
	"github.com/coolbeans/texlint/pkg/texdoc"
)

// ErrSessionDone is returned when a Session is used after Reorder consumed
// its state.
var ErrSessionDone = errors.New("citeorder: session already consumed; Reset before collecting")

// Occurrence is the first point a citation key was seen.
type Occurrence struct {
	// Rank is the fragment's index in the prescribed document order;
	// unrecognized fragments rank after all listed ones.
	Rank int

	// Pos is the citation's ordinal within the fragment.
	Pos int

	// Seq is the session-wide collection ordinal. It breaks rank ties
	// between fragments that share the unranked sentinel, keeping their
	// keys in true first-mention order.
	Seq int
}

// phase tracks the Session lifecycle.
type phase int

const (
	phaseCollect phase = iota
	phaseDone
)

// Session accumulates citation keys and their first occurrences. It is the
// single-writer state shared by all fragments of one run.
type Session struct {
	rank     map[string]int
	unranked int

	seen  map[string]struct{}
	first map[string]Occurrence
	seq   int

	phase phase
	log   *report.Logger
}

// NewSession creates a session for the given fragment order (stems, reading
// order).
func NewSession(documentOrder []string, log *report.Logger) *Session {
	s := &Session{log: log}
	s.rank = make(map[string]int, len(documentOrder))
	for i, stem := range documentOrder {
		s.rank[stem] = i
	}
	s.unranked = len(documentOrder)
	s.Reset()
	return s
}

// Reset clears all collected state and re-opens the session for collection.
func (s *Session) Reset() {
	s.seen = make(map[string]struct{})
	s.first = make(map[string]Occurrence)
	s.seq = 0
	s.phase = phaseCollect
}

// Rank returns the fragment's position in the document order, or the
// unranked sentinel (greater than every real rank) when it is not listed.
func (s *Session) Rank(stem string) int {
	if r, ok := s.rank[stem]; ok {
		return r
	}
	return s.unranked
}

// Collect records every citation key in the fragment text. First
// occurrences are never overwritten. The fragment text is not changed.
func (s *Session) Collect(stem, text string) error {
	if s.phase != phaseCollect {
		return ErrSessionDone
	}
	rank := s.Rank(stem)
	for pos, key := range texdoc.Citations(text) {
		s.seen[key] = struct{}{}
		if _, ok := s.first[key]; !ok {
			s.first[key] = Occurrence{Rank: rank, Pos: pos, Seq: s.seq}
			s.seq++
		}
	}
	return nil
}

// FirstSeenOrder returns all recorded keys sorted by rank, then by the
// session-wide collection ordinal. Within one fragment the ordinal follows
// citation position; across fragments sharing a rank it preserves
// first-mention order.
func (s *Session) FirstSeenOrder() []string {
	keys := make([]string, 0, len(s.first))
	for key := range s.first {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := s.first[keys[i]], s.first[keys[j]]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.Seq < b.Seq
	})
	return keys
}

// Reorder rewrites the bibliography fragment so its entries follow
// first-occurrence order; entries never cited keep their original relative
// order after the cited ones. Cross-reference mismatches are reported as
// warnings. The session is consumed: its state is cleared and collection is
// rejected until Reset.
func (s *Session) Reorder(path, text string) (string, error) {
	if s.phase != phaseCollect {
		return text, ErrSessionDone
	}
	defer func() {
		s.phase = phaseDone
		s.seen = make(map[string]struct{})
		s.first = make(map[string]Occurrence)
	}()

	start, end, ok := texdoc.BibEnv(text)
	if !ok {
		s.log.Warningf("%s: thebibliography environment not found", path)
		return text, nil
	}

	env := text[start:end]
	preamble, entries := texdoc.SplitBibEntries(env)

	byKey := make(map[string]texdoc.BibEntry, len(entries))
	currentOrder := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, dup := byKey[e.Key]; !dup {
			byKey[e.Key] = e
			currentOrder = append(currentOrder, e.Key)
		}
	}

	firstSeen := s.FirstSeenOrder()

	for _, key := range firstSeen {
		if _, ok := byKey[key]; !ok {
			s.log.Warningf("%s: source %q is cited in the text but missing from the bibliography", path, key)
		}
	}
	for _, key := range currentOrder {
		if _, ok := s.seen[key]; !ok {
			s.log.Warningf("%s: source %q is listed in the bibliography but never cited", path, key)
		}
	}

	newOrder := make([]string, 0, len(currentOrder))
	placed := make(map[string]struct{}, len(currentOrder))
	for _, key := range firstSeen {
		if _, ok := byKey[key]; ok {
			newOrder = append(newOrder, key)
			placed[key] = struct{}{}
		}
	}
	reordered := len(newOrder)
	for _, key := range currentOrder {
		if _, ok := placed[key]; !ok {
			newOrder = append(newOrder, key)
		}
	}

	if equalOrder(newOrder, currentOrder) {
		return text, nil
	}

	parts := make([]string, 0, len(newOrder)+1)
	parts = append(parts, preamble)
	for _, key := range newOrder {
		parts = append(parts, byKey[key].Text)
	}
	newEnv := strings.Join(parts, "\n")
	if !strings.HasSuffix(newEnv, "\n") {
		newEnv += "\n"
	}

	s.log.Infof("%s: reordered %d source(s) (total: %d)", path, reordered, len(newOrder))
	return text[:start] + newEnv + text[end:], nil
}

func equalOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
