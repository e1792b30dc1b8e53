// Package match scores how well a search query matches a shop or product name
// using trigram (3-character shingle) Jaccard similarity, with the same word
// padding the Postgres pg_trgm extension uses.
package match

import (
	"errors"
	"strings"
	"unicode"
)

// Threshold is the similarity a candidate must exceed to match without a substring hit.
const Threshold = 0.1

// ErrEmptyQuery is returned when the query has no searchable characters.
var ErrEmptyQuery = errors.New("query must not be empty")

// Normalize lowercases s and collapses every run of whitespace into one space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Trigrams returns the set of padded trigrams of s. Each alphanumeric word w
// contributes the trigrams of "  "+w+" ".
func Trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Score is |A∩B| / |A∪B| over the trigram sets of query and candidate.
func Score(query, candidate string) float64 {
	a := Trigrams(query)
	b := Trigrams(candidate)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Contains reports a case-insensitive, whitespace-normalised substring hit.
func Contains(candidate, query string) bool {
	q := Normalize(query)
	if q == "" {
		return false
	}
	return strings.Contains(Normalize(candidate), q)
}

// Match returns the trigram score and whether the candidate counts as a match:
// score > Threshold, or the candidate contains the query.
func Match(query, candidate string) (float64, bool) {
	score := Score(query, candidate)
	return score, score > Threshold || Contains(candidate, query)
}

// Matcher wraps a validated query so the per-candidate work skips re-validating.
type Matcher struct {
	query    string
	trigrams map[string]struct{}
	norm     string
}

// New validates query; an empty query is rejected rather than scored 0.
func New(query string) (*Matcher, error) {
	norm := Normalize(query)
	if norm == "" {
		return nil, ErrEmptyQuery
	}
	return &Matcher{query: query, trigrams: Trigrams(query), norm: norm}, nil
}

func (m *Matcher) Query() string { return m.query }

// Score scores a single candidate field.
func (m *Matcher) Score(candidate string) float64 {
	b := Trigrams(candidate)
	if len(m.trigrams) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for g := range m.trigrams {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(m.trigrams)+len(b)-inter)
}

// Match applies the threshold-or-substring rule to one candidate field.
func (m *Matcher) Match(candidate string) (float64, bool) {
	score := m.Score(candidate)
	if score > Threshold {
		return score, true
	}
	return score, strings.Contains(Normalize(candidate), m.norm)
}

// MatchAny scores several fields (e.g. shop name and category). The score is the
// maximum across fields and the candidate matches if any field matches.
func (m *Matcher) MatchAny(fields ...string) (float64, bool) {
	best := 0.0
	matched := false
	for _, f := range fields {
		score, ok := m.Match(f)
		if score > best {
			best = score
		}
		matched = matched || ok
	}
	return best, matched
}
