package transcript

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// CorrectorOption is a functional option for configuring a [Corrector].
type CorrectorOption func(*Corrector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched vocabulary term to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) CorrectorOption {
	return func(c *Corrector) {
		c.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic match is found and the corrector falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) CorrectorOption {
	return func(c *Corrector) {
		c.fuzzyThreshold = threshold
	}
}

// Corrector repairs near-miss vocabulary words in recognized speech before
// keyword analysis runs. Speech recognition frequently mangles domain terms
// ("bottle neck" for "bottleneck", "fricktion" for "friction"); the
// corrector realigns such tokens against a fixed vocabulary using Double
// Metaphone phonetic codes ranked by Jaro-Winkler similarity.
//
// A Corrector is read-only after construction and safe for concurrent use.
type Corrector struct {
	vocab             []string
	vocabSet          map[string]struct{}
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewCorrector returns a Corrector over the given vocabulary. Multi-word
// vocabulary terms are ignored; only single tokens are ever rewritten.
func NewCorrector(vocab []string, opts ...CorrectorOption) *Corrector {
	c := &Corrector{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
		vocabSet:          make(map[string]struct{}),
	}
	for _, term := range vocab {
		lower := strings.ToLower(strings.TrimSpace(term))
		if lower == "" || strings.Contains(lower, " ") {
			continue
		}
		c.vocab = append(c.vocab, lower)
		c.vocabSet[lower] = struct{}{}
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct rewrites near-miss tokens in text to their closest vocabulary
// term and reports whether anything changed. Tokens that already are
// vocabulary terms, or that score below both thresholds, pass through
// unchanged.
func (c *Corrector) Correct(text string) (string, bool) {
	if len(c.vocab) == 0 || strings.TrimSpace(text) == "" {
		return text, false
	}

	tokens := strings.Fields(text)
	changed := false
	for i, tok := range tokens {
		core, prefix, suffix := splitPunct(tok)
		if core == "" {
			continue
		}
		lower := strings.ToLower(core)
		if _, ok := c.vocabSet[lower]; ok {
			continue
		}
		if term, ok := c.match(lower); ok {
			tokens[i] = prefix + term + suffix
			changed = true
		}
	}
	if !changed {
		return text, false
	}
	return strings.Join(tokens, " "), true
}

// match finds the best vocabulary term for word, or false when nothing
// scores above the thresholds. Phonetic candidates, found by Double
// Metaphone code overlap, win over pure fuzzy matches.
func (c *Corrector) match(word string) (string, bool) {
	p1, s1 := matchr.DoubleMetaphone(word)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)
	for _, term := range c.vocab {
		tp, ts := matchr.DoubleMetaphone(term)
		phonetic := codesOverlap(p1, s1, tp, ts)

		score := matchr.JaroWinkler(word, term, true)
		if phonetic {
			if score >= c.phoneticThreshold && (!bestPhonetic || score > bestScore) {
				best, bestScore, bestPhonetic = term, score, true
			}
		} else if !bestPhonetic {
			if score >= c.fuzzyThreshold && score > bestScore {
				best, bestScore = term, score
			}
		}
	}
	return best, best != ""
}

func codesOverlap(p1, s1, p2, s2 string) bool {
	if p1 == "" && s1 == "" {
		return false
	}
	return (p1 != "" && (p1 == p2 || p1 == s2)) ||
		(s1 != "" && (s1 == p2 || s1 == s2))
}

// splitPunct strips leading and trailing punctuation from a token so it can
// be reattached around a corrected word.
func splitPunct(tok string) (core, prefix, suffix string) {
	start := 0
	for start < len(tok) && isPunct(tok[start]) {
		start++
	}
	end := len(tok)
	for end > start && isPunct(tok[end-1]) {
		end--
	}
	return tok[start:end], tok[:start], tok[end:]
}

func isPunct(b byte) bool {
	switch b {
	case '.', ',', ':', ';', '!', '?', '"', '\'', '(', ')', '[', ']':
		return true
	}
	return false
}
