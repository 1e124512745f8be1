// Package lexicon holds the interview keyword lexicon and matches finalized
// transcript text against it.
package lexicon

import (
	"sort"
	"strings"
)

// Category identifies one group of related interview terms.
type Category string

const (
	CategoryUser     Category = "user"
	CategoryProblem  Category = "problem"
	CategorySolution Category = "solution"
	CategoryEmotion  Category = "emotion"
	CategoryFeature  Category = "feature"
)

// Categories lists all categories in priority order. Earlier categories win
// when a suggestion must pick between several matched terms.
var Categories = []Category{
	CategoryUser,
	CategoryProblem,
	CategorySolution,
	CategoryEmotion,
	CategoryFeature,
}

// terms maps each category to its keyword list. Multi-word phrases are
// matched by containment, single words by exact token comparison.
var terms = map[Category][]string{
	CategoryUser: {
		"stakeholder", "end-user", "client", "customer journey",
		"user experience", "user interface", "user",
	},
	CategoryProblem: {
		"obstacle", "bottleneck", "frustration", "pain point",
		"inefficiency", "friction", "problem", "issue",
	},
	CategorySolution: {
		"implementation", "workaround", "resolution", "approach",
		"methodology", "framework", "solution", "fix",
	},
	CategoryEmotion: {
		"frustrated", "overwhelmed", "delighted", "confused",
		"dissatisfied", "enthusiastic", "happy", "sad",
	},
	CategoryFeature: {
		"functionality", "capability", "integration", "component",
		"module", "enhancement", "feature", "function",
	},
}

// singleWordCategory maps every single-word term to its category for O(1)
// token lookup during pass one.
var singleWordCategory = func() map[string]Category {
	m := make(map[string]Category)
	for _, cat := range Categories {
		for _, t := range terms[cat] {
			if !strings.Contains(t, " ") {
				m[t] = cat
			}
		}
	}
	return m
}()

// MatchText scans text for lexicon terms and returns the matched terms as an
// ordered, duplicate-free set.
//
// Matching runs in two passes. Pass one splits the lowercased text on
// whitespace and compares each token against every single-word term; hits
// are collected in the order the tokens appear. Only if pass one finds
// nothing does pass two run: it checks the lowercased text for substring
// containment of every multi-word phrase, in category then term order.
// Phrase scanning is skipped whenever any word-level hit exists.
func MatchText(text string) []string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil
	}

	var matched []string
	seen := make(map[string]bool)

	for _, tok := range strings.Fields(lower) {
		tok = strings.Trim(tok, ".,:;!?\"'()[]")
		if tok == "" || seen[tok] {
			continue
		}
		if _, ok := singleWordCategory[tok]; ok {
			seen[tok] = true
			matched = append(matched, tok)
		}
	}
	if len(matched) > 0 {
		return matched
	}

	for _, cat := range Categories {
		for _, term := range terms[cat] {
			if !strings.Contains(term, " ") {
				continue
			}
			if strings.Contains(lower, term) && !seen[term] {
				seen[term] = true
				matched = append(matched, term)
			}
		}
	}
	return matched
}

// CategoryOf returns the category a term belongs to, or false if the term is
// not in the lexicon. Lookup is case-insensitive.
func CategoryOf(term string) (Category, bool) {
	lower := strings.ToLower(term)
	for _, cat := range Categories {
		for _, t := range terms[cat] {
			if t == lower {
				return cat, true
			}
		}
	}
	return "", false
}

// HasCategory reports whether any of the given terms belongs to cat.
func HasCategory(matched []string, cat Category) bool {
	for _, term := range matched {
		if c, ok := CategoryOf(term); ok && c == cat {
			return true
		}
	}
	return false
}

// Vocabulary returns every term in the lexicon, sorted, for callers that
// build boost lists or spelling correctors from it.
func Vocabulary() []string {
	var out []string
	for _, cat := range Categories {
		out = append(out, terms[cat]...)
	}
	sort.Strings(out)
	return out
}

// Terms returns the term list for one category. The returned slice must not
// be modified.
func Terms(cat Category) []string {
	return terms[cat]
}
