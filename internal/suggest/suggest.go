// Package suggest turns lexicon matches into follow-up interview questions.
package suggest

import (
	"fmt"

	"github.com/vhallgren/lyssna/internal/lexicon"
)

// MaxQuestions caps how many questions a single suggestion carries.
const MaxQuestions = 2

// questionForCategory maps each lexicon category to its canned follow-up.
var questionForCategory = map[lexicon.Category]string{
	lexicon.CategoryUser:     "How does this affect the user's daily workflow?",
	lexicon.CategoryProblem:  "What are the main challenges they're facing?",
	lexicon.CategorySolution: "What solutions have they tried so far?",
	lexicon.CategoryEmotion:  "Can you tell me more about what led to that feeling?",
	lexicon.CategoryFeature:  "What features would help solve this problem?",
}

// Generate builds at most MaxQuestions follow-up questions from matched
// lexicon terms. It returns nil when matched is empty.
//
// Categories are checked in priority order (user, problem, solution,
// emotion, feature); each category with at least one matched term
// contributes its canned question until the cap is reached. If no category
// question applied at all, a generic pair anchored on the first matched
// term is returned instead.
func Generate(matched []string) []string {
	if len(matched) == 0 {
		return nil
	}

	var questions []string
	for _, cat := range lexicon.Categories {
		if len(questions) >= MaxQuestions {
			break
		}
		if lexicon.HasCategory(matched, cat) {
			questions = append(questions, questionForCategory[cat])
		}
	}

	if len(questions) == 0 {
		questions = []string{
			fmt.Sprintf("Can you elaborate more about %s?", matched[0]),
			"How does this impact the overall experience?",
		}
	}

	if len(questions) > MaxQuestions {
		questions = questions[:MaxQuestions]
	}
	return questions
}
