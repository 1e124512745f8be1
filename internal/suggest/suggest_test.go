package suggest

import (
	"reflect"
	"testing"

	"github.com/vhallgren/lyssna/internal/lexicon"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		matched []string
		want    []string
	}{
		{
			name:    "no matches",
			matched: nil,
			want:    nil,
		},
		{
			name:    "single category",
			matched: []string{"stakeholder"},
			want:    []string{"How does this affect the user's daily workflow?"},
		},
		{
			name:    "two categories in priority order",
			matched: []string{"fix", "user"},
			want: []string{
				"How does this affect the user's daily workflow?",
				"What solutions have they tried so far?",
			},
		},
		{
			name:    "capped at two despite three categories",
			matched: []string{"frustrated", "issue", "client"},
			want: []string{
				"How does this affect the user's daily workflow?",
				"What are the main challenges they're facing?",
			},
		},
		{
			name:    "feature only gets the feature question",
			matched: []string{"integration"},
			want:    []string{"What features would help solve this problem?"},
		},
		{
			name:    "multiple terms same category yield one question",
			matched: []string{"problem", "bottleneck", "friction"},
			want:    []string{"What are the main challenges they're facing?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Generate(tt.matched)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Generate(%v) = %v, want %v", tt.matched, got, tt.want)
			}
		})
	}
}

func TestGenerateFallback(t *testing.T) {
	t.Parallel()

	// A matched term with no lexicon category takes the generic pair.
	got := Generate([]string{"onboarding"})
	want := []string{
		"Can you elaborate more about onboarding?",
		"How does this impact the overall experience?",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Generate = %v, want %v", got, want)
	}
}

func TestGenerateNeverExceedsCap(t *testing.T) {
	t.Parallel()

	got := Generate(lexicon.Vocabulary())
	if len(got) > MaxQuestions {
		t.Fatalf("len = %d, want <= %d", len(got), MaxQuestions)
	}
}
