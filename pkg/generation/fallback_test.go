package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponder_KeywordCategories(t *testing.T) {
	responder := NewResponder()

	tests := []struct {
		prompt   string
		contains string
	}{
		{"I've been feeling really sad lately", "tough time"},
		{"I'm so MAD about all of this", "frustrated"},
		{"honestly quite worried about tomorrow", "anxious"},
		{"today was wonderful", "joy"},
		{"I'm completely drained after this week", "rest"},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			got := responder.Respond(tt.prompt)
			assert.Contains(t, got, tt.contains)
		})
	}
}

func TestResponder_PriorityOrder(t *testing.T) {
	responder := NewResponder()

	// Sadness is checked before fatigue, so a prompt with both matches sadness
	got := responder.Respond("I'm sad and tired")
	assert.Contains(t, got, "tough time")
}

func TestResponder_GenericWhenNoMatch(t *testing.T) {
	responder := NewResponder()

	got := responder.Respond("tell me about the weather")
	assert.Equal(t, GenericResponse, got)
}

func TestResponder_Deterministic(t *testing.T) {
	responder := NewResponder()

	first := responder.Respond("feeling anxious about everything")
	second := responder.Respond("feeling anxious about everything")
	assert.Equal(t, first, second)
}

func TestResponder_CustomCategories(t *testing.T) {
	responder := NewResponderWithCategories([]Category{
		{Name: "custom", Keywords: []string{"widget"}, Response: "widgets are fine"},
	}, "nothing matched")

	assert.Equal(t, "widgets are fine", responder.Respond("my WIDGET broke"))
	assert.Equal(t, "nothing matched", responder.Respond("hello"))
}
