package generation

import "strings"

// Category pairs a keyword set with the canned reply returned when any
// of its keywords appear in a prompt.
type Category struct {
	Name     string
	Keywords []string
	Response string
}

// DefaultCategories returns the built-in fallback categories. Order
// matters: the first matching category wins.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:     "sadness",
			Keywords: []string{"sad", "depressed", "down", "upset"},
			Response: "I understand you're going through a tough time. It's okay to feel sad sometimes - these feelings are valid and temporary. Would you like to talk more about what's bothering you? 💙",
		},
		{
			Name:     "anger",
			Keywords: []string{"angry", "frustrated", "mad", "annoyed"},
			Response: "It sounds like you're feeling frustrated right now. That's completely understandable. Take a deep breath with me. Sometimes talking through what's making us angry can help. I'm here to listen. 🫂",
		},
		{
			Name:     "fear",
			Keywords: []string{"anxious", "worried", "nervous", "stressed"},
			Response: "I can sense you're feeling anxious. Anxiety can be overwhelming, but you're not alone in this. Try taking some slow, deep breaths. What's one thing that usually helps you feel calmer? 🌸",
		},
		{
			Name:     "joy",
			Keywords: []string{"happy", "excited", "joyful", "great", "wonderful"},
			Response: "I'm so glad to hear you're feeling positive! It's wonderful when we experience joy. What's been the highlight of your day? I'd love to celebrate this moment with you! ✨",
		},
		{
			Name:     "fatigue",
			Keywords: []string{"tired", "exhausted", "drained", "overwhelmed"},
			Response: "You sound really tired right now. It's important to acknowledge when we need rest. Have you been taking care of yourself lately? Sometimes we need to slow down and recharge. 🌙",
		},
	}
}

// GenericResponse is the fallback reply when no keyword category matches
const GenericResponse = "Thank you for sharing with me. I'm here to listen and support you through whatever you're experiencing. Your feelings matter, and you're not alone. How can I help you today? 🤗"

// Responder produces deterministic canned replies from keyword matching.
// It guarantees the pipeline always has something to say even with zero
// external connectivity.
type Responder struct {
	categories []Category
	generic    string
}

// NewResponder creates a responder with the default keyword tables
func NewResponder() *Responder {
	return NewResponderWithCategories(DefaultCategories(), GenericResponse)
}

// NewResponderWithCategories creates a responder with custom tables
func NewResponderWithCategories(categories []Category, generic string) *Responder {
	return &Responder{
		categories: categories,
		generic:    generic,
	}
}

// Respond matches the prompt against the keyword categories in fixed
// priority order and returns the matched canned reply, or the generic
// supportive message when nothing matches. Matching is case-insensitive.
func (r *Responder) Respond(prompt string) string {
	lowered := strings.ToLower(prompt)

	for _, category := range r.categories {
		for _, keyword := range category.Keywords {
			if strings.Contains(lowered, keyword) {
				return category.Response
			}
		}
	}

	return r.generic
}
