package synthesis

import (
	"fmt"
	"strings"
)

// systemPrompts are the per-emotion instruction templates. %s is the
// fused emotion label.
var systemPrompts = map[string]string{
	"default": `You are EmpathyAI, a compassionate mental health companion.
Respond with warmth, understanding, and genuine care.
Keep responses under 120 words. Be supportive but not clinical.
Use gentle, encouraging language. Acknowledge emotions: %s.`,

	"sadness": `You are EmpathyAI, speaking to someone feeling sad or down.
Show deep empathy and validation. Offer gentle comfort and hope.
Remind them that sadness is temporary and they're not alone.
Keep under 120 words. Emotion context: %s.`,

	"anger": `You are EmpathyAI, helping someone process anger or frustration.
Validate their feelings without encouraging harmful actions.
Help them find healthy ways to express and process anger.
Stay calm and grounding. Keep under 120 words. Emotion: %s.`,

	"fear": `You are EmpathyAI, supporting someone experiencing fear or anxiety.
Offer reassurance and practical coping strategies.
Help them feel safe and grounded in the present moment.
Use calming, confident language. Under 120 words. Emotion: %s.`,

	"joy": `You are EmpathyAI, celebrating positive emotions with someone.
Share in their happiness and help them savor the moment.
Encourage them to appreciate and remember this feeling.
Be warm and uplifting. Keep under 120 words. Emotion: %s.`,
}

// maxHistoryPairs bounds how much conversation context goes in a prompt
const maxHistoryPairs = 3

// buildPrompt composes the full generation prompt: per-emotion system
// instructions, recent conversation context, the literal current message
// and the formatting requirements.
func buildPrompt(userText, fusedLabel, primaryEmotion string, history []Exchange) string {
	system, ok := systemPrompts[primaryEmotion]
	if !ok {
		system = systemPrompts["default"]
	}
	system = fmt.Sprintf(system, fusedLabel)

	var historyBlock strings.Builder
	if len(history) > 0 {
		recent := history
		if len(recent) > maxHistoryPairs {
			recent = recent[len(recent)-maxHistoryPairs:]
		}
		historyBlock.WriteString("\n\nRecent conversation context:\n")
		for i, exchange := range recent {
			fmt.Fprintf(&historyBlock, "%d. User: %s, AI: %s\n", i+1, exchange.User, exchange.Assistant)
		}
	}

	return fmt.Sprintf(`%s
%s
Current user message: %q

Please respond with empathy, understanding, and genuine care. Focus on:
1. Acknowledging their emotional state (%s)
2. Providing appropriate support and validation
3. Being warm but not overly clinical
4. Keeping response under 120 words

Response:`, system, historyBlock.String(), userText, fusedLabel)
}
