package synthesis

// responseTemplates are the canned replies substituted when the model is
// unavailable or its output fails validation, keyed by primary emotion.
var responseTemplates = map[string][]string{
	"sadness": {
		"I can hear the sadness in your words, and I want you to know that it's okay to feel this way. Your emotions are valid, and you don't have to go through this alone. 💙",
		"It sounds like you're carrying some heavy feelings right now. Remember that sadness, while painful, is also a sign of your capacity to care deeply. I'm here with you. 🫂",
		"I see you're going through a difficult time. Please be gentle with yourself. These feelings won't last forever, even though they feel overwhelming right now. 🌸",
	},
	"anger": {
		"I can sense your frustration, and those feelings are completely valid. It's human to feel angry sometimes. Let's take a moment to breathe together. 🌱",
		"Your anger is telling you something important about what matters to you. Let's explore what's underneath these feelings in a safe way. 💚",
		"I hear how upset you are. It takes courage to express difficult emotions. You're doing the right thing by talking about it instead of keeping it inside. 🤗",
	},
	"fear": {
		"I can feel your worry, and I want you to know that you're safe here with me. Fear can be overwhelming, but you're braver than you think. 🦋",
		"Anxiety can make everything feel uncertain, but remember: you've faced difficult moments before and you're still here. That's strength. 🌟",
		"Your fears are real and valid. Let's take this one breath at a time. You don't have to face this alone. I'm right here with you. 🫧",
	},
	"joy": {
		"I can feel your happiness radiating through your words! It's wonderful to witness your joy. Please take a moment to really savor this feeling. ✨",
		"Your positive energy is infectious! I'm so glad you're experiencing this happiness. You deserve these beautiful moments. 🌻",
		"What a delightful thing to hear! Your joy reminds me of all the good that exists in the world. Thank you for sharing this brightness. ☀️",
	},
	"neutral": {
		"I'm here and I'm listening. Whatever you're going through, you don't have to face it alone. Your feelings matter. 🤗",
		"Thank you for trusting me with your thoughts. I'm honored to be part of your journey, whatever it may bring. 💜",
		"I hear you, and I'm with you in this moment. Sometimes just being acknowledged is enough. How are you really doing? 🌙",
	},
}

// disclaimerphrases are rejected outright: a reply containing any of
// these reads as a refusal or an AI disclaimer rather than support.
var disclaimerPhrases = []string{
	"i'm just an ai",
	"i'm not a therapist",
	"seek professional help immediately",
	"i can't help with that",
	"that's not my job",
}

// confidenceKeywords raise the reported confidence when the reply
// engages with the detected emotion directly.
var confidenceKeywords = map[string][]string{
	"sadness": {"sad", "difficult", "understand", "support", "comfort"},
	"anger":   {"frustrated", "angry", "valid", "breath", "calm"},
	"fear":    {"anxiety", "worry", "safe", "brave", "strength"},
	"joy":     {"happy", "wonderful", "celebrate", "joy", "bright"},
}

// emotionMapping folds the classifier's emotion vocabulary into the
// fixed set of template buckets.
var emotionMapping = map[string]string{
	"sadness":   "sadness",
	"anger":     "anger",
	"fear":      "fear",
	"anxiety":   "fear",
	"joy":       "joy",
	"happiness": "joy",
	"surprise":  "neutral",
	"disgust":   "anger",
	"love":      "joy",
	"optimism":  "joy",
	"pessimism": "sadness",
}
