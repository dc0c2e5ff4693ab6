package emotion

// suggestionCatalog mirrors the backend catalog so offline flows and
// audio-only predictions still show the same supportive guidance.
var suggestionCatalog = map[string][]string{
	EmotionAngry: {
		"Take a few deep breaths",
		"Try counting to 10",
		"Consider what triggered this feeling",
	},
	EmotionSad: {
		"It's okay to feel sad sometimes",
		"Reach out to someone you trust",
		"Practice self-compassion",
	},
	EmotionFearful: {
		"You're safe right now",
		"Ground yourself with 5-4-3-2-1 technique",
		"Focus on what you can control",
	},
	EmotionHappy: {
		"Cherish this moment",
		"Share your joy with others",
		"Practice gratitude",
	},
	EmotionNeutral: {
		"Take a moment to check in with yourself",
		"Notice your surroundings",
		"How can I support you?",
	},
	EmotionCalm: {
		"Enjoy this peaceful moment",
		"Notice how relaxation feels",
		"Carry this calm with you",
	},
	EmotionSurprised: {
		"Take a moment to process",
		"It's okay to feel caught off guard",
		"How does this surprise make you feel?",
	},
	EmotionDisgust: {
		"Honor your boundaries",
		"It's valid to feel uncomfortable",
		"What can you do to feel more comfortable?",
	},
}

// Suggestions returns supportive follow-ups for a detected emotion.
// Unknown labels fall back to the neutral set.
func Suggestions(emotion string) []string {
	if tips, ok := suggestionCatalog[emotion]; ok {
		return tips
	}
	return suggestionCatalog[EmotionNeutral]
}
