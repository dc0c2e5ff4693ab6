package emotion

// Emotion labels the backend models can produce, in backend class order.
const (
	EmotionAngry     = "angry"
	EmotionCalm      = "calm"
	EmotionDisgust   = "disgust"
	EmotionFearful   = "fearful"
	EmotionHappy     = "happy"
	EmotionNeutral   = "neutral"
	EmotionSad       = "sad"
	EmotionSurprised = "surprised"
)

// Classes returns all emotion labels in backend class order.
func Classes() []string {
	return []string{
		EmotionAngry,
		EmotionCalm,
		EmotionDisgust,
		EmotionFearful,
		EmotionHappy,
		EmotionNeutral,
		EmotionSad,
		EmotionSurprised,
	}
}

// KnownEmotion reports whether the label is one the backend models produce.
func KnownEmotion(label string) bool {
	for _, class := range Classes() {
		if class == label {
			return true
		}
	}
	return false
}

// PredictionResult is the multi-modal response of the /predict endpoint.
// The audio model always answers; transcription and text fields stay empty
// when speech recognition produced nothing usable.
type PredictionResult struct {
	EmotionXGB         string  `json:"emotion_xgb"`
	ConfidenceXGB      float64 `json:"confidence_xgb"`
	EmotionEnsemble    string  `json:"emotion_ensemble"`
	ConfidenceEnsemble float64 `json:"confidence_ensemble"`
	Transcription      string  `json:"transcription"`
	EmotionText        string  `json:"emotion_text"`
	ConfidenceText     float64 `json:"confidence_text"`
	FinalEmotion       string  `json:"final_emotion"`
	FinalConfidence    float64 `json:"final_confidence"`
	Timestamp          string  `json:"timestamp"`
}

// Emotion returns the label and confidence the client should present: the
// fused result when the backend produced one, otherwise the best
// single-model answer.
func (r *PredictionResult) Emotion() (string, float64) {
	if r.FinalEmotion != "" {
		return r.FinalEmotion, r.FinalConfidence
	}

	if r.EmotionEnsemble != "" {
		return r.EmotionEnsemble, r.ConfidenceEnsemble
	}

	return r.EmotionXGB, r.ConfidenceXGB
}

// TextAnalysis is the response of the /analyze_text endpoint.
type TextAnalysis struct {
	Text        string   `json:"text"`
	Emotion     string   `json:"emotion"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
	Timestamp   string   `json:"timestamp"`
}

// ChatReply is the response of the /chat endpoint.
type ChatReply struct {
	Response        string  `json:"response"`
	DetectedEmotion string  `json:"detected_emotion"`
	Confidence      float64 `json:"confidence"`
	Timestamp       string  `json:"timestamp"`
}

// HealthStatus is the response of the /health endpoint.
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Healthy reports whether the backend considers itself operational.
func (h *HealthStatus) Healthy() bool {
	return h.Status == "ok"
}

type textRequest struct {
	Text string `json:"text"`
}

type chatRequest struct {
	Message        string `json:"message"`
	EmotionContext string `json:"emotion_context"`
}
