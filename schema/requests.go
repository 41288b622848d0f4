package schema

// Highlight triggers.

// HapticFeedbackRequest triggers a direct color highlight.
type HapticFeedbackRequest struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// HapticFeedbackResponse reports the outcome of a highlight trigger.
type HapticFeedbackResponse struct {
	Message  string          `json:"message"`
	Record   HighlightRecord `json:"-"`
	Warnings []string        `json:"warnings,omitempty"`
}

// AnalyzeSentimentRequest classifies a note and triggers its emotion color.
type AnalyzeSentimentRequest struct {
	Text            string `json:"text"`
	HighlightedText string `json:"highlightedText,omitempty"`
}

// AnalyzeSentimentResponse reports the detected emotion and assigned color.
type AnalyzeSentimentResponse struct {
	Message  string          `json:"message"`
	Color    string          `json:"color"`
	Emotion  Emotion         `json:"emotion"`
	Record   HighlightRecord `json:"-"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Replay.

// ReplayRequest replays the actuation stored for a highlight or note.
type ReplayRequest struct {
	Text string `json:"text"`
}

// ReplayResponse reports the replayed color.
type ReplayResponse struct {
	Message  string   `json:"message"`
	Color    string   `json:"color"`
	Warnings []string `json:"warnings,omitempty"`
}

// Classification without actuation.

// ClassifyRequest asks for the emotion of a text.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ClassifyResponse reports the cascade outcome.
type ClassifyResponse struct {
	Emotion Emotion             `json:"emotion"`
	Stage   string              `json:"stage"`
	Tokens  []string            `json:"tokens"`
	Scores  map[Emotion]float64 `json:"scores,omitempty"`
	Color   string              `json:"color"`
}
