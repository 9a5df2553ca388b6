package llm

import (
	"encoding/json"
	"strings"

	"mistakevault/internal/storage"
)

// UnknownTopic is the topic given to replies that could not be parsed.
const UnknownTopic = "Unknown"

// ParseAnalysis extracts the analysis object from a model reply. Models often wrap the
// JSON in prose or code fences, so the span from the first '{' to the last '}' is decoded.
// Field values that are not strings (numbers, lists of steps) are converted to text.
// Keys outside the known set are kept in Extra.
func ParseAnalysis(text string) storage.Analysis {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		var analysis storage.Analysis
		if err := json.Unmarshal([]byte(text[start:end+1]), &analysis); err == nil {
			return analysis
		}
	}

	return storage.Analysis{
		QuestionText:   text,
		TopicTag:       UnknownTopic,
		ReasoningSteps: text,
	}
}
