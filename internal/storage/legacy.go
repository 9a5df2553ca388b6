package storage

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Stores written by earlier versions kept the model reply as returned, so answers may be
// numbers and reasoning steps may be lists. These decoders accept any JSON value as text.

var analysisKeys = []string{"question_text", "topic_tag", "calculated_answer", "logic_template", "reasoning_steps"}

// FieldText converts a JSON value to text. Strings are returned as is, list items are
// joined by newlines, null is empty and other values keep their JSON form.
func FieldText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, FieldText(item))
		}
		return strings.Join(parts, "\n")
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

// UnmarshalJSON decodes an analysis object of any value shapes.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*a = Analysis{
		QuestionText:     FieldText(fields["question_text"]),
		TopicTag:         FieldText(fields["topic_tag"]),
		CalculatedAnswer: FieldText(fields["calculated_answer"]),
		LogicTemplate:    FieldText(fields["logic_template"]),
		ReasoningSteps:   FieldText(fields["reasoning_steps"]),
	}
	for _, k := range analysisKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		a.Extra = fields
	}
	return nil
}

// MarshalJSON writes the known fields followed by any extra keys.
func (a Analysis) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(analysisKeys)+len(a.Extra))
	for k, v := range a.Extra {
		out[k] = v
	}
	out["question_text"] = a.QuestionText
	out["topic_tag"] = a.TopicTag
	out["calculated_answer"] = a.CalculatedAnswer
	out["logic_template"] = a.LogicTemplate
	out["reasoning_steps"] = a.ReasoningSteps
	return json.Marshal(out)
}

// UnmarshalJSON decodes verification data whose answers may be numbers and whose
// confidence may be a boolean.
func (d *VerificationData) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserCorrectKey     json.RawMessage `json:"user_correct_key"`
		AICalculatedAnswer json.RawMessage `json:"ai_calculated_answer"`
		MatchConfidence    json.RawMessage `json:"match_confidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = VerificationData{UserCorrectKey: FieldText(raw.UserCorrectKey)}
	if computed := strings.TrimSpace(string(raw.AICalculatedAnswer)); computed != "" && computed != "null" {
		text := FieldText(raw.AICalculatedAnswer)
		d.AICalculatedAnswer = &text
	}

	switch conf := strings.TrimSpace(string(raw.MatchConfidence)); conf {
	case "", "null", "false":
	case "true":
		d.MatchConfidence = 1
	default:
		f, err := strconv.ParseFloat(conf, 64)
		if err != nil {
			return &json.UnmarshalTypeError{Value: conf, Field: "match_confidence"}
		}
		d.MatchConfidence = f
	}
	return nil
}
