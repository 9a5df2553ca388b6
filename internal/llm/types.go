package llm

// GenerateRequest is the payload for the /api/generate endpoint.
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images,omitempty"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

// GenerateOptions holds sampling parameters.
type GenerateOptions struct {
	Temperature float64 `json:"temperature"`
}

// GenerateResponse is the non-streaming response from /api/generate.
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// TagsResponse lists the models installed on the server.
type TagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelInfo describes one installed model.
type ModelInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}
