package types

// ChatCompletionResponse is the outbound success envelope. The gateway always
// returns exactly one choice with finish_reason "stop".
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// UpstreamResponse is the slice of an upstream chat-completion body the
// gateway reads. Everything else in the upstream payload is discarded.
type UpstreamResponse struct {
	Choices []UpstreamChoice `json:"choices"`
}

type UpstreamChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Models endpoint response
type ModelsResponse struct {
	Object string       `json:"object"`
	Data   []ModelEntry `json:"data"`
}

type ModelEntry struct {
	ID            string        `json:"id"`
	Object        string        `json:"object"`
	Created       int64         `json:"created"`
	OwnedBy       string        `json:"owned_by"`
	Permission    []interface{} `json:"permission"`
	Root          string        `json:"root"`
	Parent        interface{}   `json:"parent"`
	ContextWindow int           `json:"context_window"`
	MaxTokens     int           `json:"max_tokens"`
}
