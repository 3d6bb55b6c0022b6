package types

// ChatCompletionRequest is the OpenAI-compatible inbound request body.
// Optional generation parameters are pointers so that "absent" and "zero"
// stay distinguishable through validation and reshaping.
type ChatCompletionRequest struct {
	Model               string    `json:"model,omitempty"`
	Messages            []Message `json:"messages"`
	Temperature         *float64  `json:"temperature,omitempty"`
	MaxTokens           *int      `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int      `json:"max_completion_tokens,omitempty"`
	TopP                *float64  `json:"top_p,omitempty"`
	Stream              bool      `json:"stream,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UpstreamRequest is the reshaped payload sent to a provider. Stream is
// serialized unconditionally and is always false: the gateway never opens a
// streaming upstream connection, even when the client asked for one.
type UpstreamRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}
