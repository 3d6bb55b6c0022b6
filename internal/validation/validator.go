package validation

import (
	"github.com/modelgateway/azure-openai-proxy/internal/apierror"
	"github.com/modelgateway/azure-openai-proxy/internal/types"
)

// Validate checks client-supplied generation parameters against the accepted
// ranges. The rules are independent; the first violation wins. Boundary
// values are accepted.
func Validate(req *types.ChatCompletionRequest) *apierror.Error {
	if t := req.Temperature; t != nil && (*t < 0 || *t > 2) {
		return apierror.InvalidParameters("temperature must be between 0 and 2")
	}
	if m := req.MaxTokens; m != nil && *m <= 0 {
		return apierror.InvalidParameters("max_tokens must be a positive integer")
	}
	if m := req.MaxCompletionTokens; m != nil && *m <= 0 {
		return apierror.InvalidParameters("max_completion_tokens must be a positive integer")
	}
	if p := req.TopP; p != nil && (*p < 0 || *p > 1) {
		return apierror.InvalidParameters("top_p must be between 0 and 1")
	}
	return nil
}

// ResolveMaxTokens picks the effective token limit: max_tokens wins over
// max_completion_tokens; nil when neither is set, letting the upstream apply
// its own default.
func ResolveMaxTokens(req *types.ChatCompletionRequest) *int {
	if req.MaxTokens != nil {
		return req.MaxTokens
	}
	return req.MaxCompletionTokens
}

// BuildUpstreamRequest reshapes a validated request for a provider call. The
// message sequence passes through unmodified and stream is forced false.
func BuildUpstreamRequest(req *types.ChatCompletionRequest, deployment string) *types.UpstreamRequest {
	return &types.UpstreamRequest{
		Model:       deployment,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   ResolveMaxTokens(req),
		Stream:      false,
	}
}
