package providers

import (
	"context"

	"github.com/modelgateway/azure-openai-proxy/internal/apierror"
	"github.com/modelgateway/azure-openai-proxy/internal/types"
)

// ChatProvider executes a reshaped chat-completion payload against one
// upstream. The outcome is either a response or a normalized error; there is
// no retry, and any transport fault is converted rather than propagated.
type ChatProvider interface {
	Name() string
	ChatCompletion(ctx context.Context, req *types.UpstreamRequest) (*types.UpstreamResponse, *apierror.Error)
}
