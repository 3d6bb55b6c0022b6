package github

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/modelgateway/azure-openai-proxy/internal/apierror"
	"github.com/modelgateway/azure-openai-proxy/internal/providers"
	"github.com/modelgateway/azure-openai-proxy/internal/types"
)

// Provider calls the GitHub Models inference endpoint with plain bearer
// authentication. It is only usable when a token is configured; a selection
// without one is answered locally, without attempting the call.
type Provider struct {
	config *Config
	logger *logrus.Logger
}

// Config holds the per-request GitHub Models call parameters. A nil config
// means the provider is unconfigured.
type Config struct {
	BaseURL string
	Token   string
}

// NewProvider creates a GitHub Models provider instance.
func NewProvider(config *Config, logger *logrus.Logger) *Provider {
	return &Provider{
		config: config,
		logger: logger,
	}
}

// Name returns the provider tag used in error envelopes.
func (p *Provider) Name() string {
	return "github"
}

// ChatCompletion performs a non-streaming chat completion request.
func (p *Provider) ChatCompletion(ctx context.Context, req *types.UpstreamRequest) (*types.UpstreamResponse, *apierror.Error) {
	if p.config == nil || p.config.Token == "" {
		return nil, apierror.MissingAPIKey(p.Name())
	}

	clientConfig := openai.DefaultConfig(p.config.Token)
	if p.config.BaseURL != "" {
		clientConfig.BaseURL = p.config.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, p.convertRequest(req))
	if err != nil {
		return nil, p.normalizeError(err)
	}

	out := &types.UpstreamResponse{}
	for _, choice := range resp.Choices {
		var uc types.UpstreamChoice
		uc.Message.Content = choice.Message.Content
		out.Choices = append(out.Choices, uc)
	}
	return out, nil
}

// convertRequest maps the reshaped payload onto the SDK request type.
func (p *Provider) convertRequest(req *types.UpstreamRequest) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model:  req.Model,
		Stream: false,
	}
	for _, msg := range req.Messages {
		out.Messages = append(out.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		out.TopP = float32(*req.TopP)
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	return out
}

// normalizeError maps SDK failures onto the error envelope: a decoded
// upstream error keeps its status and code, an undecodable error body becomes
// a parse_error, anything else is a generic proxy fault.
func (p *Provider) normalizeError(err error) *apierror.Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if s, ok := apiErr.Code.(string); ok {
			code = s
		}
		p.logger.WithFields(logrus.Fields{
			"status": apiErr.HTTPStatusCode,
			"code":   code,
		}).Warn("GitHub Models upstream error")
		return apierror.Upstream(p.Name(), apiErr.HTTPStatusCode, code, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		p.logger.WithField("status", reqErr.HTTPStatusCode).Warn("Undecodable GitHub Models error body")
		return apierror.ParseError(p.Name(), reqErr.Error())
	}

	p.logger.WithError(err).Error("GitHub Models upstream call failed")
	return apierror.Internal(err)
}

var _ providers.ChatProvider = (*Provider)(nil)
