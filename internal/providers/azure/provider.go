package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/modelgateway/azure-openai-proxy/internal/apierror"
	"github.com/modelgateway/azure-openai-proxy/internal/providers"
	"github.com/modelgateway/azure-openai-proxy/internal/types"
)

// Provider calls the Azure-style inference endpoint. The base URL may be an
// explicit endpoint, a deployment-addressed resource URL, or the shared
// default inference endpoint; in every case the chat-completions operation is
// POST {base}/chat/completions?api-version={v} authenticated with the api-key
// header.
type Provider struct {
	httpClient *http.Client
	config     *Config
	logger     *logrus.Logger
}

// Config holds the per-request Azure call parameters.
type Config struct {
	BaseURL    string
	APIKey     string
	APIVersion string
}

// NewProvider creates an Azure provider instance.
func NewProvider(config *Config, logger *logrus.Logger) *Provider {
	return &Provider{
		httpClient: http.DefaultClient,
		config:     config,
		logger:     logger,
	}
}

// Name returns the provider tag used in error envelopes.
func (p *Provider) Name() string {
	return "azure"
}

// upstreamError matches the error body shape Azure returns on non-success
// statuses.
type upstreamError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ChatCompletion performs a non-streaming chat completion request.
func (p *Provider) ChatCompletion(ctx context.Context, req *types.UpstreamRequest) (*types.UpstreamResponse, *apierror.Error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apierror.Internal(err)
	}

	url := fmt.Sprintf("%s/chat/completions?api-version=%s", p.config.BaseURL, p.config.APIVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apierror.Internal(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", p.config.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.WithError(err).Error("Azure upstream call failed")
		return nil, apierror.Internal(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.WithError(err).Error("Failed to read Azure response body")
		return nil, apierror.Internal(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, p.normalizeError(resp.StatusCode, raw)
	}

	var out types.UpstreamResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		p.logger.WithError(err).Error("Failed to decode Azure response body")
		return nil, apierror.Internal(err)
	}
	return &out, nil
}

// normalizeError converts a non-success upstream status into the error
// envelope: a decodable body surfaces its embedded message and code, an
// undecodable one passes the raw text through with the parse_error code.
func (p *Provider) normalizeError(status int, raw []byte) *apierror.Error {
	var ue upstreamError
	if err := json.Unmarshal(raw, &ue); err != nil {
		p.logger.WithField("status", status).Warn("Undecodable Azure error body")
		return apierror.ParseError(p.Name(), string(raw))
	}

	p.logger.WithFields(logrus.Fields{
		"status": status,
		"code":   ue.Error.Code,
	}).Warn("Azure upstream error")
	return apierror.Upstream(p.Name(), status, ue.Error.Code, ue.Error.Message)
}

var _ providers.ChatProvider = (*Provider)(nil)
