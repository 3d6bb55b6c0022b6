package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/modelgateway/azure-openai-proxy/internal/registry"
)

// Fixed defaults for the upstream providers.
const (
	DefaultInferenceEndpoint = "https://models.inference.ai.azure.com"
	DefaultAPIVersion        = "2024-02-15-preview"
	DefaultModel             = "gpt-4o"
	GitHubDefaultModel       = "gpt-4o-mini"
)

// Environment variables consumed by the proxy resolver.
const (
	EnvAzureAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvAzureEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvAzureResource   = "AZURE_RESOURCE_NAME"
	EnvAzureDeployment = "AZURE_DEPLOYMENT_NAME"
	EnvAzureAPIVersion = "AZURE_API_VERSION"
	EnvGitHubToken     = "GITHUB_TOKEN"
	EnvModelMapper     = "AZURE_OPENAI_MODEL_MAPPER"
)

// Getenv is the environment lookup ResolveProxy is a pure function of.
type Getenv func(string) string

// ProviderConfig describes one reachable upstream. Built once per request
// context and never mutated afterward.
type ProviderConfig struct {
	BaseURL      string
	Credential   string
	Resource     string
	Deployment   string
	APIVersion   string
	DefaultModel string
}

// ProxyConfig aggregates every reachable provider for one request.
type ProxyConfig struct {
	Azure           ProviderConfig
	GitHub          *ProviderConfig // nil when GITHUB_TOKEN is unset
	DefaultProvider string
	DefaultModel    string
	Mapping         *ModelMapping
}

// ResolveProxy builds the per-request proxy configuration from the
// environment. It never fails; malformed optional input degrades to defaults.
//
// The primary base URL prefers an explicit endpoint, then a synthesized
// resource/deployment address, then the fixed default inference endpoint.
func ResolveProxy(getenv Getenv, logger *logrus.Logger) *ProxyConfig {
	azure := ProviderConfig{
		Credential:   getenv(EnvAzureAPIKey),
		APIVersion:   DefaultAPIVersion,
		DefaultModel: DefaultModel,
	}
	if v := getenv(EnvAzureAPIVersion); v != "" {
		azure.APIVersion = v
	}

	endpoint := getenv(EnvAzureEndpoint)
	resource := getenv(EnvAzureResource)
	deployment := getenv(EnvAzureDeployment)
	switch {
	case endpoint != "":
		azure.BaseURL = strings.TrimSuffix(endpoint, "/")
	case resource != "" && deployment != "":
		azure.Resource = resource
		azure.Deployment = deployment
		azure.BaseURL = fmt.Sprintf("https://%s.openai.azure.com/openai/deployments/%s", resource, deployment)
	default:
		azure.BaseURL = DefaultInferenceEndpoint
	}

	cfg := &ProxyConfig{
		Azure:           azure,
		DefaultProvider: registry.ProviderAzure,
		DefaultModel:    DefaultModel,
		Mapping:         ParseModelMapping(getenv(EnvModelMapper), logger),
	}

	if token := getenv(EnvGitHubToken); token != "" {
		cfg.GitHub = &ProviderConfig{
			BaseURL:      DefaultInferenceEndpoint,
			Credential:   token,
			DefaultModel: GitHubDefaultModel,
		}
		cfg.DefaultProvider = registry.ProviderGitHub
	}

	return cfg
}
