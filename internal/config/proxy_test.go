package config

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/modelgateway/azure-openai-proxy/internal/registry"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mapGetenv(env map[string]string) Getenv {
	return func(key string) string {
		return env[key]
	}
}

func TestResolveProxy_EndpointPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantBaseURL string
	}{
		{
			name:        "Explicit endpoint wins",
			env:         map[string]string{EnvAzureEndpoint: "https://example.openai.azure.com"},
			wantBaseURL: "https://example.openai.azure.com",
		},
		{
			name:        "Trailing slash stripped from explicit endpoint",
			env:         map[string]string{EnvAzureEndpoint: "https://example.openai.azure.com/"},
			wantBaseURL: "https://example.openai.azure.com",
		},
		{
			name: "Explicit endpoint beats resource pair",
			env: map[string]string{
				EnvAzureEndpoint:   "https://example.openai.azure.com",
				EnvAzureResource:   "myres",
				EnvAzureDeployment: "mydep",
			},
			wantBaseURL: "https://example.openai.azure.com",
		},
		{
			name: "Resource and deployment synthesize the URL",
			env: map[string]string{
				EnvAzureResource:   "myres",
				EnvAzureDeployment: "mydep",
			},
			wantBaseURL: "https://myres.openai.azure.com/openai/deployments/mydep",
		},
		{
			name:        "Resource without deployment falls to default",
			env:         map[string]string{EnvAzureResource: "myres"},
			wantBaseURL: DefaultInferenceEndpoint,
		},
		{
			name:        "Nothing set falls to default",
			env:         map[string]string{},
			wantBaseURL: DefaultInferenceEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ResolveProxy(mapGetenv(tt.env), testLogger())
			if cfg.Azure.BaseURL != tt.wantBaseURL {
				t.Errorf("Azure.BaseURL = %q, want %q", cfg.Azure.BaseURL, tt.wantBaseURL)
			}
		})
	}
}

func TestResolveProxy_APIVersion(t *testing.T) {
	cfg := ResolveProxy(mapGetenv(map[string]string{}), testLogger())
	if cfg.Azure.APIVersion != DefaultAPIVersion {
		t.Errorf("Expected default api version %s, got %s", DefaultAPIVersion, cfg.Azure.APIVersion)
	}

	cfg = ResolveProxy(mapGetenv(map[string]string{EnvAzureAPIVersion: "2024-06-01"}), testLogger())
	if cfg.Azure.APIVersion != "2024-06-01" {
		t.Errorf("Expected override api version, got %s", cfg.Azure.APIVersion)
	}
}

func TestResolveProxy_GitHubProvider(t *testing.T) {
	cfg := ResolveProxy(mapGetenv(map[string]string{}), testLogger())
	if cfg.GitHub != nil {
		t.Error("GitHub provider must be nil without a token")
	}
	if cfg.DefaultProvider != registry.ProviderAzure {
		t.Errorf("Expected default provider azure, got %s", cfg.DefaultProvider)
	}

	cfg = ResolveProxy(mapGetenv(map[string]string{EnvGitHubToken: "ghp_test"}), testLogger())
	if cfg.GitHub == nil {
		t.Fatal("GitHub provider must be configured when the token is set")
	}
	if cfg.GitHub.Credential != "ghp_test" {
		t.Errorf("Expected token carried into the provider config, got %q", cfg.GitHub.Credential)
	}
	if cfg.GitHub.BaseURL != DefaultInferenceEndpoint {
		t.Errorf("Expected the shared inference endpoint, got %s", cfg.GitHub.BaseURL)
	}
	if cfg.DefaultProvider != registry.ProviderGitHub {
		t.Errorf("Expected default provider github, got %s", cfg.DefaultProvider)
	}
}

func TestParseModelMapping(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
	}{
		{"Empty value yields empty mapping", "", 0},
		{"Valid mapping", `{"gpt-4":"my-gpt4","gpt-4o":"my-gpt4o"}`, 2},
		{"Malformed JSON degrades to empty", `{"gpt-4":`, 0},
		{"Non-string value degrades to empty", `{"gpt-4":42}`, 0},
		{"Non-object degrades to empty", `["gpt-4"]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ParseModelMapping(tt.raw, testLogger())
			if m.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.wantLen)
			}
		})
	}
}

func TestModelMapping_CaseInsensitiveLookup(t *testing.T) {
	m := ParseModelMapping(`{"GPT-4":"My-Deployment"}`, testLogger())

	for _, name := range []string{"gpt-4", "GPT-4", "Gpt-4"} {
		deployment, ok := m.Deployment(name)
		if !ok {
			t.Fatalf("Deployment(%q) not found", name)
		}
		if deployment != "My-Deployment" {
			t.Errorf("Deployment(%q) = %q, want the operator's casing preserved", name, deployment)
		}
	}

	if _, ok := m.Deployment("gpt-5"); ok {
		t.Error("Unmapped model must not resolve")
	}
}

func TestModelMapping_NamesSorted(t *testing.T) {
	m := ParseModelMapping(`{"gpt-4o":"d1","gpt-35-turbo":"d2","gpt-4":"d3"}`, testLogger())

	names := m.Names()
	want := []string{"gpt-35-turbo", "gpt-4", "gpt-4o"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}
