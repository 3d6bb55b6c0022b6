package registry

import "strings"

// Provider tags for the upstreams this gateway can dispatch to.
const (
	ProviderAzure  = "azure"
	ProviderGitHub = "github"
)

// Descriptor records a model's declared capabilities and owning provider.
// The catalog is compiled in and read-only after process start.
type Descriptor struct {
	Name              string
	Provider          string
	ContextWindow     int
	MaxOutputTokens   int
	SupportsFunctions bool
	SupportsVision    bool
}

// catalog keys are lower-cased; Lookup normalizes before matching.
var catalog = map[string]Descriptor{
	"gpt-4": {
		Name:              "gpt-4",
		Provider:          ProviderAzure,
		ContextWindow:     8192,
		MaxOutputTokens:   4096,
		SupportsFunctions: true,
	},
	"gpt-35-turbo": {
		Name:              "gpt-35-turbo",
		Provider:          ProviderAzure,
		ContextWindow:     16385,
		MaxOutputTokens:   4096,
		SupportsFunctions: true,
	},
	"gpt-4o": {
		Name:              "gpt-4o",
		Provider:          ProviderAzure,
		ContextWindow:     128000,
		MaxOutputTokens:   4096,
		SupportsFunctions: true,
		SupportsVision:    true,
	},
	"gpt-4o-mini": {
		Name:              "gpt-4o-mini",
		Provider:          ProviderGitHub,
		ContextWindow:     128000,
		MaxOutputTokens:   16384,
		SupportsFunctions: true,
		SupportsVision:    true,
	},
}

// Lookup returns the descriptor for name, matching case-insensitively.
// Unknown names resolve to a conservative default descriptor; rejecting
// unsupported models is the validator's job, keyed off the mapping.
func Lookup(name string) Descriptor {
	if d, ok := catalog[strings.ToLower(name)]; ok {
		return d
	}
	return Descriptor{
		Name:            name,
		Provider:        ProviderAzure,
		ContextWindow:   8192,
		MaxOutputTokens: 4096,
	}
}
