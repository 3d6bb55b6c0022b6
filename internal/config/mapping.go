package config

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// ModelMapping translates externally advertised model names into provider
// deployment identifiers. Keys are normalized to lower case on ingestion so
// admissibility is case-insensitive at a single point; values keep the
// operator's casing. If the operator supplies two different-case variants of
// the same name, the later one wins.
type ModelMapping struct {
	deployments map[string]string
}

// ParseModelMapping builds a mapping from the operator-supplied JSON object.
// An empty value yields an empty mapping. Malformed JSON, or any non-string
// value, is logged and degrades to an empty mapping rather than failing the
// request.
func ParseModelMapping(raw string, logger *logrus.Logger) *ModelMapping {
	m := &ModelMapping{deployments: make(map[string]string)}
	if raw == "" {
		return m
	}

	var entries map[string]string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logger.WithError(err).Warn("Invalid model mapping JSON, falling back to empty mapping")
		return m
	}

	for name, deployment := range entries {
		m.deployments[strings.ToLower(name)] = deployment
	}
	return m
}

// Deployment resolves a model name to its deployment identifier.
func (m *ModelMapping) Deployment(model string) (string, bool) {
	deployment, ok := m.deployments[strings.ToLower(model)]
	return deployment, ok
}

// Names returns the normalized model names in the mapping, sorted for stable
// model listings.
func (m *ModelMapping) Names() []string {
	names := make([]string, 0, len(m.deployments))
	for name := range m.deployments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *ModelMapping) Len() int {
	return len(m.deployments)
}
