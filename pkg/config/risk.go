package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// SectionIDRisk is the identifier for the risk settings section
	SectionIDRisk = "risk"
)

// defaultRiskKeywords is the built-in sensitive vocabulary. An action whose
// typed text or resolved target contains any of these (case-insensitive
// substring) is held for approval.
var defaultRiskKeywords = []string{
	"delete",
	"remove account",
	"close account",
	"deactivate",
	"cancel subscription",
	"unsubscribe",
	"pay",
	"payment",
	"purchase",
	"buy now",
	"checkout",
	"place order",
	"confirm order",
	"transfer",
	"wire",
	"withdraw",
}

// RiskSection manages the risk gate configuration: whether the gate is
// enabled, the sensitive keyword set, and the allowed-domain scope.
type RiskSection struct {
	Enabled        bool
	Keywords       []string
	AllowedDomains []string // host glob patterns; empty means no restriction
	mu             sync.RWMutex
}

// NewRiskSection creates a new risk section with default settings.
func NewRiskSection() *RiskSection {
	keywords := make([]string, len(defaultRiskKeywords))
	copy(keywords, defaultRiskKeywords)
	return &RiskSection{
		Enabled:  true,
		Keywords: keywords,
	}
}

// ID returns the section identifier.
func (s *RiskSection) ID() string { return SectionIDRisk }

// Data returns the current configuration data.
func (s *RiskSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keywords := make([]interface{}, len(s.Keywords))
	for i, k := range s.Keywords {
		keywords[i] = k
	}
	domains := make([]interface{}, len(s.AllowedDomains))
	for i, d := range s.AllowedDomains {
		domains[i] = d
	}
	return map[string]interface{}{
		"enabled":         s.Enabled,
		"keywords":        keywords,
		"allowed_domains": domains,
	}
}

// SetData updates the configuration from the provided data.
func (s *RiskSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["enabled"].(bool); ok {
		s.Enabled = v
	}
	if v, ok := data["keywords"].([]interface{}); ok {
		s.Keywords = toStringSlice(v)
	}
	if v, ok := data["allowed_domains"].([]interface{}); ok {
		s.AllowedDomains = toStringSlice(v)
	}
	return nil
}

// Validate validates the current configuration.
func (s *RiskSection) Validate() error {
	return nil
}

// Snapshot returns a copy of the section for handoff to the risk gate.
func (s *RiskSection) Snapshot() RiskSection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keywords := make([]string, len(s.Keywords))
	copy(keywords, s.Keywords)
	domains := make([]string, len(s.AllowedDomains))
	copy(domains, s.AllowedDomains)
	return RiskSection{Enabled: s.Enabled, Keywords: keywords, AllowedDomains: domains}
}

// riskProfile is the YAML shape accepted by LoadRiskProfile.
type riskProfile struct {
	Enabled        *bool    `yaml:"enabled"`
	Keywords       []string `yaml:"keywords"`
	ExtraKeywords  []string `yaml:"extra_keywords"`
	AllowedDomains []string `yaml:"allowed_domains"`
}

// LoadRiskProfile overlays a YAML risk profile file onto the section.
// `keywords` replaces the keyword set; `extra_keywords` appends to it.
func (s *RiskSection) LoadRiskProfile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read risk profile: %w", err)
	}

	var profile riskProfile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return fmt.Errorf("failed to parse risk profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.Enabled != nil {
		s.Enabled = *profile.Enabled
	}
	if profile.Keywords != nil {
		s.Keywords = profile.Keywords
	}
	s.Keywords = append(s.Keywords, profile.ExtraKeywords...)
	if profile.AllowedDomains != nil {
		s.AllowedDomains = profile.AllowedDomains
	}
	return nil
}

func toStringSlice(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
