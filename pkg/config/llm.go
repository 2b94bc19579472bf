package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"
)

// Provider kinds selectable in the llm section.
const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

// LLMSection manages provider configuration. One of the three provider
// kinds is selected at session start; the remaining fields feed whichever
// adapter is built from them.
type LLMSection struct {
	Provider        string  // openai, gemini, or bedrock
	Model           string
	BaseURL         string  // openai-compatible endpoints only
	APIKey          string  // bearer token (openai) or API key header (gemini)
	Region          string  // bedrock signing region
	AccessKeyID     string  // bedrock credentials
	SecretAccessKey string
	SessionToken    string
	Temperature     float64
	MaxOutputTokens int
	mu              sync.RWMutex
}

// NewLLMSection creates a new LLM section with default settings.
func NewLLMSection() *LLMSection {
	return &LLMSection{
		Provider:        ProviderOpenAI,
		Temperature:     0.2,
		MaxOutputTokens: 1024,
	}
}

// ID returns the section identifier.
func (s *LLMSection) ID() string { return SectionIDLLM }

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"provider":          s.Provider,
		"model":             s.Model,
		"base_url":          s.BaseURL,
		"api_key":           s.APIKey,
		"region":            s.Region,
		"access_key_id":     s.AccessKeyID,
		"secret_access_key": s.SecretAccessKey,
		"session_token":     s.SessionToken,
		"temperature":       s.Temperature,
		"max_output_tokens": s.MaxOutputTokens,
	}
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["provider"].(string); ok && v != "" {
		s.Provider = v
	}
	if v, ok := data["model"].(string); ok {
		s.Model = v
	}
	if v, ok := data["base_url"].(string); ok {
		s.BaseURL = v
	}
	if v, ok := data["api_key"].(string); ok {
		s.APIKey = v
	}
	if v, ok := data["region"].(string); ok {
		s.Region = v
	}
	if v, ok := data["access_key_id"].(string); ok {
		s.AccessKeyID = v
	}
	if v, ok := data["secret_access_key"].(string); ok {
		s.SecretAccessKey = v
	}
	if v, ok := data["session_token"].(string); ok {
		s.SessionToken = v
	}
	if v, ok := data["temperature"].(float64); ok {
		s.Temperature = v
	}
	if v, ok := data["max_output_tokens"].(float64); ok {
		// JSON numbers decode as float64.
		s.MaxOutputTokens = int(v)
	}
	return nil
}

// Validate validates the current configuration.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderBedrock:
		return nil
	}
	return fmt.Errorf("unknown provider kind %q", s.Provider)
}

// Snapshot returns a copy of the section for handoff to a provider factory.
func (s *LLMSection) Snapshot() LLMSection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return LLMSection{
		Provider:        s.Provider,
		Model:           s.Model,
		BaseURL:         s.BaseURL,
		APIKey:          s.APIKey,
		Region:          s.Region,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		SessionToken:    s.SessionToken,
		Temperature:     s.Temperature,
		MaxOutputTokens: s.MaxOutputTokens,
	}
}
