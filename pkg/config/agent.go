package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDAgent is the identifier for the agent settings section
	SectionIDAgent = "agent"
)

// Default loop limits. These bound the session regardless of model behavior.
const (
	DefaultMaxSteps          = 40
	DefaultMaxStagnation     = 3
	DefaultMaxScrollStall    = 2
	DefaultSettleDelayMS     = 800
	DefaultApprovalTimeoutMS = 120_000
)

// AgentSection manages decision-loop settings.
type AgentSection struct {
	MaxSteps          int
	MaxStagnation     int
	MaxScrollStall    int
	SettleDelayMS     int
	ApprovalTimeoutMS int
	ResponseLanguage  string
	ChatLimit         int
	mu                sync.RWMutex
}

// NewAgentSection creates a new agent section with default settings.
func NewAgentSection() *AgentSection {
	return &AgentSection{
		MaxSteps:          DefaultMaxSteps,
		MaxStagnation:     DefaultMaxStagnation,
		MaxScrollStall:    DefaultMaxScrollStall,
		SettleDelayMS:     DefaultSettleDelayMS,
		ApprovalTimeoutMS: DefaultApprovalTimeoutMS,
		ResponseLanguage:  "en",
		ChatLimit:         200,
	}
}

// ID returns the section identifier.
func (s *AgentSection) ID() string { return SectionIDAgent }

// Data returns the current configuration data.
func (s *AgentSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"max_steps":           s.MaxSteps,
		"max_stagnation":      s.MaxStagnation,
		"max_scroll_stall":    s.MaxScrollStall,
		"settle_delay_ms":     s.SettleDelayMS,
		"approval_timeout_ms": s.ApprovalTimeoutMS,
		"response_language":   s.ResponseLanguage,
		"chat_limit":          s.ChatLimit,
	}
}

// SetData updates the configuration from the provided data.
func (s *AgentSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	setInt := func(key string, dst *int) {
		if v, ok := data[key].(float64); ok {
			*dst = int(v)
		}
	}
	setInt("max_steps", &s.MaxSteps)
	setInt("max_stagnation", &s.MaxStagnation)
	setInt("max_scroll_stall", &s.MaxScrollStall)
	setInt("settle_delay_ms", &s.SettleDelayMS)
	setInt("approval_timeout_ms", &s.ApprovalTimeoutMS)
	setInt("chat_limit", &s.ChatLimit)

	if v, ok := data["response_language"].(string); ok && v != "" {
		s.ResponseLanguage = v
	}
	return nil
}

// Validate validates the current configuration.
func (s *AgentSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", s.MaxSteps)
	}
	if s.MaxStagnation <= 0 {
		return fmt.Errorf("max_stagnation must be positive, got %d", s.MaxStagnation)
	}
	if s.MaxScrollStall <= 0 {
		return fmt.Errorf("max_scroll_stall must be positive, got %d", s.MaxScrollStall)
	}
	return nil
}

// Snapshot returns a copy of the section for handoff to the controller.
func (s *AgentSection) Snapshot() AgentSection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AgentSection{
		MaxSteps:          s.MaxSteps,
		MaxStagnation:     s.MaxStagnation,
		MaxScrollStall:    s.MaxScrollStall,
		SettleDelayMS:     s.SettleDelayMS,
		ApprovalTimeoutMS: s.ApprovalTimeoutMS,
		ResponseLanguage:  s.ResponseLanguage,
		ChatLimit:         s.ChatLimit,
	}
}
