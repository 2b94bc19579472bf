package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates and initializes the global configuration manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager := NewManager(store)

	if err := manager.RegisterSection(NewLLMSection()); err != nil {
		return err
	}
	if err := manager.RegisterSection(NewAgentSection()); err != nil {
		return err
	}
	if err := manager.RegisterSection(NewRiskSection()); err != nil {
		return err
	}

	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetLLM returns the LLM settings section from global config.
// Returns nil if config is not initialized.
func GetLLM() *LLMSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDLLM)
	if !ok {
		return nil
	}
	llm, ok := section.(*LLMSection)
	if !ok {
		return nil
	}
	return llm
}

// GetAgent returns the agent settings section from global config.
// Returns nil if config is not initialized.
func GetAgent() *AgentSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDAgent)
	if !ok {
		return nil
	}
	agent, ok := section.(*AgentSection)
	if !ok {
		return nil
	}
	return agent
}

// GetRisk returns the risk settings section from global config.
// Returns nil if config is not initialized.
func GetRisk() *RiskSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDRisk)
	if !ok {
		return nil
	}
	risk, ok := section.(*RiskSection)
	if !ok {
		return nil
	}
	return risk
}
