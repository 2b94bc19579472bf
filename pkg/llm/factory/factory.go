// Package factory builds the configured LLM provider from the llm config
// section.
package factory

import (
	"fmt"

	"github.com/webpilot-ai/webpilot/pkg/config"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/llm/bedrock"
	"github.com/webpilot-ai/webpilot/pkg/llm/bedrock/sigv4"
	"github.com/webpilot-ai/webpilot/pkg/llm/gemini"
	"github.com/webpilot-ai/webpilot/pkg/llm/openai"
)

// New constructs a provider from a config snapshot. The snapshot should come
// from LLMSection.Snapshot so the build is not racing config reloads.
func New(cfg config.LLMSection) (llm.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.ProviderOption{openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.NewProvider(cfg.APIKey, opts...)

	case config.ProviderGemini:
		return gemini.NewProvider(cfg.APIKey, gemini.WithModel(cfg.Model))

	case config.ProviderBedrock:
		creds := sigv4.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    cfg.SessionToken,
		}
		return bedrock.NewProvider(creds, cfg.Region, bedrock.WithModel(cfg.Model))
	}
	return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider)
}
