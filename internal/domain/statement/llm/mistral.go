package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/mistral"

	"github.com/comptaflow/comptaflow/pkg/config"
)

// NewMistralModel builds the Mistral completion backend from configuration.
// Mistral serves from EU datacenters, which matters for statements carrying
// personal banking data.
func NewMistralModel(cfg config.LLMConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mistral API key is not set")
	}
	return mistral.New(
		mistral.WithModel(cfg.Model),
		mistral.WithAPIKey(cfg.APIKey),
	)
}
