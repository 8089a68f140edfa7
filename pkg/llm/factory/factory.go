package factory

import (
	"fmt"

	"ai-qa-rag-be/pkg/llm"
	"ai-qa-rag-be/pkg/llm/ollama"
	"ai-qa-rag-be/pkg/llm/openai"
)

// NewLLMProvider builds the generation backend named by providerType ("ollama" or "openai").
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai", "huggingface":
		if apiKey == "" && baseURL == "" {
			return nil, fmt.Errorf("%s provider requires an api key", providerType)
		}
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
