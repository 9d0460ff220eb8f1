package cmd

import (
	"context"
	"fmt"

	"swachhconnect/categorizer"
	"swachhconnect/config"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// newCategorizer builds the categorization service for the configured
// provider. The returned close func releases the backend client.
func newCategorizer(ctx context.Context, cfg *config.Config) (*categorizer.Service, func(), error) {
	var (
		backend categorizer.Backend
		closeFn = func() {}
	)

	switch cfg.CategorizerProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Warn("GEMINI_API_KEY not set, every report will be categorized as \"other\"")
			break
		}
		gemini, err := categorizer.NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		backend = gemini
		closeFn = func() {
			if err := gemini.Close(); err != nil {
				log.WithError(err).Warn("Error closing Gemini client")
			}
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Warn("OPENAI_API_KEY not set, every report will be categorized as \"other\"")
			break
		}
		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL
		}
		backend = categorizer.NewOpenAIBackend(openai.NewClientWithConfig(clientCfg), cfg.OpenAIModel)
	case "none":
	default:
		return nil, nil, fmt.Errorf("unknown categorizer provider %q", cfg.CategorizerProvider)
	}

	svc := categorizer.New(backend, categorizer.WithTimeout(cfg.CategorizeTimeout))
	if backend != nil {
		log.Infof("Categorizer initialized with %s", backend.Name())
	}
	return svc, closeFn, nil
}
