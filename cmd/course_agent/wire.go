package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/course-compass/internal/config"
	"github.com/jonathan/course-compass/internal/discussion"
	"github.com/jonathan/course-compass/internal/llm"
	"github.com/jonathan/course-compass/internal/pipeline"
	"github.com/jonathan/course-compass/internal/progress"
	"github.com/jonathan/course-compass/internal/ratings"
	"github.com/jonathan/course-compass/internal/reviewdb"
	"github.com/jonathan/course-compass/internal/synthesis"
)

// collaborators bundles everything a runner-backed command needs.
type collaborators struct {
	runner  *pipeline.Runner
	threads *discussion.Client
	reviews *reviewdb.Client
	llm     llm.Client
}

// resolveAPIKey prefers the explicit value, then the environment.
func resolveAPIKey(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("Gemini API key required: pass --api-key or set GEMINI_API_KEY")
}

// buildCollaborators wires connectors, oracle and runner from the merged
// configuration.
func buildCollaborators(ctx context.Context, cfg config.Config, apiKey string) (*collaborators, error) {
	llmConfig := llm.DefaultConfig()
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierAdvanced, cfg.Model)
	}
	client, err := llm.NewClient(ctx, llmConfig, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	threads := discussion.NewClient(discussion.Options{
		BaseURL:   cfg.DiscussionURL,
		Community: cfg.Community,
	})
	reviews := reviewdb.NewClient(reviewdb.Options{
		ExportURL: cfg.ReviewExportURL,
	})
	raters := ratings.NewClient(ratings.Options{
		Endpoint: cfg.RatingsURL,
	})

	runner := &pipeline.Runner{
		Threads:   threads,
		Reviews:   reviews,
		Ratings:   raters,
		Oracle:    synthesis.NewGeminiOracle(client, llm.TierAdvanced),
		Progress:  progress.NewRegistry(),
		ModelName: llmConfig.GetModel(llm.TierAdvanced),
	}

	return &collaborators{
		runner:  runner,
		threads: threads,
		reviews: reviews,
		llm:     client,
	}, nil
}

// loadMergedConfig loads the optional config file and merges CLI flag
// values over it.
func loadMergedConfig(path string, flags config.Config) (config.Config, error) {
	cfg := flags
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		// Flags win over the config file.
		cfg = flags.MergeWithDefaults(*loaded)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
