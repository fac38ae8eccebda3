package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/course-compass/internal/config"
	"github.com/jonathan/course-compass/internal/server"
)

var (
	serveConfigPath string
	servePort       int
	serveAPIKey     string
	serveModel      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running course analyses, streaming progress and querying the upstream sources.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Gemini model override for synthesis")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	flagCfg := config.Config{
		Port:   servePort,
		APIKey: serveAPIKey,
		Model:  serveModel,
	}
	cfg, err := loadMergedConfig(serveConfigPath, flagCfg)
	if err != nil {
		return err
	}

	apiKey, err := resolveAPIKey(cfg.APIKey)
	if err != nil {
		return err
	}

	deps, err := buildCollaborators(ctx, cfg, apiKey)
	if err != nil {
		return err
	}
	defer deps.llm.Close()

	srv, err := server.New(server.Config{
		Port:    cfg.Port,
		Runner:  deps.runner,
		Threads: deps.threads,
		Reviews: deps.reviews,
	})
	if err != nil {
		return err
	}

	return srv.Start()
}
