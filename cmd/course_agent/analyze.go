package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/course-compass/internal/config"
	"github.com/jonathan/course-compass/internal/observability"
	"github.com/jonathan/course-compass/internal/pipeline"
	"github.com/jonathan/course-compass/internal/ratings"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <course>",
	Short: "Analyze crowd knowledge for a course",
	Long: `Fetches discussion threads and review database entries for a course, runs
the two-phase synthesis and prints the structured report.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeConfigPath    string
	analyzeCommunity     string
	analyzeDiscussionURL string
	analyzeReviewURL     string
	analyzeRatingsURL    string
	analyzeInstitution   string
	analyzeMaxThreads    int
	analyzeMaxReplies    int
	analyzeNoRatings     bool
	analyzeAPIKey        string
	analyzeModel         string
	analyzeJSON          bool
	analyzeVerbose       bool
)

func init() {
	// Config file flag (processed first)
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	analyzeCmd.Flags().StringVar(&analyzeCommunity, "community", "", "Community to search for discussion threads")
	analyzeCmd.Flags().StringVar(&analyzeDiscussionURL, "discussion-url", "", "Discussion platform base URL")
	analyzeCmd.Flags().StringVar(&analyzeReviewURL, "review-url", "", "Review spreadsheet CSV export URL")
	analyzeCmd.Flags().StringVar(&analyzeRatingsURL, "ratings-url", "", "Rating service GraphQL endpoint")
	analyzeCmd.Flags().StringVar(&analyzeInstitution, "institution", "", "Institution searched for instructor ratings")
	analyzeCmd.Flags().IntVar(&analyzeMaxThreads, "max-threads", 0, "Maximum threads fetched per analysis")
	analyzeCmd.Flags().IntVar(&analyzeMaxReplies, "max-replies", 0, "Maximum replies fetched per thread")
	analyzeCmd.Flags().BoolVar(&analyzeNoRatings, "no-ratings", false, "Skip the targeted instructor rating lookup")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Gemini model override for synthesis")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the full result as JSON")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	flagCfg := config.Config{
		Community:       analyzeCommunity,
		DiscussionURL:   analyzeDiscussionURL,
		ReviewExportURL: analyzeReviewURL,
		RatingsURL:      analyzeRatingsURL,
		Institution:     analyzeInstitution,
		MaxThreads:      analyzeMaxThreads,
		MaxReplies:      analyzeMaxReplies,
		Model:           analyzeModel,
		APIKey:          analyzeAPIKey,
		Verbose:         analyzeVerbose,
	}
	cfg, err := loadMergedConfig(analyzeConfigPath, flagCfg)
	if err != nil {
		return err
	}
	if cfg.Institution == "" {
		cfg.Institution = ratings.DefaultInstitution
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

	result, err := deps.runner.Run(ctx, pipeline.Options{
		Topic:               args[0],
		MaxThreads:          cfg.MaxThreads,
		MaxRepliesPerThread: cfg.MaxReplies,
		TargetedLookup:      !analyzeNoRatings,
		InstitutionName:     cfg.Institution,
		Verbose:             analyzeVerbose,
	})
	if result == nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRunSummary(result)
	if result.Outcome == pipeline.OutcomeSuccess {
		printer.PrintReport(result.Report)
		printer.PrintResolvedNames(result.ResolvedNames)
	}
	if result.Outcome == pipeline.OutcomeNoData {
		fmt.Printf("No discussion threads or reviews found for %s\n", result.Topic)
	}

	return err
}
