package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xaenox/dm-organizer/internal/ai"
	"github.com/xaenox/dm-organizer/internal/linkedin"
	"github.com/xaenox/dm-organizer/internal/organizer"
	"github.com/xaenox/dm-organizer/internal/sheets"
	"github.com/xaenox/dm-organizer/internal/summarizer"
	"github.com/xaenox/dm-organizer/internal/twitter"
	"github.com/xaenox/dm-organizer/pkg/config"
)

func main() {
	var (
		configPath     = flag.String("config", "config.yaml", "path to the configuration file")
		participantIDs = flag.String("participant-ids", "", "comma-separated counterpart user IDs to process instead of discovery")
		discoverRecent = flag.Int("discover-recent", 10, "how many recent conversations to discover when no IDs are given")
		maxMessages    = flag.Int("max-messages", 100, "most recent messages to fetch per conversation")
		sinceDays      = flag.Int("since-days", 0, "only include messages from the last N days (0 = no limit)")
		noSummaries    = flag.Bool("no-summaries", false, "skip model summaries and use deterministic ones")
		enrichLinkedIn = flag.Bool("enrich-linkedin", false, "enable model-backed LinkedIn discovery")
		enrichLimit    = flag.Int("enrich-limit", 10, "most counterparts to run model-backed LinkedIn discovery for")
		clearSheet     = flag.Bool("clear-sheet", false, "clear existing data rows before writing")
		dryRun         = flag.Bool("dry-run", false, "run the pipeline without writing to the sheet")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the DM client
	budget := twitter.NewRateBudget(cfg.Twitter.RequestsPerWindow)
	client := twitter.NewClient(
		cfg.Twitter.APIKey,
		cfg.Twitter.APISecret,
		cfg.Twitter.AccessToken,
		cfg.Twitter.AccessTokenSecret,
		time.Duration(cfg.Twitter.RequestTimeout)*time.Second,
		budget,
		logger,
	)
	fetcher := twitter.NewFetcher(client, logger)

	// Initialize the summarizer, deterministic-only when the model is off
	var summaryCompleter ai.TextCompleter
	switch {
	case *noSummaries:
		logger.Info("Model summaries disabled, using deterministic summaries")
	case cfg.OpenAI.APIKey == "":
		logger.Warn("OPENAI_API_KEY is not set, using deterministic summaries")
	default:
		summaryCompleter = ai.NewOpenAIClient(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			summarizer.SystemPrompt,
			logger,
		)
	}
	summ := summarizer.New(summaryCompleter, cfg.OpenAI.MaxWords, logger)

	// Initialize LinkedIn discovery, pattern-only unless enrichment is on
	var enrichCompleter ai.TextCompleter
	enrich := *enrichLinkedIn
	if enrich {
		if cfg.Gemini.APIKey == "" {
			logger.Warn("GOOGLE_AI_API_KEY is not set, LinkedIn discovery falls back to pattern matching")
			enrich = false
		} else {
			gemini, err := ai.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, true, logger)
			if err != nil {
				logger.Warn("Failed to create Gemini client, LinkedIn discovery falls back to pattern matching", zap.Error(err))
				enrich = false
			} else {
				enrichCompleter = gemini
			}
		}
	}
	resolver := linkedin.NewResolver(enrichCompleter, logger)

	// Initialize the sheet writer
	writer, err := sheets.NewWriter(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, logger)
	if err != nil {
		logger.Fatal("Failed to create sheets writer", zap.Error(err))
	}

	org := organizer.New(fetcher, summ, resolver, writer, logger)
	report, err := org.Run(ctx, organizer.Options{
		ParticipantIDs: splitIDs(*participantIDs),
		DiscoverRecent: *discoverRecent,
		MaxMessages:    *maxMessages,
		SinceDays:      *sinceDays,
		ClearSheet:     *clearSheet,
		DryRun:         *dryRun,
		EnrichLinkedIn: enrich,
		EnrichLimit:    *enrichLimit,
	})
	if err != nil {
		logger.Fatal("Run aborted", zap.Error(err), zap.String("run_id", report.RunID))
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func splitIDs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
