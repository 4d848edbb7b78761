package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"narratrack/internal/adapter/storage"
	"narratrack/internal/config"
	"narratrack/internal/dedupe"
	"narratrack/internal/logger"
	"narratrack/internal/service/analysis"
	"narratrack/internal/service/ingest"
	"narratrack/internal/source"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [source]",
	Short: "Run a one-shot fetch, analyze and store pass over a source",
	Long: "Fetches the named source (rss, reddit, twitter; \"news\" is an alias\n" +
		"for rss) once, analyzes and stores the results, then exits. With no\n" +
		"argument, or with \"all\", every configured source is polled.",
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

// sourceAliases maps user-facing source names onto connector names.
var sourceAliases = map[string]string{
	"news": "rss",
}

func runScrape(cmd *cobra.Command, args []string) error {
	log := logger.New("scrape")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		cancel()
	}()

	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	docStore := storage.NewDocumentStore(db)
	seen := dedupe.NewCache(cfg.Ingest.DedupeCapacity, cfg.Ingest.DedupeTTL)

	// No event bus for one-shot runs.
	pipeline := ingest.NewPipeline(
		analysis.NewAnalyzer(),
		docStore,
		seen,
		nil,
		ingest.Config{
			PollInterval:         cfg.Ingest.PollInterval,
			MaxConcurrentSources: cfg.Ingest.MaxConcurrentSources,
			EventsTopic:          cfg.Ingest.EventsTopic,
		},
		logger.New("ingest"),
	)
	registerConnectors(pipeline, cfg.Sources)

	var names []string
	if len(args) == 1 && args[0] != "all" {
		name := args[0]
		if alias, ok := sourceAliases[name]; ok {
			name = alias
		}
		names = append(names, name)
	}

	ingested, err := pipeline.RunOnce(ctx, names...)
	if err != nil {
		return err
	}

	log.Info("scrape complete")
	fmt.Printf("ingested %d new document(s)\n", ingested)
	return nil
}

// registerConnectors wires up every connector the configuration enables.
// Twitter needs a bearer token and at least one query to be useful.
func registerConnectors(pipeline *ingest.Pipeline, cfg config.SourcesConfig) {
	if len(cfg.Feeds) > 0 {
		pipeline.AddConnector(source.NewRSS(cfg, logger.New("source.rss")))
	}
	if len(cfg.Subreddits) > 0 {
		pipeline.AddConnector(source.NewReddit(cfg, logger.New("source.reddit")))
	}
	if cfg.TwitterBearerToken != "" && len(cfg.TwitterQueries) > 0 {
		pipeline.AddConnector(source.NewTwitter(cfg, logger.New("source.twitter")))
	}
}
