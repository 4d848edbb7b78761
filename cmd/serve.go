package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"narratrack/internal/adapter/storage"
	"narratrack/internal/config"
	"narratrack/internal/dedupe"
	"narratrack/internal/domain/narrative"
	"narratrack/internal/logger"
	"narratrack/internal/server"
	"narratrack/internal/service/analysis"
	"narratrack/internal/service/ingest"
	"narratrack/internal/service/tracking"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracker daemon: ingest pipeline, narrative detector and HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.New("serve")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS, logger.New("nats"))
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer natsConn.Close()

	docStore := storage.NewDocumentStore(db)
	narrativeStore := storage.NewNarrativeStore(db)

	analyzer := analysis.NewAnalyzer()
	seen := dedupe.NewCache(cfg.Ingest.DedupeCapacity, cfg.Ingest.DedupeTTL)

	pipeline := ingest.NewPipeline(
		analyzer,
		docStore,
		seen,
		natsConn,
		ingest.Config{
			PollInterval:         cfg.Ingest.PollInterval,
			MaxConcurrentSources: cfg.Ingest.MaxConcurrentSources,
			EventsTopic:          cfg.Ingest.EventsTopic,
		},
		logger.New("ingest"),
	)
	registerConnectors(pipeline, cfg.Sources)

	detector := tracking.NewDetector(
		docStore,
		narrativeStore,
		natsConn,
		tracking.Config{
			ScanInterval:         cfg.Narrative.ScanInterval,
			Window:               cfg.Narrative.Window,
			MinMentions:          cfg.Narrative.MinMentions,
			MinScore:             cfg.Narrative.MinScore,
			DetectionThreshold:   cfg.Narrative.DetectionThreshold,
			CorrelationThreshold: cfg.Narrative.CorrelationThreshold,
			EventsTopic:          cfg.Narrative.EventsTopic,
			Retention:            cfg.Narrative.Retention,
		},
		logger.New("tracking"),
	)

	detector.RegisterNarrativeHandler(func(n narrative.Narrative) error {
		log.Info("narrative detected",
			slog.String("topic", n.Topic),
			slog.Float64("score", n.Score),
			slog.Int("mentions", n.Mentions),
		)
		return nil
	})

	if err := pipeline.Start(ctx); err != nil {
		return fmt.Errorf("starting ingest pipeline: %w", err)
	}
	if err := detector.Start(ctx); err != nil {
		return fmt.Errorf("starting narrative detector: %w", err)
	}

	httpServer := server.NewServer(
		cfg.Server,
		detector,
		analyzer,
		docStore,
		pipeline,
		natsConn,
		cfg.Narrative.EventsTopic+".detected",
		logger.New("http"),
	)

	go func() {
		log.Info("starting HTTP server",
			slog.String("host", cfg.Server.Host),
			slog.Int("port", cfg.Server.Port),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", slog.Any("err", err))
			cancel()
		}
	}()

	select {
	case <-shutdown:
		log.Info("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", slog.Any("err", err))
	}
	if err := pipeline.Stop(shutdownCtx); err != nil {
		log.Warn("ingest pipeline shutdown error", slog.Any("err", err))
	}
	if err := detector.Stop(shutdownCtx); err != nil {
		log.Warn("narrative detector shutdown error", slog.Any("err", err))
	}

	log.Info("shutdown complete")
	return nil
}

func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

func initNATS(cfg config.NATSConfig, log *slog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", slog.Any("err", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}

	return nats.Connect(cfg.URL, options...)
}
