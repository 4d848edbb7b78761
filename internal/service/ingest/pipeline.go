package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"narratrack/internal/dedupe"
	"narratrack/internal/domain/document"
	"narratrack/internal/domain/narrative"
	"narratrack/internal/source"
)

// DocumentStore defines the storage the pipeline writes into.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc document.Document) error
	SaveSignal(ctx context.Context, sig document.Signal) error
}

// Config contains configuration for the ingest pipeline.
type Config struct {
	PollInterval         time.Duration
	MaxConcurrentSources int
	EventsTopic          string
}

// Pipeline polls all registered connectors, normalizes and analyzes
// what they return, stores the results and publishes ingest events.
type Pipeline struct {
	connectors     map[string]source.Connector
	analyzer       narrative.Analyzer
	store          DocumentStore
	seen           *dedupe.Cache
	eventBus       *nats.Conn
	config         Config
	log            *slog.Logger
	connectorsLock sync.RWMutex
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// NewPipeline creates an ingest pipeline. eventBus may be nil for
// one-shot runs without an event bus.
func NewPipeline(
	analyzer narrative.Analyzer,
	store DocumentStore,
	seen *dedupe.Cache,
	eventBus *nats.Conn,
	config Config,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		connectors: make(map[string]source.Connector),
		analyzer:   analyzer,
		store:      store,
		seen:       seen,
		eventBus:   eventBus,
		config:     config,
		log:        log,
	}
}

// AddConnector registers a source connector.
func (p *Pipeline) AddConnector(c source.Connector) {
	p.connectorsLock.Lock()
	defer p.connectorsLock.Unlock()
	p.connectors[c.Name()] = c
}

// Connectors returns the names of all registered connectors, sorted.
func (p *Pipeline) Connectors() []string {
	p.connectorsLock.RLock()
	defer p.connectorsLock.RUnlock()

	names := make([]string, 0, len(p.connectors))
	for name := range p.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins the periodic polling loop. The first poll runs
// immediately rather than waiting a full interval.
func (p *Pipeline) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if _, err := p.RunOnce(ctx); err != nil {
			p.log.Error("initial poll failed", slog.Any("err", err))
		}

		ticker := time.NewTicker(p.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := p.RunOnce(ctx); err != nil {
					p.log.Error("poll failed", slog.Any("err", err))
				}
			}
		}
	}()

	return nil
}

// RunOnce polls the named connectors (all when none are named) and
// returns how many new documents were ingested.
func (p *Pipeline) RunOnce(ctx context.Context, names ...string) (int, error) {
	p.connectorsLock.RLock()
	var connectors []source.Connector
	if len(names) == 0 {
		for _, c := range p.connectors {
			connectors = append(connectors, c)
		}
	} else {
		for _, name := range names {
			c, ok := p.connectors[name]
			if !ok {
				p.connectorsLock.RUnlock()
				return 0, fmt.Errorf("unknown source: %s", name)
			}
			connectors = append(connectors, c)
		}
	}
	p.connectorsLock.RUnlock()

	maxConcurrent := p.config.MaxConcurrentSources
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)

	var (
		mu       sync.Mutex
		ingested int
		wg       sync.WaitGroup
	)

	for _, c := range connectors {
		wg.Add(1)
		go func(c source.Connector) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			n, err := p.pollConnector(ctx, c)
			if err != nil {
				p.log.Warn("source poll failed", slog.String("source", c.Name()), slog.Any("err", err))
				return
			}

			mu.Lock()
			ingested += n
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	if ingested > 0 {
		p.log.Info("poll complete", slog.Int("ingested", ingested))
	}
	return ingested, ctx.Err()
}

func (p *Pipeline) pollConnector(ctx context.Context, c source.Connector) (int, error) {
	docs, err := c.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", c.Name(), err)
	}

	ingested := 0
	for _, doc := range docs {
		if ctx.Err() != nil {
			return ingested, ctx.Err()
		}
		if doc.ID == "" {
			p.log.Debug("skipping document without ID", slog.String("source", c.Name()), slog.String("url", doc.URL))
			continue
		}
		if p.seen.Seen(doc.ID) {
			continue
		}

		if err := p.processDocument(ctx, doc); err != nil {
			p.log.Warn("document ingest failed",
				slog.String("source", doc.Source),
				slog.String("id", doc.ID),
				slog.Any("err", err),
			)
			continue
		}

		p.seen.Mark(doc.ID)
		ingested++
	}
	return ingested, nil
}

func (p *Pipeline) processDocument(ctx context.Context, doc document.Document) error {
	sig, err := p.analyzer.Analyze(ctx, doc)
	if err != nil {
		return fmt.Errorf("analyzing document: %w", err)
	}

	if err := p.store.SaveDocument(ctx, doc); err != nil {
		return err
	}
	if err := p.store.SaveSignal(ctx, sig); err != nil {
		return err
	}

	if err := p.publishIngestEvent(doc, sig); err != nil {
		p.log.Warn("publish ingest event failed", slog.Any("err", err))
	}
	return nil
}

func (p *Pipeline) publishIngestEvent(doc document.Document, sig document.Signal) error {
	if p.eventBus == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"id":        doc.ID,
		"source":    doc.Source,
		"title":     doc.Title,
		"url":       doc.URL,
		"sentiment": sig.Sentiment,
	})
	if err != nil {
		return fmt.Errorf("marshaling ingest event: %w", err)
	}

	topic := fmt.Sprintf("%s.ingested", p.config.EventsTopic)
	return p.eventBus.Publish(topic, payload)
}

// Stop gracefully stops the polling loop.
func (p *Pipeline) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
