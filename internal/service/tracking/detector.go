package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"narratrack/internal/adapter/storage"
	"narratrack/internal/domain/narrative"
)

// SignalStore provides the aggregated signal data the detector scans.
type SignalStore interface {
	EntityActivity(ctx context.Context, now time.Time, window time.Duration, minMentions int) ([]narrative.EntityActivity, error)
	TopKeywords(ctx context.Context, documentIDs []string, limit int) ([]string, error)
	DocumentRefs(ctx context.Context, documentIDs []string, limit int) ([]narrative.Source, error)
}

// NarrativeStore defines storage for detected narratives.
type NarrativeStore interface {
	SaveNarrative(ctx context.Context, n narrative.Narrative) error
	GetNarrative(ctx context.Context, id string) (*narrative.Narrative, error)
	FindNarrativeByTopic(ctx context.Context, topic string) (*narrative.Narrative, error)
	FindNarratives(ctx context.Context, filter narrative.Filter) ([]narrative.Narrative, error)
	PruneNarratives(ctx context.Context, olderThan time.Time) (int64, error)
}

// Config contains configuration for the narrative detector.
type Config struct {
	ScanInterval         time.Duration
	Window               time.Duration
	MinMentions          int
	MinScore             float64
	DetectionThreshold   float64
	CorrelationThreshold float64
	EventsTopic          string
	Retention            time.Duration
}

// Detector aggregates entity signals over time windows into scored
// narratives. It implements narrative.Detector.
type Detector struct {
	signals    SignalStore
	narratives NarrativeStore
	eventBus   *nats.Conn
	config     Config
	log        *slog.Logger
	handlers   []func(narrative.Narrative) error
	mu         sync.RWMutex
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	// now is replaceable in tests.
	now func() time.Time
}

// NewDetector creates a narrative detector.
func NewDetector(
	signals SignalStore,
	narratives NarrativeStore,
	eventBus *nats.Conn,
	config Config,
	log *slog.Logger,
) *Detector {
	return &Detector{
		signals:    signals,
		narratives: narratives,
		eventBus:   eventBus,
		config:     config,
		log:        log,
		now:        time.Now,
	}
}

// Start begins the periodic narrative scan.
func (d *Detector) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ticker := time.NewTicker(d.config.ScanInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := d.Scan(ctx); err != nil {
					d.log.Error("narrative scan failed", slog.Any("err", err))
				}
			}
		}
	}()

	return nil
}

// Scan runs one full detection pass: aggregate, correlate, score,
// persist and notify.
func (d *Detector) Scan(ctx context.Context) error {
	now := d.now()

	activity, err := d.signals.EntityActivity(ctx, now, d.config.Window, d.config.MinMentions)
	if err != nil {
		return fmt.Errorf("loading entity activity: %w", err)
	}
	if len(activity) == 0 {
		return nil
	}

	clusters := Correlate(activity, d.config.CorrelationThreshold)

	candidates := make([]candidate, 0, len(clusters))
	for _, cluster := range clusters {
		c := d.buildCandidate(cluster, now)
		if c.Score < d.config.MinScore {
			continue
		}
		candidates = append(candidates, c)
	}

	for i := range candidates {
		c := &candidates[i]

		if err := d.resolveIdentity(ctx, &c.Narrative, now); err != nil {
			d.log.Warn("narrative identity lookup failed", slog.String("topic", c.Topic), slog.Any("err", err))
		}
	}

	linkRelated(candidates)

	for i := range candidates {
		c := &candidates[i]

		d.enrich(ctx, c)

		if err := d.narratives.SaveNarrative(ctx, c.Narrative); err != nil {
			d.log.Error("saving narrative failed", slog.String("topic", c.Topic), slog.Any("err", err))
			continue
		}

		if c.Score >= d.config.DetectionThreshold {
			if err := d.publishNarrativeEvent(c.Narrative); err != nil {
				d.log.Warn("publish narrative event failed", slog.Any("err", err))
			}
			d.callHandlers(c.Narrative)
		}
	}

	if d.config.Retention > 0 {
		pruned, err := d.narratives.PruneNarratives(ctx, now.Add(-d.config.Retention))
		if err != nil {
			d.log.Warn("pruning narratives failed", slog.Any("err", err))
		} else if pruned > 0 {
			d.log.Info("pruned stale narratives", slog.Int64("count", pruned))
		}
	}

	return nil
}

// candidate pairs a narrative under construction with the documents
// its cluster was built from.
type candidate struct {
	narrative.Narrative
	documentIDs []string
}

// buildCandidate turns one entity cluster into a scored narrative.
func (d *Detector) buildCandidate(cluster Cluster, now time.Time) candidate {
	mentions := 0
	prevMentions := 0
	var sentimentSum, prevSentimentSum float64
	var prevWeight float64
	sources := make(map[string]struct{})
	entities := make(map[string]float64)
	docIDs := make(map[string]struct{})

	for _, a := range cluster.Members {
		mentions += a.Mentions
		prevMentions += a.PrevMentions
		sentimentSum += a.Sentiment * float64(a.Mentions)
		if a.PrevMentions > 0 {
			prevSentimentSum += a.PrevSentiment * float64(a.PrevMentions)
			prevWeight += float64(a.PrevMentions)
		}
		for _, s := range a.Sources {
			sources[s] = struct{}{}
		}
		for _, id := range a.DocumentIDs {
			docIDs[id] = struct{}{}
		}
		entities[a.Entity] = float64(a.Mentions)
	}

	// Normalize entity weights to the cluster total.
	for e, w := range entities {
		entities[e] = w / float64(mentions)
	}

	sentiment := sentimentSum / float64(mentions)
	sentimentDelta := 0.0
	if prevWeight > 0 {
		sentimentDelta = sentiment - prevSentimentSum/prevWeight
	}

	velocity := float64(mentions-prevMentions) / float64(max(prevMentions, 1))
	score := Score(mentions, velocity, len(sources), sentimentDelta)

	ids := make([]string, 0, len(docIDs))
	for id := range docIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return candidate{
		Narrative: narrative.Narrative{
			Topic:          cluster.Primary.Entity,
			Description:    describe(cluster.Primary.Entity, mentions, len(sources), velocity),
			Entities:       entities,
			Score:          score,
			Velocity:       velocity,
			Sentiment:      sentiment,
			SentimentDelta: sentimentDelta,
			Mentions:       mentions,
			FirstDetected:  now,
			LastUpdated:    now,
		},
		documentIDs: ids,
	}
}

// resolveIdentity reuses the ID and first-detected timestamp of an
// existing narrative tracking the same topic, or mints a new ID.
func (d *Detector) resolveIdentity(ctx context.Context, n *narrative.Narrative, now time.Time) error {
	existing, err := d.narratives.FindNarrativeByTopic(ctx, n.Topic)
	if err == nil {
		n.ID = existing.ID
		n.FirstDetected = existing.FirstDetected
		return nil
	}
	n.ID = uuid.New().String()
	n.FirstDetected = now
	if err == storage.ErrNotFound {
		return nil
	}
	return err
}

// enrich fills keywords and source references from the contributing
// documents. Failures here degrade the narrative, not the scan.
func (d *Detector) enrich(ctx context.Context, c *candidate) {
	keywords, err := d.signals.TopKeywords(ctx, c.documentIDs, 10)
	if err != nil {
		d.log.Warn("keyword lookup failed", slog.String("topic", c.Topic), slog.Any("err", err))
	} else {
		c.Keywords = keywords
	}

	refs, err := d.signals.DocumentRefs(ctx, c.documentIDs, 10)
	if err != nil {
		d.log.Warn("source ref lookup failed", slog.String("topic", c.Topic), slog.Any("err", err))
	} else {
		c.Sources = refs
	}
}

func (d *Detector) publishNarrativeEvent(n narrative.Narrative) error {
	if d.eventBus == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"id":       n.ID,
		"topic":    n.Topic,
		"score":    n.Score,
		"velocity": n.Velocity,
		"mentions": n.Mentions,
	})
	if err != nil {
		return fmt.Errorf("marshaling narrative event: %w", err)
	}

	topic := fmt.Sprintf("%s.detected", d.config.EventsTopic)
	return d.eventBus.Publish(topic, payload)
}

// GetNarratives returns detected narratives matching the filter.
func (d *Detector) GetNarratives(ctx context.Context, filter narrative.Filter) ([]narrative.Narrative, error) {
	return d.narratives.FindNarratives(ctx, filter)
}

// GetNarrativeByID returns a specific narrative.
func (d *Detector) GetNarrativeByID(ctx context.Context, id string) (*narrative.Narrative, error) {
	return d.narratives.GetNarrative(ctx, id)
}

// RegisterNarrativeHandler registers a callback invoked for every
// narrative crossing the detection threshold.
func (d *Detector) RegisterNarrativeHandler(handler func(narrative.Narrative) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler)
	return nil
}

func (d *Detector) callHandlers(n narrative.Narrative) {
	d.mu.RLock()
	handlers := make([]func(narrative.Narrative) error, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(n); err != nil {
			d.log.Warn("narrative handler failed", slog.String("topic", n.Topic), slog.Any("err", err))
		}
	}
}

// Stop gracefully stops the detection process.
func (d *Detector) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
