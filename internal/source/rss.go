package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"narratrack/internal/config"
	"narratrack/internal/domain/document"
	"narratrack/internal/processing"
)

// RSSConnector aggregates articles from a set of RSS/Atom feeds.
type RSSConnector struct {
	parser    *gofeed.Parser
	feeds     map[string]string
	itemLimit int
	maxAge    time.Duration
	log       *slog.Logger
}

// NewRSS creates an RSS connector from the source configuration.
func NewRSS(cfg config.SourcesConfig, log *slog.Logger) *RSSConnector {
	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent

	return &RSSConnector{
		parser:    parser,
		feeds:     cfg.Feeds,
		itemLimit: cfg.FeedItemLimit,
		maxAge:    cfg.FeedMaxAge,
		log:       log,
	}
}

// Name returns the connector name.
func (c *RSSConnector) Name() string {
	return "rss"
}

// Fetch pulls all configured feeds concurrently. Individual feed
// failures are logged and skipped; an error is returned only when every
// feed failed.
func (c *RSSConnector) Fetch(ctx context.Context) ([]document.Document, error) {
	var (
		mu     sync.Mutex
		docs   []document.Document
		failed int
		wg     sync.WaitGroup
	)

	for name, url := range c.feeds {
		wg.Add(1)
		go func(name, url string) {
			defer wg.Done()

			items, err := c.fetchFeed(ctx, name, url)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				c.log.Warn("feed fetch failed", slog.String("feed", name), slog.Any("err", err))
				return
			}
			docs = append(docs, items...)
		}(name, url)
	}
	wg.Wait()

	if failed > 0 && failed == len(c.feeds) {
		return nil, fmt.Errorf("all %d feeds failed", failed)
	}
	return docs, nil
}

func (c *RSSConnector) fetchFeed(ctx context.Context, name, url string) ([]document.Document, error) {
	feed, err := c.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", name, err)
	}

	now := time.Now()
	oldest := now.Add(-c.maxAge)

	items := feed.Items
	if c.itemLimit > 0 && len(items) > c.itemLimit {
		items = items[:c.itemLimit]
	}

	docs := make([]document.Document, 0, len(items))
	for _, item := range items {
		published := now
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}
		if c.maxAge > 0 && published.Before(oldest) {
			continue
		}

		body := item.Description
		if body == "" {
			body = item.Content
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		sourceID := item.GUID
		if sourceID == "" {
			sourceID = item.Link
		}

		docs = append(docs, document.Document{
			ID:          processing.DocumentID("rss", sourceID, item.Link),
			Source:      "rss",
			SourceID:    sourceID,
			Title:       item.Title,
			Body:        processing.StripHTML(body),
			Author:      author,
			URL:         item.Link,
			Tags:        append([]string{name}, item.Categories...),
			PublishedAt: published,
			FetchedAt:   now,
		})
	}
	return docs, nil
}
