package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"

	"narratrack/internal/config"
	"narratrack/internal/domain/document"
	"narratrack/internal/processing"
)

// bearerAuthorizer adds app-only bearer authentication to API requests.
type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// TwitterConnector runs recent-search queries against the Twitter v2
// API and maps matching tweets into documents.
type TwitterConnector struct {
	client     *twitter.Client
	queries    []string
	maxResults int
	log        *slog.Logger
}

// NewTwitter creates a Twitter connector from the source configuration.
func NewTwitter(cfg config.SourcesConfig, log *slog.Logger) *TwitterConnector {
	return &TwitterConnector{
		client: &twitter.Client{
			Authorizer: bearerAuthorizer{token: cfg.TwitterBearerToken},
			Client: &http.Client{
				Timeout: cfg.RequestTimeout,
			},
			Host: "https://api.twitter.com",
		},
		queries:    cfg.TwitterQueries,
		maxResults: cfg.TwitterMaxResults,
		log:        log,
	}
}

// Name returns the connector name.
func (c *TwitterConnector) Name() string {
	return "twitter"
}

// Fetch runs every configured query. Query failures are logged and the
// remaining queries still run.
func (c *TwitterConnector) Fetch(ctx context.Context) ([]document.Document, error) {
	var (
		docs   []document.Document
		failed int
	)

	for _, query := range c.queries {
		batch, err := c.search(ctx, query)
		if err != nil {
			failed++
			c.log.Warn("tweet search failed", slog.String("query", query), slog.Any("err", err))
			continue
		}
		docs = append(docs, batch...)
	}

	if failed > 0 && failed == len(c.queries) {
		return nil, fmt.Errorf("all %d twitter queries failed", failed)
	}
	return docs, nil
}

func (c *TwitterConnector) search(ctx context.Context, query string) ([]document.Document, error) {
	maxResults := c.maxResults
	if maxResults <= 0 {
		maxResults = 50
	}
	if maxResults > 100 {
		maxResults = 100
	}

	opts := twitter.TweetRecentSearchOpts{
		MaxResults: maxResults,
		TweetFields: []twitter.TweetField{
			twitter.TweetFieldCreatedAt,
			twitter.TweetFieldAuthorID,
			twitter.TweetFieldPublicMetrics,
		},
	}

	resp, err := c.client.TweetRecentSearch(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	now := time.Now()
	docs := make([]document.Document, 0, len(resp.Raw.Tweets))
	for _, tweet := range resp.Raw.Tweets {
		if tweet == nil {
			continue
		}

		published := now
		if tweet.CreatedAt != "" {
			if ts, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
				published = ts
			}
		}

		score := 0
		comments := 0
		if tweet.PublicMetrics != nil {
			score = tweet.PublicMetrics.Likes + tweet.PublicMetrics.Retweets + tweet.PublicMetrics.Quotes
			comments = tweet.PublicMetrics.Replies
		}

		url := fmt.Sprintf("https://twitter.com/i/web/status/%s", tweet.ID)

		docs = append(docs, document.Document{
			ID:           processing.DocumentID("twitter", tweet.ID, url),
			Source:       "twitter",
			SourceID:     tweet.ID,
			Body:         tweet.Text,
			Author:       tweet.AuthorID,
			URL:          url,
			Tags:         []string{query},
			Score:        score,
			CommentCount: comments,
			PublishedAt:  published,
			FetchedAt:    now,
		})
	}
	return docs, nil
}
