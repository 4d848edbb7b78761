package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"narratrack/internal/config"
	"narratrack/internal/domain/document"
	"narratrack/internal/processing"
)

const redditPublicURL = "https://www.reddit.com"

// redditPost mirrors the fields we read from the Reddit listing API.
type redditPost struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

// redditListing is the envelope of a Reddit listing response.
type redditListing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string     `json:"kind"`
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditConnector scrapes subreddit listings through the public JSON
// endpoints. No authentication is required; a stable User-Agent keeps
// rate limiting predictable.
type RedditConnector struct {
	// BaseURL is exported so tests can point the connector at a stub.
	BaseURL string

	httpClient *http.Client
	userAgent  string
	subreddits []string
	sort       string
	limit      int
	log        *slog.Logger
}

// NewReddit creates a Reddit connector from the source configuration.
func NewReddit(cfg config.SourcesConfig, log *slog.Logger) *RedditConnector {
	return &RedditConnector{
		BaseURL: redditPublicURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		userAgent:  cfg.UserAgent,
		subreddits: cfg.Subreddits,
		sort:       cfg.RedditSort,
		limit:      cfg.RedditLimit,
		log:        log,
	}
}

// Name returns the connector name.
func (c *RedditConnector) Name() string {
	return "reddit"
}

// Fetch pulls the configured subreddits sequentially. Failures on one
// subreddit are logged and the rest are still fetched.
func (c *RedditConnector) Fetch(ctx context.Context) ([]document.Document, error) {
	var (
		docs   []document.Document
		failed int
	)

	for _, sub := range c.subreddits {
		posts, err := c.fetchSubreddit(ctx, sub)
		if err != nil {
			failed++
			c.log.Warn("subreddit fetch failed", slog.String("subreddit", sub), slog.Any("err", err))
			continue
		}
		docs = append(docs, posts...)
	}

	if failed > 0 && failed == len(c.subreddits) {
		return nil, fmt.Errorf("all %d subreddits failed", failed)
	}
	return docs, nil
}

func (c *RedditConnector) fetchSubreddit(ctx context.Context, subreddit string) ([]document.Document, error) {
	sort := c.sort
	if sort == "" {
		sort = "hot"
	}
	limit := c.limit
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	url := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&raw_json=1", c.BaseURL, subreddit, sort, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting r/%s: %w", subreddit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned status %d for r/%s", resp.StatusCode, subreddit)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decoding listing for r/%s: %w", subreddit, err)
	}

	now := time.Now()
	docs := make([]document.Document, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}

		permalink := redditPublicURL + post.Permalink

		docs = append(docs, document.Document{
			ID:           processing.DocumentID("reddit", post.ID, permalink),
			Source:       "reddit",
			SourceID:     post.ID,
			Title:        post.Title,
			Body:         post.SelfText,
			Author:       post.Author,
			URL:          permalink,
			Tags:         []string{"r/" + post.Subreddit},
			Score:        post.Score,
			CommentCount: post.NumComments,
			PublishedAt:  time.Unix(int64(post.CreatedUTC), 0).UTC(),
			FetchedAt:    now,
		})
	}
	return docs, nil
}
