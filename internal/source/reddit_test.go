package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"narratrack/internal/config"
)

const redditListingBody = `{
	"kind": "Listing",
	"data": {
		"after": "t3_xyz",
		"children": [
			{
				"kind": "t3",
				"data": {
					"id": "abc123",
					"subreddit": "golang",
					"title": "Go 1.23 released",
					"selftext": "Release notes inside",
					"author": "gopher",
					"score": 512,
					"num_comments": 87,
					"url": "https://go.dev/blog/go1.23",
					"permalink": "/r/golang/comments/abc123/go_123_released/",
					"created_utc": 1740000000,
					"stickied": false
				}
			},
			{
				"kind": "t3",
				"data": {
					"id": "pinned1",
					"subreddit": "golang",
					"title": "Weekly thread",
					"permalink": "/r/golang/comments/pinned1/weekly/",
					"created_utc": 1740000000,
					"stickied": true
				}
			}
		]
	}
}`

func testSourcesConfig() config.SourcesConfig {
	return config.SourcesConfig{
		Subreddits:     []string{"golang"},
		RedditSort:     "hot",
		RedditLimit:    25,
		UserAgent:      "narratrack-test/1.0",
		RequestTimeout: 5 * time.Second,
	}
}

func sourceTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedditFetch(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, redditListingBody)
	}))
	defer srv.Close()

	connector := NewReddit(testSourcesConfig(), sourceTestLogger())
	connector.BaseURL = srv.URL

	docs, err := connector.Fetch(context.Background())
	require.NoError(t, err)

	require.Equal(t, "/r/golang/hot.json", gotPath)
	require.Equal(t, "limit=25&raw_json=1", gotQuery)
	require.Equal(t, "narratrack-test/1.0", gotUA)

	// The stickied post is skipped.
	require.Len(t, docs, 1)

	doc := docs[0]
	require.Equal(t, "reddit", doc.Source)
	require.Equal(t, "abc123", doc.SourceID)
	require.NotEmpty(t, doc.ID)
	require.Equal(t, "Go 1.23 released", doc.Title)
	require.Equal(t, "Release notes inside", doc.Body)
	require.Equal(t, "gopher", doc.Author)
	require.Equal(t, 512, doc.Score)
	require.Equal(t, 87, doc.CommentCount)
	require.Equal(t, []string{"r/golang"}, doc.Tags)
	require.Equal(t, "https://www.reddit.com/r/golang/comments/abc123/go_123_released/", doc.URL)
	require.Equal(t, time.Unix(1740000000, 0).UTC(), doc.PublishedAt)
	require.False(t, doc.FetchedAt.IsZero())
}

func TestRedditFetchClampsLimit(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{"kind":"Listing","data":{"children":[]}}`)
	}))
	defer srv.Close()

	cfg := testSourcesConfig()
	cfg.RedditLimit = 500

	connector := NewReddit(cfg, sourceTestLogger())
	connector.BaseURL = srv.URL

	_, err := connector.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "limit=100&raw_json=1", gotQuery)
}

func TestRedditFetchAllSubredditsFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	connector := NewReddit(testSourcesConfig(), sourceTestLogger())
	connector.BaseURL = srv.URL

	_, err := connector.Fetch(context.Background())
	require.Error(t, err)
}

func TestRedditFetchPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/r/broken/hot.json" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, redditListingBody)
	}))
	defer srv.Close()

	cfg := testSourcesConfig()
	cfg.Subreddits = []string{"broken", "golang"}

	connector := NewReddit(cfg, sourceTestLogger())
	connector.BaseURL = srv.URL

	docs, err := connector.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestRedditName(t *testing.T) {
	connector := NewReddit(testSourcesConfig(), sourceTestLogger())
	require.Equal(t, "reddit", connector.Name())
}
