package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"narratrack/internal/config"
)

const rssFeedBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Test Feed</title>
	<link>https://example.com</link>
	<item>
		<title>Chipmaker posts record quarter</title>
		<link>https://example.com/articles/1</link>
		<guid>article-1</guid>
		<description>&lt;p&gt;Revenue &lt;b&gt;soared&lt;/b&gt; past expectations.&lt;/p&gt;</description>
		<category>markets</category>
		<pubDate>%s</pubDate>
	</item>
	<item>
		<title>Ancient history piece</title>
		<link>https://example.com/articles/2</link>
		<guid>article-2</guid>
		<description>old news</description>
		<pubDate>%s</pubDate>
	</item>
</channel>
</rss>`

func TestRSSFetch(t *testing.T) {
	fresh := time.Now().Add(-2 * time.Hour).Format(time.RFC1123Z)
	stale := time.Now().Add(-30 * 24 * time.Hour).Format(time.RFC1123Z)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, rssFeedBody, fresh, stale)
	}))
	defer srv.Close()

	cfg := config.SourcesConfig{
		Feeds:         map[string]string{"testfeed": srv.URL},
		FeedItemLimit: 20,
		FeedMaxAge:    7 * 24 * time.Hour,
		UserAgent:     "narratrack-test/1.0",
	}

	connector := NewRSS(cfg, sourceTestLogger())

	docs, err := connector.Fetch(context.Background())
	require.NoError(t, err)

	// The stale item falls outside the max age window.
	require.Len(t, docs, 1)

	doc := docs[0]
	require.Equal(t, "rss", doc.Source)
	require.Equal(t, "article-1", doc.SourceID)
	require.NotEmpty(t, doc.ID)
	require.Equal(t, "Chipmaker posts record quarter", doc.Title)
	require.Equal(t, "Revenue soared past expectations.", doc.Body)
	require.Equal(t, "https://example.com/articles/1", doc.URL)
	require.Equal(t, []string{"testfeed", "markets"}, doc.Tags)
	require.False(t, doc.PublishedAt.IsZero())
	require.False(t, doc.FetchedAt.IsZero())
}

func TestRSSFetchItemLimit(t *testing.T) {
	fresh := time.Now().Add(-time.Hour).Format(time.RFC1123Z)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, rssFeedBody, fresh, fresh)
	}))
	defer srv.Close()

	cfg := config.SourcesConfig{
		Feeds:         map[string]string{"testfeed": srv.URL},
		FeedItemLimit: 1,
		FeedMaxAge:    7 * 24 * time.Hour,
	}

	connector := NewRSS(cfg, sourceTestLogger())

	docs, err := connector.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Chipmaker posts record quarter", docs[0].Title)
}

func TestRSSFetchPartialFailure(t *testing.T) {
	fresh := time.Now().Add(-time.Hour).Format(time.RFC1123Z)

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, rssFeedBody, fresh, fresh)
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "nope")
	}))
	defer bad.Close()

	cfg := config.SourcesConfig{
		Feeds: map[string]string{
			"good": good.URL,
			"bad":  bad.URL,
		},
		FeedItemLimit: 20,
	}

	connector := NewRSS(cfg, sourceTestLogger())

	docs, err := connector.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		require.Equal(t, "good", doc.Tags[0])
	}
}

func TestRSSFetchAllFeedsFailing(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	cfg := config.SourcesConfig{
		Feeds: map[string]string{"bad": bad.URL},
	}

	connector := NewRSS(cfg, sourceTestLogger())

	_, err := connector.Fetch(context.Background())
	require.Error(t, err)
}

func TestRSSName(t *testing.T) {
	connector := NewRSS(config.SourcesConfig{}, sourceTestLogger())
	require.Equal(t, "rss", connector.Name())
}
