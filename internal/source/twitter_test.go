package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const tweetSearchBody = `{
	"data": [
		{
			"id": "1111111111",
			"text": "The new model is a huge breakthrough #AI",
			"author_id": "42",
			"created_at": "2025-03-01T10:00:00Z",
			"public_metrics": {
				"retweet_count": 12,
				"reply_count": 3,
				"like_count": 80,
				"quote_count": 5
			}
		}
	],
	"meta": {
		"newest_id": "1111111111",
		"oldest_id": "1111111111",
		"result_count": 1
	}
}`

func TestTwitterFetch(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, tweetSearchBody)
	}))
	defer srv.Close()

	cfg := testSourcesConfig()
	cfg.TwitterBearerToken = "token-123"
	cfg.TwitterQueries = []string{"ai lang:en"}
	cfg.TwitterMaxResults = 50

	connector := NewTwitter(cfg, sourceTestLogger())
	connector.client.Host = srv.URL

	docs, err := connector.Fetch(context.Background())
	require.NoError(t, err)

	require.Equal(t, "Bearer token-123", gotAuth)
	require.Equal(t, "ai lang:en", gotQuery)

	require.Len(t, docs, 1)
	doc := docs[0]
	require.Equal(t, "twitter", doc.Source)
	require.Equal(t, "1111111111", doc.SourceID)
	require.NotEmpty(t, doc.ID)
	require.Equal(t, "The new model is a huge breakthrough #AI", doc.Body)
	require.Equal(t, "42", doc.Author)
	require.Equal(t, "https://twitter.com/i/web/status/1111111111", doc.URL)
	require.Equal(t, []string{"ai lang:en"}, doc.Tags)

	// likes + retweets + quotes
	require.Equal(t, 97, doc.Score)
	require.Equal(t, 3, doc.CommentCount)
	require.True(t, doc.PublishedAt.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestTwitterName(t *testing.T) {
	connector := NewTwitter(testSourcesConfig(), sourceTestLogger())
	require.Equal(t, "twitter", connector.Name())
}
