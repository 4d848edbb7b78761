package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "narratrack", cfg.Database.Database)
	require.Equal(t, "nats://localhost:4222", cfg.NATS.URL)

	require.Equal(t, 5*time.Minute, cfg.Ingest.PollInterval)
	require.Equal(t, "documents", cfg.Ingest.EventsTopic)

	require.Equal(t, 6*time.Hour, cfg.Narrative.Window)
	require.Equal(t, 3, cfg.Narrative.MinMentions)
	require.Equal(t, 50.0, cfg.Narrative.DetectionThreshold)
	require.Equal(t, "narratives", cfg.Narrative.EventsTopic)

	require.Contains(t, cfg.Sources.Feeds, "techcrunch")
	require.Contains(t, cfg.Sources.Subreddits, "technology")
	require.Empty(t, cfg.Sources.TwitterQueries)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("NARRATIVE_WINDOW", "2h")
	t.Setenv("NARRATIVE_MIN_SCORE", "25.5")
	t.Setenv("SOURCE_SUBREDDITS", "golang, rust")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 2*time.Hour, cfg.Narrative.Window)
	require.Equal(t, 25.5, cfg.Narrative.MinScore)
	require.Equal(t, []string{"golang", "rust"}, cfg.Sources.Subreddits)
}

func TestLoadFeedMap(t *testing.T) {
	t.Setenv("SOURCE_FEEDS", "hn=https://news.ycombinator.com/rss, lobsters=https://lobste.rs/rss")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Sources.Feeds, 2)
	require.Equal(t, "https://news.ycombinator.com/rss", cfg.Sources.Feeds["hn"])
	require.Equal(t, "https://lobste.rs/rss", cfg.Sources.Feeds["lobsters"])
}

func TestLoadFeedMapIgnoresMalformedPairs(t *testing.T) {
	t.Setenv("SOURCE_FEEDS", "broken,=nourl,noname=")

	cfg, err := Load()
	require.NoError(t, err)

	// Nothing parses, so the defaults stay in place.
	require.Contains(t, cfg.Sources.Feeds, "techcrunch")
}

func TestValidateRejectsBadWindow(t *testing.T) {
	t.Setenv("NARRATIVE_WINDOW", "0s")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "window")
}

func TestValidateRejectsBadCorrelationThreshold(t *testing.T) {
	t.Setenv("NARRATIVE_CORRELATION_THRESHOLD", "1.5")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "correlation")
}
