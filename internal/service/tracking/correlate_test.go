package tracking

import (
	"testing"

	"github.com/stretchr/testify/require"

	"narratrack/internal/domain/narrative"
)

func TestCorrelateMergesOverlappingEntities(t *testing.T) {
	activity := []narrative.EntityActivity{
		{Entity: "OpenAI", Mentions: 10, DocumentIDs: []string{"d1", "d2", "d3"}},
		{Entity: "GPT-5", Mentions: 6, DocumentIDs: []string{"d1", "d2", "d3"}},
		{Entity: "Bitcoin", Mentions: 8, DocumentIDs: []string{"d7", "d8"}},
	}

	clusters := Correlate(activity, 0.5)
	require.Len(t, clusters, 2)

	// The dominant entity names the cluster.
	require.Equal(t, "OpenAI", clusters[0].Primary.Entity)
	require.Len(t, clusters[0].Members, 2)

	require.Equal(t, "Bitcoin", clusters[1].Primary.Entity)
	require.Len(t, clusters[1].Members, 1)
}

func TestCorrelateRespectsThreshold(t *testing.T) {
	activity := []narrative.EntityActivity{
		{Entity: "A", Mentions: 10, DocumentIDs: []string{"d1", "d2", "d3", "d4"}},
		{Entity: "B", Mentions: 5, DocumentIDs: []string{"d4", "d5", "d6", "d7"}},
	}

	// Overlap of 1 out of 7 stays below 0.5.
	clusters := Correlate(activity, 0.5)
	require.Len(t, clusters, 2)

	clusters = Correlate(activity, 0.1)
	require.Len(t, clusters, 1)
	require.Len(t, clusters[0].Members, 2)
}

func TestCorrelateDeterministicTieBreak(t *testing.T) {
	activity := []narrative.EntityActivity{
		{Entity: "Zebra", Mentions: 5, DocumentIDs: []string{"d1"}},
		{Entity: "Alpha", Mentions: 5, DocumentIDs: []string{"d2"}},
	}

	clusters := Correlate(activity, 0.5)
	require.Len(t, clusters, 2)
	require.Equal(t, "Alpha", clusters[0].Primary.Entity)
}

func TestCorrelateEmptyInput(t *testing.T) {
	require.Empty(t, Correlate(nil, 0.5))
}

func TestScore(t *testing.T) {
	require.Zero(t, Score(0, 0, 0, 0))

	// All components saturated.
	require.Equal(t, 100.0, Score(99, 3, 3, 1))

	// Volume and a single source only.
	require.InDelta(t, 24.2, Score(9, 0, 1, 0), 0.01)

	// More mentions never lowers the score.
	require.GreaterOrEqual(t, Score(50, 1, 2, 0), Score(10, 1, 2, 0))

	// Negative velocity contributes nothing but does not go below zero.
	require.Greater(t, Score(10, -2, 1, 0), 0.0)
}

func TestScoreBounds(t *testing.T) {
	require.LessOrEqual(t, Score(1_000_000, 100, 50, 5), 100.0)
	require.GreaterOrEqual(t, Score(1, 0, 1, 0), 0.0)
}

func TestDescribe(t *testing.T) {
	require.Equal(t,
		"surging discussion of OpenAI: 42 mentions across 3 sources",
		describe("OpenAI", 42, 3, 1.5),
	)
	require.Equal(t,
		"rising discussion of Bitcoin: 10 mentions across 1 source",
		describe("Bitcoin", 10, 1, 0.2),
	)
	require.Equal(t,
		"fading discussion of X: 4 mentions across 2 sources",
		describe("X", 4, 2, -0.5),
	)
	require.Equal(t,
		"steady discussion of Y: 7 mentions across 2 sources",
		describe("Y", 7, 2, 0),
	)
}

func TestLinkRelated(t *testing.T) {
	candidates := []candidate{
		{Narrative: narrative.Narrative{ID: "n1"}, documentIDs: []string{"d1", "d2"}},
		{Narrative: narrative.Narrative{ID: "n2"}, documentIDs: []string{"d2", "d3"}},
		{Narrative: narrative.Narrative{ID: "n3"}, documentIDs: []string{"d9"}},
	}

	linkRelated(candidates)

	require.Equal(t, []string{"n2"}, candidates[0].RelatedNarratives)
	require.Equal(t, []string{"n1"}, candidates[1].RelatedNarratives)
	require.Empty(t, candidates[2].RelatedNarratives)
}
