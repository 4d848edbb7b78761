package tracking

import (
	"fmt"
	"math"
	"sort"

	"narratrack/internal/domain/narrative"
)

// Cluster groups entity activities that describe the same storyline.
// The primary member carries the most mentions and names the topic.
type Cluster struct {
	Primary narrative.EntityActivity
	Members []narrative.EntityActivity
}

// Correlate merges entities whose contributing document sets overlap
// at or above the Jaccard threshold. A greedy pass over entities in
// descending mention order keeps the dominant entity as each cluster's
// primary.
func Correlate(activity []narrative.EntityActivity, threshold float64) []Cluster {
	sorted := make([]narrative.EntityActivity, len(activity))
	copy(sorted, activity)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Mentions == sorted[j].Mentions {
			return sorted[i].Entity < sorted[j].Entity
		}
		return sorted[i].Mentions > sorted[j].Mentions
	})

	docSets := make([]map[string]struct{}, len(sorted))
	for i, a := range sorted {
		set := make(map[string]struct{}, len(a.DocumentIDs))
		for _, id := range a.DocumentIDs {
			set[id] = struct{}{}
		}
		docSets[i] = set
	}

	assigned := make([]bool, len(sorted))
	var clusters []Cluster
	for i := range sorted {
		if assigned[i] {
			continue
		}
		assigned[i] = true

		cluster := Cluster{
			Primary: sorted[i],
			Members: []narrative.EntityActivity{sorted[i]},
		}

		for j := i + 1; j < len(sorted); j++ {
			if assigned[j] {
				continue
			}
			if jaccard(docSets[i], docSets[j]) >= threshold {
				assigned[j] = true
				cluster.Members = append(cluster.Members, sorted[j])
			}
		}

		clusters = append(clusters, cluster)
	}
	return clusters
}

// jaccard computes |a ∩ b| / |a ∪ b| over two document ID sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for id := range a {
		if _, ok := b[id]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Scoring weights. Volume dominates, velocity close behind: a
// narrative is a topic that is both big and getting bigger.
const (
	weightVolume    = 0.35
	weightVelocity  = 0.30
	weightDiversity = 0.20
	weightShift     = 0.15
)

// Score computes a narrative score on a 0-100 scale from window
// aggregates.
func Score(mentions int, velocity float64, sourceCount int, sentimentDelta float64) float64 {
	if mentions <= 0 {
		return 0
	}

	// log10(1+100) ~= 2, so ~100 mentions in a window saturates volume.
	volume := math.Min(math.Log10(1+float64(mentions))/2, 1)

	// Tripling against the previous window saturates velocity.
	vel := math.Min(math.Max(velocity, 0)/3, 1)

	diversity := math.Min(float64(sourceCount)/3, 1)
	shift := math.Min(math.Abs(sentimentDelta), 1)

	raw := weightVolume*volume +
		weightVelocity*vel +
		weightDiversity*diversity +
		weightShift*shift
	return math.Round(raw*1000) / 10
}

// describe renders a short human-readable summary for the narrative.
func describe(topic string, mentions, sourceCount int, velocity float64) string {
	trend := "steady"
	switch {
	case velocity >= 1:
		trend = "surging"
	case velocity > 0:
		trend = "rising"
	case velocity < 0:
		trend = "fading"
	}

	plural := "sources"
	if sourceCount == 1 {
		plural = "source"
	}
	return fmt.Sprintf("%s discussion of %s: %d mentions across %d %s", trend, topic, mentions, sourceCount, plural)
}

// linkRelated cross-references candidates that share contributing
// documents.
func linkRelated(candidates []candidate) {
	if len(candidates) < 2 {
		return
	}

	sets := make([]map[string]struct{}, len(candidates))
	for i, c := range candidates {
		set := make(map[string]struct{}, len(c.documentIDs))
		for _, id := range c.documentIDs {
			set[id] = struct{}{}
		}
		sets[i] = set
	}

	for i := range candidates {
		for j := range candidates {
			if i == j {
				continue
			}
			if overlaps(sets[i], sets[j]) {
				candidates[i].RelatedNarratives = append(candidates[i].RelatedNarratives, candidates[j].ID)
			}
		}
	}
}

func overlaps(a, b map[string]struct{}) bool {
	for id := range a {
		if _, ok := b[id]; ok {
			return true
		}
	}
	return false
}
