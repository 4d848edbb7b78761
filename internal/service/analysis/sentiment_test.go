package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		sign int
	}{
		{"positive", "record profits and strong growth", 1},
		{"negative", "layoffs follow a terrible quarter and a lawsuit", -1},
		{"neutral", "the committee met on tuesday", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ScoreSentiment(tt.text)
			require.GreaterOrEqual(t, score, -1.0)
			require.LessOrEqual(t, score, 1.0)

			switch tt.sign {
			case 1:
				require.Greater(t, score, 0.0)
			case -1:
				require.Less(t, score, 0.0)
			default:
				require.Zero(t, score)
			}
		})
	}
}

func TestScoreSentimentNegationFlipsPolarity(t *testing.T) {
	require.Greater(t, ScoreSentiment("good launch"), 0.0)
	require.Less(t, ScoreSentiment("not good launch"), 0.0)

	require.Less(t, ScoreSentiment("the rollout failed"), 0.0)
	require.Greater(t, ScoreSentiment("the rollout never failed"), 0.0)
}

func TestScoreSentimentSaturates(t *testing.T) {
	require.Equal(t, 1.0, ScoreSentiment("great great great"))
	require.Equal(t, -1.0, ScoreSentiment("awful awful awful"))
}

func TestScoreSentimentDilutesWithLength(t *testing.T) {
	short := ScoreSentiment("great product")
	long := ScoreSentiment("great product although most of the remaining review talks about shipping times and packaging materials at considerable length")
	require.Greater(t, short, long)
	require.Greater(t, long, 0.0)
}
