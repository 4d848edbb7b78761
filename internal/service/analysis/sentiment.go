package analysis

import (
	"math"

	"narratrack/internal/processing"
)

// positiveWords and negativeWords form a small opinion lexicon tuned
// for news and social-media language.
var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "amazing": {}, "awesome": {},
	"love": {}, "loved": {}, "best": {}, "win": {}, "wins": {}, "winning": {},
	"won": {}, "success": {}, "successful": {}, "growth": {}, "growing": {},
	"gain": {}, "gains": {}, "surge": {}, "surges": {}, "soar": {}, "soars": {},
	"record": {}, "breakthrough": {}, "innovative": {}, "strong": {},
	"stronger": {}, "boost": {}, "boosts": {}, "improve": {}, "improves": {},
	"improved": {}, "improvement": {}, "rally": {}, "rallies": {},
	"profit": {}, "profits": {}, "profitable": {}, "beat": {}, "beats": {},
	"exceed": {}, "exceeds": {}, "exceeded": {}, "optimistic": {},
	"positive": {}, "promising": {}, "thrive": {}, "thriving": {},
	"recover": {}, "recovery": {}, "milestone": {}, "popular": {},
	"impressive": {}, "happy": {}, "celebrate": {}, "celebrates": {},
	"approval": {}, "approved": {}, "approves": {}, "safe": {}, "secure": {},
	"hope": {}, "hopeful": {}, "benefit": {}, "benefits": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "horrible": {}, "awful": {}, "worst": {},
	"hate": {}, "hated": {}, "fail": {}, "fails": {}, "failed": {},
	"failure": {}, "loss": {}, "losses": {}, "lose": {}, "loses": {},
	"losing": {}, "crash": {}, "crashes": {}, "crashed": {}, "crisis": {},
	"collapse": {}, "collapses": {}, "plunge": {}, "plunges": {},
	"drop": {}, "drops": {}, "dropped": {}, "decline": {}, "declines": {},
	"declined": {}, "weak": {}, "weaker": {}, "fear": {}, "fears": {},
	"worry": {}, "worries": {}, "worried": {}, "concern": {}, "concerns": {},
	"risk": {}, "risks": {}, "risky": {}, "threat": {}, "threats": {},
	"warning": {}, "warns": {}, "warn": {}, "lawsuit": {}, "sued": {},
	"fraud": {}, "scandal": {}, "breach": {}, "hack": {}, "hacked": {},
	"layoff": {}, "layoffs": {}, "cuts": {}, "shutdown": {}, "ban": {},
	"banned": {}, "bans": {}, "fine": {}, "fined": {}, "death": {},
	"dead": {}, "killed": {}, "war": {}, "attack": {}, "attacks": {},
	"negative": {}, "pessimistic": {}, "problem": {}, "problems": {},
	"broken": {}, "bug": {}, "bugs": {}, "outage": {}, "recession": {},
}

// negators flip the polarity of the word that follows them.
var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "without": {}, "hardly": {},
	"isnt": {}, "wasnt": {}, "dont": {}, "doesnt": {}, "didnt": {},
	"wont": {}, "cant": {}, "couldnt": {},
}

// ScoreSentiment computes a lexicon-based sentiment score in [-1, 1].
// Empty or polarity-free text scores 0.
func ScoreSentiment(text string) float64 {
	tokens := processing.Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var raw float64
	negated := false
	for _, token := range tokens {
		if _, ok := negators[token]; ok {
			negated = true
			continue
		}

		polarity := 0.0
		if _, ok := positiveWords[token]; ok {
			polarity = 1
		} else if _, ok := negativeWords[token]; ok {
			polarity = -1
		}

		if polarity != 0 {
			if negated {
				polarity = -polarity
			}
			raw += polarity
		}
		negated = false
	}

	if raw == 0 {
		return 0
	}

	// Normalizing by sqrt keeps short punchy posts from saturating
	// while still letting long strongly worded pieces reach the ends
	// of the scale.
	score := raw / math.Sqrt(float64(len(tokens)))
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}
