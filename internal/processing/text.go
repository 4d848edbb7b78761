package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	urlPattern  = regexp.MustCompile(`https?://[^\s]+`)
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// stopwords are high-frequency English words excluded from keyword
// extraction.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "at": {}, "for": {},
	"by": {}, "with": {}, "from": {}, "as": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "it": {}, "its": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "has": {},
	"have": {}, "had": {}, "will": {}, "would": {}, "can": {},
	"could": {}, "should": {}, "not": {}, "no": {}, "do": {},
	"does": {}, "did": {}, "you": {}, "your": {}, "they": {},
	"their": {}, "we": {}, "our": {}, "he": {}, "she": {}, "his": {},
	"her": {}, "what": {}, "which": {}, "who": {}, "how": {},
	"when": {}, "where": {}, "why": {}, "about": {}, "into": {},
	"over": {}, "after": {}, "before": {}, "more": {}, "most": {},
	"some": {}, "such": {}, "than": {}, "then": {}, "there": {},
	"here": {}, "all": {}, "any": {}, "both": {}, "each": {},
	"new": {}, "also": {}, "just": {}, "now": {}, "out": {}, "up": {},
	"so": {}, "if": {}, "because": {}, "while": {}, "says": {},
	"said": {}, "say": {},
}

// IsStopword reports whether the lowercase token is a stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// StripHTML removes markup tags and collapses the remaining whitespace.
func StripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

// RemoveURLs removes all HTTP(S) URLs from the input text.
func RemoveURLs(input string) string {
	return urlPattern.ReplaceAllString(input, " ")
}

// CleanText strips HTML entities, URLs and punctuation and squeezes
// whitespace. The result is suitable for tokenization.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = RemoveURLs(decoded)
	decoded = punctuation.ReplaceAllString(decoded, " ")
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// Tokenize lowercases and splits cleaned text into word tokens.
func Tokenize(input string) []string {
	clean := strings.ToLower(CleanText(input))
	if clean == "" {
		return nil
	}
	fields := strings.Fields(clean)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// ExtractKeywords returns up to limit of the most frequent tokens that
// are neither stopwords nor shorter than minLen runes. Ties break
// alphabetically so the output is deterministic.
func ExtractKeywords(text string, limit, minLen int) []string {
	freq := make(map[string]int)
	for _, token := range Tokenize(text) {
		if len([]rune(token)) < minLen {
			continue
		}
		if IsStopword(token) {
			continue
		}
		freq[token]++
	}
	if len(freq) == 0 {
		return nil
	}

	type wordCount struct {
		word  string
		count int
	}
	pairs := make([]wordCount, 0, len(freq))
	for word, count := range freq {
		pairs = append(pairs, wordCount{word: word, count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].count > pairs[j].count
	})

	if limit <= 0 || limit > len(pairs) {
		limit = len(pairs)
	}
	keywords := make([]string, 0, limit)
	for _, p := range pairs[:limit] {
		keywords = append(keywords, p.word)
	}
	return keywords
}

// DocumentID derives a deterministic ID from the fields that uniquely
// identify an item at its origin.
func DocumentID(source, sourceID, url string) string {
	if sourceID == "" && url == "" {
		return ""
	}
	sum := sha1.Sum([]byte(source + "|" + sourceID + "|" + url))
	return hex.EncodeToString(sum[:])
}
