package analysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"narratrack/internal/domain/document"
	"narratrack/internal/processing"
)

var tickerPattern = regexp.MustCompile(`^\$[A-Z]{1,5}$`)

type entityCount struct {
	text   string
	kind   string
	count  int
	strong bool
}

// ExtractEntities pulls named entities out of raw text: capitalized
// phrases, #hashtags, @mentions and $TICKER symbols. At most
// maxEntities are returned, ordered by mention count.
func ExtractEntities(title, body string, maxEntities int) []document.EntityMention {
	text := strings.TrimSpace(processing.StripHTML(title + ". " + body))
	if text == "" {
		return nil
	}

	counts := make(map[string]*entityCount)
	record := func(text, kind string, strong bool) {
		key := kind + ":" + strings.ToLower(text)
		if e, ok := counts[key]; ok {
			e.count++
			e.strong = e.strong || strong
			return
		}
		counts[key] = &entityCount{text: text, kind: kind, count: 1, strong: strong}
	}

	tokens := strings.Fields(text)
	sentenceStart := true
	i := 0
	for i < len(tokens) {
		raw := tokens[i]

		switch {
		case strings.HasPrefix(raw, "#"):
			if tag := trimWordEdges(raw[1:]); tag != "" {
				record("#"+strings.ToLower(tag), document.EntityKindHashtag, true)
			}
			sentenceStart = endsSentence(raw)
			i++
			continue
		case strings.HasPrefix(raw, "@"):
			if handle := trimWordEdges(raw[1:]); handle != "" {
				record("@"+strings.ToLower(handle), document.EntityKindMention, true)
			}
			sentenceStart = endsSentence(raw)
			i++
			continue
		case tickerPattern.MatchString(strings.TrimRight(raw, ".,!?;:")):
			record(strings.TrimRight(raw, ".,!?;:"), document.EntityKindTicker, true)
			sentenceStart = endsSentence(raw)
			i++
			continue
		}

		word := trimWordEdges(raw)
		if !isCapitalized(word) {
			sentenceStart = endsSentence(raw)
			i++
			continue
		}

		// Walk a run of capitalized words into one phrase.
		phrase := []string{word}
		j := i
		stop := endsSentence(tokens[j])
		for !stop && j+1 < len(tokens) {
			next := trimWordEdges(tokens[j+1])
			if !isCapitalized(next) {
				break
			}
			phrase = append(phrase, next)
			j++
			stop = endsSentence(tokens[j])
		}

		phraseText := strings.Join(phrase, " ")
		lower := strings.ToLower(phraseText)
		if len(phrase) > 1 || !processing.IsStopword(lower) {
			// A lone capitalized word at the start of a sentence is
			// weak evidence; it only counts if seen again elsewhere.
			strong := len(phrase) > 1 || !sentenceStart
			record(phraseText, document.EntityKindProper, strong)
		}

		sentenceStart = endsSentence(tokens[j])
		i = j + 1
	}

	entities := make([]*entityCount, 0, len(counts))
	for _, e := range counts {
		if e.kind == document.EntityKindProper && !e.strong && e.count < 2 {
			continue
		}
		entities = append(entities, e)
	}

	sort.Slice(entities, func(i, j int) bool {
		if entities[i].count == entities[j].count {
			return entities[i].text < entities[j].text
		}
		return entities[i].count > entities[j].count
	})

	if maxEntities > 0 && len(entities) > maxEntities {
		entities = entities[:maxEntities]
	}

	mentions := make([]document.EntityMention, 0, len(entities))
	for _, e := range entities {
		mentions = append(mentions, document.EntityMention{
			Text:  e.text,
			Kind:  e.kind,
			Count: e.count,
		})
	}
	return mentions
}

// trimWordEdges strips punctuation from both ends of a token while
// keeping interior characters ("O'Brien", "U.S.") intact.
func trimWordEdges(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func isCapitalized(word string) bool {
	if word == "" {
		return false
	}
	runes := []rune(word)
	return unicode.IsUpper(runes[0])
}

func endsSentence(token string) bool {
	return strings.HasSuffix(token, ".") ||
		strings.HasSuffix(token, "!") ||
		strings.HasSuffix(token, "?")
}
