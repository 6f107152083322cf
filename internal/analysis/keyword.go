package analysis

import (
	"regexp"
	"sync"
)

var (
	keywordPatternsOnce sync.Once
	keywordPatterns     map[string][]*regexp.Regexp
)

// keywordPatternFor compiles a case-insensitive, word-bounded pattern for a
// configured keyword or phrase.
func keywordPatternFor(kw string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
}

func compiledKeywordPatterns() map[string][]*regexp.Regexp {
	keywordPatternsOnce.Do(func() {
		keywordPatterns = make(map[string][]*regexp.Regexp, len(defaultItems))
		for _, item := range defaultItems {
			pats := make([]*regexp.Regexp, 0, len(item.Keywords))
			for _, kw := range item.Keywords {
				pats = append(pats, keywordPatternFor(kw))
			}
			keywordPatterns[item.ID] = pats
		}
	})
	return keywordPatterns
}

// ScoreKeywords scans the raw transcript against each item's keyword list.
// Every distinct keyword that appears adds PointsPerHit, capped at
// MaxItemPoints per item. Items with no matches are absent from the result.
func ScoreKeywords(transcript string, cfg Config) map[string]int {
	points := make(map[string]int)
	if transcript == "" {
		return points
	}

	for itemID, pats := range compiledKeywordPatterns() {
		for _, pat := range pats {
			if !pat.MatchString(transcript) {
				continue
			}
			total := points[itemID] + cfg.PointsPerHit
			if total > cfg.MaxItemPoints {
				total = cfg.MaxItemPoints
			}
			points[itemID] = total
		}
	}

	return points
}

// scoreKeywordsForItem scans the transcript against a single item's keywords.
func scoreKeywordsForItem(transcript, itemID string, cfg Config) int {
	pats, ok := compiledKeywordPatterns()[itemID]
	if !ok || transcript == "" {
		return 0
	}

	total := 0
	for _, pat := range pats {
		if !pat.MatchString(transcript) {
			continue
		}
		total += cfg.PointsPerHit
		if total >= cfg.MaxItemPoints {
			return cfg.MaxItemPoints
		}
	}
	return total
}
