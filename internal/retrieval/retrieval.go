package retrieval

import (
	"strings"
	"unicode/utf8"

	"github.com/danielpatrickdp/digital-twin/internal/state"
)

// #region retriever
// Retriever looks up long-term memory entries by case-insensitive containment.
type Retriever struct {
	config RetrievalConfig
}

// NewRetriever creates a Retriever with the given config.
func NewRetriever(config RetrievalConfig) *Retriever {
	return &Retriever{config: config}
}
// #endregion retriever

// #region retrieve
// Retrieve returns the first entry, in list order, whose content contains the
// trimmed input, or failing that any input keyword. Entries are never ranked
// and at most one is returned.
//  1. Substring pass: whole input against every entry
//  2. Keyword pass: each entry against the input's keywords, in input order
func (r *Retriever) Retrieve(input string, entries []state.LongTermEntry) (Match, bool) {
	needle := strings.ToLower(strings.TrimSpace(input))
	if needle == "" {
		return Match{}, false
	}

	valid := consistencyCheck(entries)
	for _, e := range valid {
		if strings.Contains(strings.ToLower(e.Content), needle) {
			return Match{Entry: e, Kind: MatchSubstring}, true
		}
	}

	if !r.config.KeywordFallback {
		return Match{}, false
	}
	var keywords []string
	for _, k := range Keywords(input) {
		if utf8.RuneCountInString(k) >= r.config.MinKeywordLen {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return Match{}, false
	}
	for _, e := range valid {
		content := strings.ToLower(e.Content)
		for _, k := range keywords {
			if strings.Contains(content, k) {
				return Match{Entry: e, Kind: MatchKeyword, Keyword: k}, true
			}
		}
	}
	return Match{}, false
}
// #endregion retrieve

// #region consistency-check
// consistencyCheck drops entries that cannot be surfaced:
//   - Empty content
//   - Duplicate IDs (first occurrence wins)
func consistencyCheck(entries []state.LongTermEntry) []state.LongTermEntry {
	seen := make(map[string]bool)
	valid := make([]state.LongTermEntry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Content) == "" {
			continue
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		valid = append(valid, e)
	}
	return valid
}
// #endregion consistency-check
