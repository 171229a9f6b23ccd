package retrieval

import "github.com/danielpatrickdp/digital-twin/internal/state"

// #region config
// RetrievalConfig controls long-term memory lookup.
type RetrievalConfig struct {
	KeywordFallback bool // match on single keywords when the whole input is not a substring
	MinKeywordLen   int  // keywords shorter than this never match on their own
}

// DefaultConfig returns the built-in lookup settings.
func DefaultConfig() RetrievalConfig {
	return RetrievalConfig{
		KeywordFallback: true,
		MinKeywordLen:   3,
	}
}
// #endregion config

// #region match
// MatchKind records how an entry was surfaced.
type MatchKind string

const (
	MatchSubstring MatchKind = "substring"
	MatchKeyword   MatchKind = "keyword"
)

// Match is the single long-term entry surfaced for an input.
type Match struct {
	Entry   state.LongTermEntry
	Kind    MatchKind
	Keyword string // set when Kind is MatchKeyword
}
// #endregion match
