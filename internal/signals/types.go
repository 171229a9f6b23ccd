package signals

// #region sentiment
// Sentiment is the coarse polarity of an input.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)
// #endregion sentiment

// #region config
// ProducerConfig holds the cue vocabularies used for sentiment classification.
// Matching is case-sensitive substring containment; positive cues are checked first.
type ProducerConfig struct {
	PositiveCues []string
	NegativeCues []string
}

// DefaultProducerConfig returns the built-in cue vocabularies.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		PositiveCues: []string{"great", "good", "excellent", "love"},
		NegativeCues: []string{"bad", "terrible", "awful", "hate"},
	}
}
// #endregion config

// #region signals
// Signals are the per-interaction fields derived from the raw input.
type Signals struct {
	Input       string
	InputLength int // runes, not bytes
	IsQuestion  bool
	Sentiment   Sentiment
	Keywords    []string
	IsCommand   bool
}

// Context returns the signals as a fresh context mapping. Slices are []any so
// the mapping can be handed straight to a jq evaluator.
func (s Signals) Context() map[string]any {
	keywords := make([]any, len(s.Keywords))
	for i, k := range s.Keywords {
		keywords[i] = k
	}
	return map[string]any{
		"input":       s.Input,
		"inputLength": s.InputLength,
		"isQuestion":  s.IsQuestion,
		"sentiment":   string(s.Sentiment),
		"keywords":    keywords,
		"isCommand":   s.IsCommand,
	}
}
// #endregion signals
