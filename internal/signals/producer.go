package signals

import (
	"strings"
	"unicode/utf8"

	"github.com/danielpatrickdp/digital-twin/internal/retrieval"
)

// #region producer
// Producer derives context signals from interaction input.
type Producer struct {
	config ProducerConfig
}

// NewProducer creates a Producer with the given cue vocabularies.
func NewProducer(config ProducerConfig) *Producer {
	return &Producer{config: config}
}
// #endregion producer

// #region produce
// Produce computes all signals for input. Pure; never fails.
func (p *Producer) Produce(input string) Signals {
	return Signals{
		Input:       input,
		InputLength: utf8.RuneCountInString(input),
		IsQuestion:  strings.Contains(input, "?"),
		Sentiment:   p.ClassifySentiment(input),
		Keywords:    retrieval.Keywords(input),
		IsCommand:   IsDirectCommand(input),
	}
}
// #endregion produce

// #region sentiment
// ClassifySentiment returns positive if any positive cue occurs in input,
// otherwise negative if any negative cue occurs, otherwise neutral.
func (p *Producer) ClassifySentiment(input string) Sentiment {
	for _, cue := range p.config.PositiveCues {
		if cue != "" && strings.Contains(input, cue) {
			return SentimentPositive
		}
	}
	for _, cue := range p.config.NegativeCues {
		if cue != "" && strings.Contains(input, cue) {
			return SentimentNegative
		}
	}
	return SentimentNeutral
}
// #endregion sentiment
