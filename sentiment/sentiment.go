// Package sentiment scores Japanese documents sentence by sentence.
//
// An Analyzer splits a document into line blocks, preprocesses each block
// (see the normalize package), tokenizes it and cuts it into sentences at
// EOS marks (。．！？!?!?). Each sentence is scored by a score.Engine, with
// chunks requested from a chunker.Chunker only when a reversal rule needs
// them. The document score is the mean of the sentence scores, rounded to
// two decimals.
//
// Entry points:
//
//   - Analyze returns a Result with the document score, its polarity and
//     every sentence's score.
//   - ScoreDocument returns only the document score.
//   - ScorePairs returns (sentence, score) pairs in document order.
//   - ScoreSentence scores one sentence.
//   - SentiTokenize buckets a sentence's words by lexicon polarity.
//
// Known limitations:
//
//   - Quotations are not tracked when splitting sentences.
//   - Sentences are rebuilt from token surfaces, so whitespace between
//     tokens is lost.
//
// An Analyzer is safe for concurrent use when its Tokenizer and Chunker
// are.
package sentiment

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentiment represents the sentiment polarity.
type Sentiment int

const (
	Negative Sentiment = -1
	Neutral  Sentiment = 0
	Positive Sentiment = 1
)

// sentimentNames maps Sentiment values to their string names.
var sentimentNames = map[Sentiment]string{
	Negative: "Negative",
	Neutral:  "Neutral",
	Positive: "Positive",
}

// sentimentFromName maps string names back to Sentiment values.
var sentimentFromName = map[string]Sentiment{
	"Negative": Negative,
	"Neutral":  Neutral,
	"Positive": Positive,
}

// String returns the name of the sentiment polarity.
func (s Sentiment) String() string {
	if name, ok := sentimentNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Sentiment(%d)", int(s))
}

// MarshalJSON encodes the sentiment as a JSON string.
func (s Sentiment) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a JSON string into a Sentiment.
func (s *Sentiment) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v, ok := sentimentFromName[str]
	if !ok {
		return fmt.Errorf("sentiment: unknown sentiment: %q", str)
	}
	*s = v
	return nil
}

// Classify returns the polarity of a score: its sign.
func Classify(score float64) Sentiment {
	switch {
	case score > 0:
		return Positive
	case score < 0:
		return Negative
	default:
		return Neutral
	}
}

var (
	// ErrNoSentences is returned when a document has no sentences to score.
	ErrNoSentences = errors.New("sentiment: no sentences")
	// ErrInputTooLarge is returned for documents over the size limit.
	ErrInputTooLarge = errors.New("sentiment: input too large")
)

// Pair is one sentence and its score.
type Pair struct {
	Sentence  string    `json:"sentence"`
	Score     float64   `json:"score"`
	Sentiment Sentiment `json:"sentiment"`
}

// Result holds the analysis of a document.
type Result struct {
	Sentiment Sentiment `json:"sentiment"`
	Score     float64   `json:"score"`     // mean sentence score, -1.0 to +1.0
	Sentences []Pair    `json:"sentences"` // in document order
	Positive  int       `json:"positive"`  // count of positive sentences
	Negative  int       `json:"negative"`  // count of negative sentences
	Total     int       `json:"total"`     // total sentences
}

// String returns a debug representation of the result.
func (r Result) String() string {
	return fmt.Sprintf("%s(score=%.2f, pos=%d, neg=%d, total=%d)",
		r.Sentiment, r.Score, r.Positive, r.Negative, r.Total)
}

// Buckets holds the distinct words of a sentence grouped by lexicon
// polarity, each in first-occurrence order.
type Buckets struct {
	Positive []string `json:"positive"`
	Neutral  []string `json:"neutral"`
	Negative []string `json:"negative"`
}
