package sentiment

import (
	"context"
	"fmt"

	"github.com/jpsa-nlp/jpsa/chunker"
	"github.com/jpsa-nlp/jpsa/score"
	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// Explanation is the full analysis of one sentence.
type Explanation struct {
	Sentence string            `json:"sentence"`
	Tokens   []tokenizer.Token `json:"tokens"`
	Chunks   []chunker.Chunk   `json:"chunks"`
	Trace    score.Trace       `json:"trace"`
}

// Tokens returns the tokens of each sentence of text, reindexed per
// sentence.
func (a *Analyzer) Tokens(ctx context.Context, text string) ([][]tokenizer.Token, error) {
	sents, err := a.split(ctx, text)
	if err != nil {
		return nil, err
	}
	out := make([][]tokenizer.Token, len(sents))
	for i, s := range sents {
		out[i] = s.tokens
	}
	return out, nil
}

// Explain analyzes every sentence of text and records the chunks and the
// score trace. Unlike scoring, the chunker runs for every sentence. A
// sentence the chunker segments differently has no chunks.
func (a *Analyzer) Explain(ctx context.Context, text string) ([]Explanation, error) {
	sents, err := a.split(ctx, text)
	if err != nil {
		return nil, err
	}

	out := make([]Explanation, 0, len(sents))
	for _, s := range sents {
		provide := score.Static(nil)
		chunks, err := a.chunk.Chunk(ctx, s.text, s.tokens)
		switch {
		case a.mismatch(s, err):
			chunks = nil
		case err != nil:
			return nil, fmt.Errorf("sentiment: chunk %q: %w", s.text, err)
		default:
			provide = score.Static(chunker.NewGraph(chunks))
		}
		tr, err := a.engine.Explain(s.tokens, provide)
		if err != nil {
			return nil, fmt.Errorf("sentiment: sentence %q: %w", s.text, err)
		}
		out = append(out, Explanation{Sentence: s.text, Tokens: s.tokens, Chunks: chunks, Trace: tr})
	}
	return out, nil
}
