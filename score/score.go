// Package score computes the polarity score of one tokenized sentence.
//
// The score is the mean of a per-token score vector, rounded to two
// decimals. The vector starts as the lexicon polarity of each token's
// lowercased base form and is then rewritten left to right. At each token
// index i:
//
//   - Multi-word override: if the trigram ending at i has a nonzero
//     polarity s, tokens i-2..i become [s, 0, 0]; otherwise a nonzero
//     bigram ending at i makes tokens i-1..i [s, 0].
//   - Reversal: if token i triggers a reversal rule (see Rules), the
//     scope's scores become [-m, 0, ...], where m is the scope's maximum.
//     The scope is the chunk containing i ("own") or the last chunk that
//     depends on it ("source").
//
// Chunks are only needed for reversal, so they are requested lazily
// through a ChunkProvider.
//
// An Engine is immutable and safe for concurrent use by multiple
// goroutines.
package score

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/jpsa-nlp/jpsa/chunker"
	"github.com/jpsa-nlp/jpsa/internal/jakey"
	"github.com/jpsa-nlp/jpsa/lexicon"
	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// precision is the number of decimals scores are rounded to.
const precision = 2

// ErrEmptySentence is returned when scoring a sentence with no tokens.
var ErrEmptySentence = errors.New("score: empty sentence")

// ChunkProvider returns the chunk graph of the sentence being scored.
// Compute calls it at most once, and only when a reversal rule fires.
type ChunkProvider func() (*chunker.Graph, error)

// Static returns a ChunkProvider for an already built graph.
func Static(g *chunker.Graph) ChunkProvider {
	return func() (*chunker.Graph, error) { return g, nil }
}

// FromChunker returns a ChunkProvider that runs c on the sentence and its
// tokens when called.
func FromChunker(ctx context.Context, c chunker.Chunker, sentence string, tokens []tokenizer.Token) ChunkProvider {
	return func() (*chunker.Graph, error) {
		chunks, err := c.Chunk(ctx, sentence, tokens)
		if err != nil {
			return nil, err
		}
		return chunker.NewGraph(chunks), nil
	}
}

// Engine scores sentences against a lexicon and reversal rules.
type Engine struct {
	lex    *lexicon.Lexicon
	rules  Rules
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	rules  *Rules
	logger *zap.Logger
}

// WithRules replaces the default reversal tables.
func WithRules(r Rules) Option {
	return func(o *engineOptions) { o.rules = &r }
}

// WithLogger sets the logger for skipped reversals. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns an Engine scoring against lex. A nil lex scores every word 0.
func New(lex *lexicon.Lexicon, opts ...Option) (*Engine, error) {
	o := engineOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rules == nil {
		r, err := DefaultRules()
		if err != nil {
			return nil, err
		}
		o.rules = &r
	}
	return &Engine{lex: lex, rules: *o.rules, logger: o.logger}, nil
}

// Lexicon returns the engine's lexicon.
func (e *Engine) Lexicon() *lexicon.Lexicon {
	return e.lex
}

// Rules returns the engine's reversal tables.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Compute returns the polarity score of tokens, in [-1, 1] for a lexicon
// with polarities in {-1, 0, 1}. A nil chunks scores without reversal.
// Returns ErrEmptySentence when tokens is empty.
func (e *Engine) Compute(tokens []tokenizer.Token, chunks ChunkProvider) (float64, error) {
	return e.run(tokens, chunks, nil)
}

// Explain is like Compute and also records every rewrite of the vector.
func (e *Engine) Explain(tokens []tokenizer.Token, chunks ChunkProvider) (Trace, error) {
	var tr Trace
	score, err := e.run(tokens, chunks, &tr)
	if err != nil {
		return Trace{}, err
	}
	tr.Score = score
	return tr, nil
}

func (e *Engine) run(tokens []tokenizer.Token, provide ChunkProvider, tr *Trace) (float64, error) {
	n := len(tokens)
	if n == 0 {
		return 0, ErrEmptySentence
	}

	keys := make([]string, n)
	vec := make([]int, n)
	for i, t := range tokens {
		keys[i] = t.Key()
		vec[i] = e.lex.Polarity(keys[i])
	}
	if tr != nil {
		tr.Keys = keys
		tr.Base = slices.Clone(vec)
	}

	graph := lazyGraph{provide: provide}
	for i := range n {
		vec = e.override(i, keys, vec, tr)

		scope, trigger := e.match(i, keys, tokens[i].POS)
		if scope == ScopeNone {
			continue
		}
		start, end, reason, err := graph.scope(i, scope, n)
		if err != nil {
			return 0, fmt.Errorf("score: chunks: %w", err)
		}
		if reason != "" {
			e.logger.Debug("reversal skipped",
				zap.Int("index", i),
				zap.String("trigger", trigger),
				zap.Stringer("scope", scope),
				zap.String("reason", reason),
			)
			tr.add(Step{Index: i, Rule: RuleReverse, Key: trigger, Scope: scope, Skipped: reason}, vec)
			continue
		}
		vec = splice(vec, start, reversal(vec, start, end))
		tr.add(Step{Index: i, Rule: RuleReverse, Key: trigger, Scope: scope, Start: start, End: end}, vec)
	}

	values := make([]float64, n)
	for i, v := range vec {
		values[i] = float64(v)
	}
	sum := floats.Sum(values)
	if tr != nil {
		tr.Vector = vec
		tr.Sum = int(sum)
	}
	return floats.Round(sum/float64(n), precision), nil
}

// override applies the trigram or bigram ending at i.
func (e *Engine) override(i int, keys []string, vec []int, tr *Trace) []int {
	var bi, tri int
	var biKey, triKey string
	if i >= 1 {
		biKey = jakey.Join(keys[i-1], keys[i])
		bi = e.lex.Polarity(biKey)
	}
	if i >= 2 { //nolint:mnd
		triKey = jakey.Join(keys[i-2], keys[i-1], keys[i])
		tri = e.lex.Polarity(triKey)
	}

	switch {
	case tri != 0:
		vec = splice(vec, i-2, []int{tri, 0, 0})
		tr.add(Step{Index: i, Rule: RuleTrigram, Key: triKey, Start: i - 2, End: i + 1}, vec)
	case bi != 0:
		vec = splice(vec, i-1, []int{bi, 0})
		tr.add(Step{Index: i, Rule: RuleBigram, Key: biKey, Start: i - 1, End: i + 1}, vec)
	}
	return vec
}

// match returns the scope of the reversal rule triggered at i and the
// trigger text. Single-word rules are checked first and multi-word rules
// after; within and across the tables the last match wins.
func (e *Engine) match(i int, keys []string, pos tokenizer.POS) (Scope, string) {
	scope, trigger := ScopeNone, ""
	for _, r := range e.rules.Single {
		if keys[i] == r.Base && pos == r.POS {
			scope, trigger = r.Scope, r.Base
		}
	}
	for _, r := range e.rules.Multi {
		w := len(r.Words)
		if w == 0 || i < w-1 {
			continue
		}
		if slices.Equal(keys[i-w+1:i+1], r.Words) {
			scope, trigger = r.Scope, r.Phrase
		}
	}
	return scope, trigger
}

// lazyGraph calls its provider on first use and caches the result.
type lazyGraph struct {
	provide ChunkProvider
	graph   *chunker.Graph
	err     error
	done    bool
}

func (l *lazyGraph) get() (*chunker.Graph, error) {
	if !l.done {
		l.done = true
		if l.provide != nil {
			l.graph, l.err = l.provide()
		}
	}
	return l.graph, l.err
}

// Reasons a reversal is skipped.
const (
	reasonNoChunks   = "no chunks"
	reasonNoChunk    = "no chunk contains token"
	reasonNoChildren = "chunk has no children"
	reasonEmpty      = "empty scope"
)

// scope returns the token range [start, end) that scope covers for token
// i, or a non-empty reason when there is none.
func (l *lazyGraph) scope(i int, scope Scope, n int) (start, end int, reason string, err error) {
	g, err := l.get()
	if err != nil {
		return 0, 0, "", err
	}
	if g == nil {
		return 0, 0, reasonNoChunks, nil
	}
	c, ok := g.Find(i)
	if !ok {
		return 0, 0, reasonNoChunk, nil
	}
	if scope == ScopeSource {
		children := g.Children(c.Index)
		if len(children) == 0 {
			return 0, 0, reasonNoChildren, nil
		}
		c = g.Chunk(children[len(children)-1])
	}
	start, end = max(c.TokenStart, 0), min(c.End(), n)
	if start >= end {
		return 0, 0, reasonEmpty, nil
	}
	return start, end, "", nil
}
