package sentiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jpsa-nlp/jpsa/chunker"
	"github.com/jpsa-nlp/jpsa/internal/jakey"
	"github.com/jpsa-nlp/jpsa/lexicon"
	"github.com/jpsa-nlp/jpsa/normalize"
	"github.com/jpsa-nlp/jpsa/score"
	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// DefaultMaxInputBytes is the default document size limit.
const DefaultMaxInputBytes = 1 << 20 // 1 MiB

// precision is the number of decimals the document score is rounded to.
const precision = 2

// Analyzer scores documents. Create one with New and share it.
type Analyzer struct {
	tok      tokenizer.Tokenizer
	chunk    chunker.Chunker
	engine   *score.Engine
	workers  int
	maxBytes int
	logger   *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithChunker sets the chunker consulted for reversal rules.
// Default: chunker.Bunsetsu.
func WithChunker(c chunker.Chunker) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.chunk = c
		}
	}
}

// WithWorkers sets how many sentences are scored concurrently.
// Values below 1 mean 1. Default: 1.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = max(n, 1) }
}

// WithMaxInputBytes sets the document size limit. Zero or less disables
// the limit. Default: DefaultMaxInputBytes.
func WithMaxInputBytes(n int) Option {
	return func(a *Analyzer) { a.maxBytes = n }
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an Analyzer that tokenizes with tok and scores with engine.
func New(tok tokenizer.Tokenizer, engine *score.Engine, opts ...Option) *Analyzer {
	a := &Analyzer{
		tok:      tok,
		chunk:    chunker.Bunsetsu{},
		engine:   engine,
		workers:  1,
		maxBytes: DefaultMaxInputBytes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewDefault returns an Analyzer using the kagome tokenizer, the bunsetsu
// chunker, the embedded lexicon and the default rules.
func NewDefault(opts ...Option) (*Analyzer, error) {
	tok, err := tokenizer.NewKagome()
	if err != nil {
		return nil, err
	}
	lex, err := lexicon.Default()
	if err != nil {
		return nil, err
	}
	engine, err := score.New(lex)
	if err != nil {
		return nil, err
	}
	return New(tok, engine, opts...), nil
}

// Engine returns the analyzer's score engine.
func (a *Analyzer) Engine() *score.Engine {
	return a.engine
}

// sentence is one segmented sentence with its own tokens.
type sentence struct {
	text   string
	tokens []tokenizer.Token
}

// split segments text into sentences.
func (a *Analyzer) split(ctx context.Context, text string) ([]sentence, error) {
	if a.maxBytes > 0 && len(text) > a.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(text), a.maxBytes)
	}
	var out []sentence
	for _, block := range normalize.Blocks(text) {
		tokens, err := a.tok.Tokenize(ctx, normalize.Preprocess(block))
		if err != nil {
			return nil, fmt.Errorf("sentiment: tokenize: %w", err)
		}
		for _, s := range tokenizer.Split(tokens) {
			out = append(out, sentence{text: tokenizer.Text(s), tokens: s})
		}
	}
	return out, nil
}

// Sentences splits text into sentences: blocks between escaped newlines
// are preprocessed, tokenized and cut after EOS marks. Real line breaks do
// not end a sentence.
func (a *Analyzer) Sentences(ctx context.Context, text string) ([]string, error) {
	sents, err := a.split(ctx, text)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(sents))
	for i, s := range sents {
		out[i] = s.text
	}
	return out, nil
}

// ScoreSentence tokenizes and scores one sentence. The sentence is not
// preprocessed or split.
func (a *Analyzer) ScoreSentence(ctx context.Context, s string) (float64, error) {
	tokens, err := a.tok.Tokenize(ctx, s)
	if err != nil {
		return 0, fmt.Errorf("sentiment: tokenize: %w", err)
	}
	return a.score(ctx, sentence{text: s, tokens: tokens})
}

func (a *Analyzer) score(ctx context.Context, s sentence) (float64, error) {
	v, err := a.engine.Compute(s.tokens, a.chunks(ctx, s))
	if err != nil {
		return 0, fmt.Errorf("sentiment: sentence %q: %w", s.text, err)
	}
	return v, nil
}

// chunks returns the chunk provider for s. When the chunker segments the
// sentence differently from the tokenizer, the sentence is scored without
// chunks and its reversals are skipped.
func (a *Analyzer) chunks(ctx context.Context, s sentence) score.ChunkProvider {
	provide := score.FromChunker(ctx, a.chunk, s.text, s.tokens)
	return func() (*chunker.Graph, error) {
		g, err := provide()
		if a.mismatch(s, err) {
			return nil, nil
		}
		return g, err
	}
}

// mismatch reports whether err is a token mismatch, logging it if so.
func (a *Analyzer) mismatch(s sentence, err error) bool {
	if !errors.Is(err, chunker.ErrTokenMismatch) {
		return false
	}
	a.logger.Warn("chunker tokens differ, reversal skipped",
		zap.String("sentence", s.text),
		zap.Error(err),
	)
	return true
}

// ScorePairs returns every sentence of text with its score, in document
// order.
func (a *Analyzer) ScorePairs(ctx context.Context, text string) ([]Pair, error) {
	start := time.Now()
	sents, err := a.split(ctx, text)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, len(sents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, s := range sents {
		g.Go(func() error {
			v, err := a.score(gctx, s)
			if err != nil {
				return err
			}
			pairs[i] = Pair{Sentence: s.text, Score: v, Sentiment: Classify(v)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Debug("scored document",
		zap.Int("bytes", len(text)),
		zap.Int("sentences", len(pairs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return pairs, nil
}

// ScoreDocument returns the mean sentence score of text rounded to two
// decimals. Returns ErrNoSentences when text has no sentences.
func (a *Analyzer) ScoreDocument(ctx context.Context, text string) (float64, error) {
	r, err := a.Analyze(ctx, text)
	if err != nil {
		return 0, err
	}
	return r.Score, nil
}

// Analyze scores text and summarizes the sentence polarities.
// Returns ErrNoSentences when text has no sentences.
func (a *Analyzer) Analyze(ctx context.Context, text string) (Result, error) {
	pairs, err := a.ScorePairs(ctx, text)
	if err != nil {
		return Result{}, err
	}
	if len(pairs) == 0 {
		return Result{}, ErrNoSentences
	}

	r := Result{Sentences: pairs, Total: len(pairs)}
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		scores[i] = p.Score
		switch p.Sentiment {
		case Positive:
			r.Positive++
		case Negative:
			r.Negative++
		}
	}
	r.Score = floats.Round(stat.Mean(scores, nil), precision)
	r.Sentiment = Classify(r.Score)
	return r, nil
}

// SentiTokenize tokenizes a sentence and buckets its distinct lowercased
// base forms by lexicon polarity. Symbols and words without a base form
// are skipped.
func (a *Analyzer) SentiTokenize(ctx context.Context, s string) (Buckets, error) {
	tokens, err := a.tok.Tokenize(ctx, s)
	if err != nil {
		return Buckets{}, fmt.Errorf("sentiment: tokenize: %w", err)
	}

	lex := a.engine.Lexicon()
	var b Buckets
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if t.POS == tokenizer.SYM || t.BaseForm == jakey.Placeholder {
			continue
		}
		w := t.Key()
		if seen[w] {
			continue
		}
		seen[w] = true
		switch p := lex.Polarity(w); {
		case p > 0:
			b.Positive = append(b.Positive, w)
		case p < 0:
			b.Negative = append(b.Negative, w)
		default:
			b.Neutral = append(b.Neutral, w)
		}
	}
	return b, nil
}
