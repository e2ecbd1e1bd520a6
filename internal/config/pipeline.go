package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jpsa-nlp/jpsa/chunker"
	"github.com/jpsa-nlp/jpsa/lexicon"
	"github.com/jpsa-nlp/jpsa/score"
	"github.com/jpsa-nlp/jpsa/sentiment"
	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// LoadLexicon builds the polarity lexicon. A merged TSV wins; otherwise
// the wago and pn dictionaries are loaded in that order so pn entries
// override. With nothing configured the embedded sample lexicon is used.
func (c *Config) LoadLexicon() (*lexicon.Lexicon, error) {
	l := c.Lexicon
	if l.TSV != "" {
		return lexicon.Load(lexicon.FileSource(lexicon.FormatTSV, l.TSV))
	}

	var sources []lexicon.Source
	if l.WagoDict != "" {
		sources = append(sources, lexicon.FileSource(lexicon.FormatWago, l.WagoDict))
	}
	if l.PNDict != "" {
		sources = append(sources, lexicon.FileSource(lexicon.FormatPN, l.PNDict))
	}
	if len(sources) == 0 {
		return lexicon.Default()
	}
	return lexicon.Load(sources...)
}

// LoadRules reads the reversal rules file, or returns the built-in rules
// when none is configured.
func (c *Config) LoadRules() (score.Rules, error) {
	if c.Lexicon.RulesFile == "" {
		return score.DefaultRules()
	}
	f, err := os.Open(c.Lexicon.RulesFile)
	if err != nil {
		return score.Rules{}, fmt.Errorf("config: rules: %w", err)
	}
	defer f.Close()

	rules, err := score.LoadRules(f)
	if err != nil {
		return score.Rules{}, fmt.Errorf("config: rules %s: %w", c.Lexicon.RulesFile, err)
	}
	return rules, nil
}

// Backend returns the tokenizer and chunker for the configured backend.
// The cabocha backend serves both from one external parser run.
func (c *Config) Backend() (tokenizer.Tokenizer, chunker.Chunker, error) {
	switch c.Tokenizer.Kind {
	case TokenizerCabocha:
		cmd := &chunker.Command{Path: c.Tokenizer.CabochaPath}
		return cmd, cmd, nil
	case TokenizerKagome, "":
		tok, err := tokenizer.NewKagome()
		if err != nil {
			return nil, nil, err
		}
		return tok, chunker.Bunsetsu{}, nil
	default:
		return nil, nil, fmt.Errorf("config: unknown tokenizer %q", c.Tokenizer.Kind)
	}
}

// NewAnalyzer wires lexicon, rules, backend and limits into an Analyzer.
func (c *Config) NewAnalyzer(logger *zap.Logger) (*sentiment.Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	lex, err := c.LoadLexicon()
	if err != nil {
		return nil, err
	}
	rules, err := c.LoadRules()
	if err != nil {
		return nil, err
	}
	engine, err := score.New(lex, score.WithRules(rules), score.WithLogger(logger.Named("score")))
	if err != nil {
		return nil, err
	}
	tok, chunk, err := c.Backend()
	if err != nil {
		return nil, err
	}

	logger.Info("analyzer ready",
		zap.Int("lexicon_entries", lex.Len()),
		zap.Int("rules", rules.Len()),
		zap.String("tokenizer", c.Tokenizer.Kind),
		zap.Int("workers", c.Analyzer.Workers),
	)

	return sentiment.New(tok, engine,
		sentiment.WithChunker(chunk),
		sentiment.WithWorkers(c.Analyzer.Workers),
		sentiment.WithMaxInputBytes(c.Analyzer.MaxInputBytes),
		sentiment.WithLogger(logger.Named("sentiment")),
	), nil
}
