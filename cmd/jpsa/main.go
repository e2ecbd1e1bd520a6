// Command jpsa scores the sentiment polarity of Japanese text.
//
//	jpsa -text "天気がよくない。"
//	jpsa -file review.txt -pairs
//	echo "楽しい。" | jpsa -json
//	jpsa -explain -text "わけにはいかない。"
//	jpsa -serve -addr :8080
//
// With no -text, -file or piped input a short demo text is scored.
// Settings come from the environment and .env (see internal/config);
// flags override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jpsa-nlp/jpsa/chunker"
	"github.com/jpsa-nlp/jpsa/data"
	"github.com/jpsa-nlp/jpsa/internal/config"
	"github.com/jpsa-nlp/jpsa/sentiment"
	"github.com/jpsa-nlp/jpsa/server"
)

const shutdownTimeout = 10 * time.Second

// options are the output switches.
type options struct {
	pairs   bool
	json    bool
	explain bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "jpsa: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := flag.NewFlagSet("jpsa", flag.ContinueOnError)
	flags.SetOutput(stderr)
	text := flags.String("text", "", "text to score")
	file := flags.String("file", "", "file to score, or - for stdin")
	var opts options
	flags.BoolVar(&opts.pairs, "pairs", false, "print every sentence with its score")
	flags.BoolVar(&opts.json, "json", false, "print JSON")
	flags.BoolVar(&opts.explain, "explain", false, "print chunks and the score trace of every sentence")
	serve := flags.Bool("serve", false, "serve the HTTP API instead of scoring")
	flags.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "HTTP listen address for -serve")
	flags.StringVar(&cfg.Tokenizer.Kind, "tokenizer", cfg.Tokenizer.Kind, "tokenizer backend: kagome or cabocha")
	flags.IntVar(&cfg.Analyzer.Workers, "workers", cfg.Analyzer.Workers, "sentences scored concurrently")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %q", flags.Args())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := cfg.NewAnalyzer(logger)
	if err != nil {
		return err
	}

	if *serve {
		return listen(ctx, cfg, a, logger)
	}

	input, err := readInput(*text, *file, stdin)
	if err != nil {
		return err
	}
	return analyze(ctx, a, input, opts, stdout)
}

// readInput picks the text to score: -text, then -file, then piped stdin,
// then the demo text.
func readInput(text, file string, stdin io.Reader) (string, error) {
	switch {
	case text != "":
		return text, nil
	case file == "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	case file != "":
		b, err := os.ReadFile(file)
		return string(b), err
	}
	if f, ok := stdin.(*os.File); ok && isPipe(f) {
		b, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		if len(b) > 0 {
			return string(b), nil
		}
	}
	return data.DemoText, nil
}

func isPipe(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice == 0
}

func analyze(ctx context.Context, a *sentiment.Analyzer, input string, opts options, w io.Writer) error {
	switch {
	case opts.explain:
		exps, err := a.Explain(ctx, input)
		if err != nil {
			return err
		}
		if opts.json {
			return writeJSON(w, exps)
		}
		return writeExplanations(w, exps)

	case opts.pairs:
		pairs, err := a.ScorePairs(ctx, input)
		if err != nil {
			return err
		}
		if opts.json {
			if pairs == nil {
				pairs = []sentiment.Pair{}
			}
			return writeJSON(w, pairs)
		}
		for _, p := range pairs {
			if _, err := fmt.Fprintf(w, "%5.2f\t%s\n", p.Score, p.Sentence); err != nil {
				return err
			}
		}
		return nil

	default:
		r, err := a.Analyze(ctx, input)
		if err != nil {
			return err
		}
		if opts.json {
			return writeJSON(w, r)
		}
		_, err = fmt.Fprintf(w, "%.2f\n", r.Score)
		return err
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeExplanations(w io.Writer, exps []sentiment.Explanation) error {
	for i, e := range exps {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "# %s\n", e.Sentence); err != nil {
			return err
		}
		if err := chunker.WriteTree(w, e.Tokens, e.Chunks); err != nil {
			return err
		}
		if _, err := e.Trace.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// listen serves the HTTP API until ctx is canceled, then drains
// in-flight requests.
func listen(ctx context.Context, cfg *config.Config, a *sentiment.Analyzer, logger *zap.Logger) error {
	srv := server.New(a,
		server.WithLogger(logger.Named("http")),
		server.WithBodyLimit(server.BodyLimit(cfg.Analyzer.MaxInputBytes)),
	)

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(cfg.Server.Addr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
