// Command corpusscore scores every .txt file under a directory.
//
//	go run ./cmd/corpusscore -jobs 4 ./corpus
//
// Each file is one document. Per-file scores go to stdout as
// "path<TAB>score<TAB>sentiment<TAB>sentences", sorted by path; progress
// and the summary go to stderr. Settings come from the environment (see
// internal/config); file size is not limited.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/jpsa-nlp/jpsa/internal/config"
	"github.com/jpsa-nlp/jpsa/sentiment"
)

const defaultJobs = 4

type fileScore struct {
	path    string
	bytes   int
	result  sentiment.Result
	err     error
	elapsed time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "corpusscore: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("corpusscore", flag.ContinueOnError)
	flags.SetOutput(stderr)
	jobs := flags.Int("jobs", defaultJobs, "files scored concurrently")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: corpusscore [-jobs n] <directory>\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return errors.New("expected one directory")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Analyzer.MaxInputBytes = 0
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

	paths, err := findFiles(flags.Arg(0))
	if err != nil {
		return err
	}
	logger.Info("found files", zap.Int("count", len(paths)), zap.String("dir", flags.Arg(0)))

	start := time.Now()
	scores, err := scoreFiles(ctx, a, paths, *jobs, logger)
	if err != nil {
		return err
	}
	writeScores(stdout, scores)
	writeSummary(stderr, scores, time.Since(start))
	return nil
}

// findFiles returns the .txt files under dir in lexical order.
func findFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".txt") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return paths, nil
}

// scoreFiles analyzes paths with at most jobs files in flight. Per-file
// failures are recorded in the result; only cancellation aborts the run.
func scoreFiles(ctx context.Context, a *sentiment.Analyzer, paths []string, jobs int, logger *zap.Logger) ([]fileScore, error) {
	scores := make([]fileScore, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = scoreFile(gctx, a, path)
			if res := scores[i]; res.err != nil {
				logger.Warn("file failed", zap.String("path", path), zap.Error(res.err))
			} else {
				logger.Debug("file scored",
					zap.String("path", path),
					zap.Int("bytes", res.bytes),
					zap.Float64("score", res.result.Score),
					zap.Duration("elapsed", res.elapsed),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

func scoreFile(ctx context.Context, a *sentiment.Analyzer, path string) fileScore {
	start := time.Now()
	res := fileScore{path: path}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		res.err = err
		return res
	}
	res.bytes = len(data)
	res.result, res.err = a.Analyze(ctx, string(data))
	res.elapsed = time.Since(start)
	return res
}

func writeScores(w io.Writer, scores []fileScore) {
	for _, res := range scores {
		if res.err != nil {
			fmt.Fprintf(w, "%s\terror\t%v\n", res.path, res.err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%d\n", res.path, res.result.Score, res.result.Sentiment, res.result.Total)
	}
}

// summary aggregates the scored files.
type summary struct {
	files, failed               int
	positive, neutral, negative int
	sentences                   int
	mean, stdDev                float64
}

func summarize(scores []fileScore) summary {
	var s summary
	values := make([]float64, 0, len(scores))
	for _, res := range scores {
		s.files++
		if res.err != nil {
			s.failed++
			continue
		}
		values = append(values, res.result.Score)
		s.sentences += res.result.Total
		switch res.result.Sentiment {
		case sentiment.Positive:
			s.positive++
		case sentiment.Negative:
			s.negative++
		default:
			s.neutral++
		}
	}
	switch len(values) {
	case 0:
	case 1:
		s.mean = values[0]
	default:
		s.mean, s.stdDev = stat.MeanStdDev(values, nil)
	}
	return s
}

func writeSummary(w io.Writer, scores []fileScore, elapsed time.Duration) {
	s := summarize(scores)
	fmt.Fprintf(w, "\nCompleted in %s\n\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Files:     %d (%d failed)\n", s.files, s.failed)
	fmt.Fprintf(w, "Sentences: %d\n", s.sentences)
	fmt.Fprintf(w, "Positive:  %d\n", s.positive)
	fmt.Fprintf(w, "Neutral:   %d\n", s.neutral)
	fmt.Fprintf(w, "Negative:  %d\n", s.negative)
	fmt.Fprintf(w, "Mean:      %.3f (stddev %.3f)\n", s.mean, s.stdDev)
}
