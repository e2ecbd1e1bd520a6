//go:build ignore

// e2e_pipeline runs every jpsa module against the kagome tokenizer and the
// embedded dictionaries and writes structured results to
// data/e2e_pipeline.log. Run from the project root:
//
//	go run e2e/e2e_pipeline.go
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jpsa-nlp/jpsa/chunker"
	"github.com/jpsa-nlp/jpsa/data"
	"github.com/jpsa-nlp/jpsa/internal/config"
	"github.com/jpsa-nlp/jpsa/lexicon"
	"github.com/jpsa-nlp/jpsa/normalize"
	"github.com/jpsa-nlp/jpsa/score"
	"github.com/jpsa-nlp/jpsa/sentiment"
	"github.com/jpsa-nlp/jpsa/server"
	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// ---------- constants ----------

const (
	logPath       = "data/e2e_pipeline.log"
	maxDetailLen  = 200
	concWorkers   = 8
	concIter      = 20
	separator     = "=========================================================="
	demoSentences = 8
)

// ---------- test corpus ----------

const textNegated = "天気がよくない。"

const textPlain = "天気がよい。"

const textMixed = "今日は楽しい。\\n明日は雨で気が重い。"

// ---------- types ----------

type testResult struct {
	name     string
	module   string
	passed   bool
	duration time.Duration
	detail   string
}

type moduleReport struct {
	name     string
	tests    int
	passed   int
	failed   int
	duration time.Duration
}

// env is shared by all suites.
type env struct {
	ctx      context.Context
	kagome   *tokenizer.Kagome
	lex      *lexicon.Lexicon
	engine   *score.Engine
	analyzer *sentiment.Analyzer
}

// ---------- helpers ----------

func pass(module, name string, start time.Time) testResult {
	return testResult{name: name, module: module, passed: true, duration: time.Since(start)}
}

func fail(module, name, detail string, start time.Time) testResult {
	return testResult{name: name, module: module, passed: false, duration: time.Since(start), detail: truncate(detail, maxDetailLen)}
}

func truncate(s string, maxRunes int) string {
	n := 0
	for i := range s {
		n++
		if n > maxRunes {
			return s[:i] + "..."
		}
	}
	return s
}

func safeRun(module, name string, fn func() testResult) (r testResult) {
	defer func() {
		if p := recover(); p != nil {
			r = fail(module, name, fmt.Sprintf("PANIC: %v", p), time.Now())
		}
	}()
	return fn()
}

// ---------- test suites ----------

func testNormalize(*env) []testResult {
	const mod = "normalize"
	var results []testResult

	results = append(results, safeRun(mod, "nfkc_lower_brackets", func() testResult {
		start := time.Now()
		got := normalize.Preprocess("【ＰＲ】ＡＢＣ　セール")
		if want := " pr abc セール"; got != want {
			return fail(mod, "nfkc_lower_brackets", fmt.Sprintf("got %q, want %q", got, want), start)
		}
		return pass(mod, "nfkc_lower_brackets", start)
	}))

	results = append(results, safeRun(mod, "blocks_escaped_newline", func() testResult {
		start := time.Now()
		blocks := normalize.Blocks(textMixed)
		if len(blocks) != 2 {
			return fail(mod, "blocks_escaped_newline", fmt.Sprintf("got %d blocks, want 2: %q", len(blocks), blocks), start)
		}
		return pass(mod, "blocks_escaped_newline", start)
	}))

	return results
}

func testTokenizer(e *env) []testResult {
	const mod = "tokenizer"
	var results []testResult

	results = append(results, safeRun(mod, "kagome_base_forms", func() testResult {
		start := time.Now()
		tokens, err := e.kagome.Tokenize(e.ctx, textNegated)
		if err != nil {
			return fail(mod, "kagome_base_forms", err.Error(), start)
		}
		var keys []string
		for _, t := range tokens {
			keys = append(keys, t.Key())
		}
		joined := strings.Join(keys, " ")
		if !strings.Contains(joined, "よい") || !strings.Contains(joined, "ない") {
			return fail(mod, "kagome_base_forms", "missing よい or ない in "+joined, start)
		}
		return pass(mod, "kagome_base_forms", start)
	}))

	results = append(results, safeRun(mod, "surface_reconstruction", func() testResult {
		start := time.Now()
		tokens, err := e.kagome.Tokenize(e.ctx, textNegated)
		if err != nil {
			return fail(mod, "surface_reconstruction", err.Error(), start)
		}
		if got := tokenizer.Text(tokens); got != textNegated {
			return fail(mod, "surface_reconstruction", fmt.Sprintf("got %q", got), start)
		}
		return pass(mod, "surface_reconstruction", start)
	}))

	results = append(results, safeRun(mod, "split_reindexes", func() testResult {
		start := time.Now()
		tokens, err := e.kagome.Tokenize(e.ctx, textPlain+textNegated)
		if err != nil {
			return fail(mod, "split_reindexes", err.Error(), start)
		}
		sents := tokenizer.Split(tokens)
		if len(sents) != 2 {
			return fail(mod, "split_reindexes", fmt.Sprintf("got %d sentences, want 2", len(sents)), start)
		}
		for _, s := range sents {
			for i, t := range s {
				if t.Index != i {
					return fail(mod, "split_reindexes", fmt.Sprintf("token %v at %d", t, i), start)
				}
			}
		}
		return pass(mod, "split_reindexes", start)
	}))

	return results
}

func testChunker(e *env) []testResult {
	const mod = "chunker"
	var results []testResult

	results = append(results, safeRun(mod, "bunsetsu_valid_graph", func() testResult {
		start := time.Now()
		tokens, err := e.kagome.Tokenize(e.ctx, data.DemoText)
		if err != nil {
			return fail(mod, "bunsetsu_valid_graph", err.Error(), start)
		}
		for _, s := range tokenizer.Split(tokens) {
			chunks, err := chunker.Bunsetsu{}.Chunk(e.ctx, tokenizer.Text(s), s)
			if err != nil {
				return fail(mod, "bunsetsu_valid_graph", err.Error(), start)
			}
			if err := chunker.NewGraph(chunks).Validate(len(s)); err != nil {
				return fail(mod, "bunsetsu_valid_graph", fmt.Sprintf("%s: %v", tokenizer.Text(s), err), start)
			}
		}
		return pass(mod, "bunsetsu_valid_graph", start)
	}))

	results = append(results, safeRun(mod, "lattice_roundtrip", func() testResult {
		start := time.Now()
		tokens, err := e.kagome.Tokenize(e.ctx, textNegated)
		if err != nil {
			return fail(mod, "lattice_roundtrip", err.Error(), start)
		}
		sent := chunker.Sentence{Tokens: tokens, Chunks: chunker.Group(tokens)}
		var b bytes.Buffer
		if err := chunker.WriteLattice(&b, sent); err != nil {
			return fail(mod, "lattice_roundtrip", err.Error(), start)
		}
		back, err := chunker.ReadLattice(&b)
		if err != nil {
			return fail(mod, "lattice_roundtrip", err.Error(), start)
		}
		if len(back) != 1 || back[0].Text() != textNegated || len(back[0].Chunks) != len(sent.Chunks) {
			return fail(mod, "lattice_roundtrip", fmt.Sprintf("read back %+v", back), start)
		}
		return pass(mod, "lattice_roundtrip", start)
	}))

	results = append(results, safeRun(mod, "write_tree", func() testResult {
		start := time.Now()
		tokens, err := e.kagome.Tokenize(e.ctx, textNegated)
		if err != nil {
			return fail(mod, "write_tree", err.Error(), start)
		}
		var b strings.Builder
		if err := chunker.WriteTree(&b, tokens, chunker.Group(tokens)); err != nil {
			return fail(mod, "write_tree", err.Error(), start)
		}
		if !strings.Contains(b.String(), "天気が") {
			return fail(mod, "write_tree", b.String(), start)
		}
		return pass(mod, "write_tree", start)
	}))

	return results
}

func testLexicon(e *env) []testResult {
	const mod = "lexicon"
	var results []testResult

	results = append(results, safeRun(mod, "default_polarities", func() testResult {
		start := time.Now()
		if e.lex.Polarity("よい") != lexicon.Positive {
			return fail(mod, "default_polarities", "よい is not positive", start)
		}
		if _, ok := e.lex.Lookup("だ"); ok {
			return fail(mod, "default_polarities", "excluded key だ present", start)
		}
		return pass(mod, "default_polarities", start)
	}))

	results = append(results, safeRun(mod, "tsv_roundtrip", func() testResult {
		start := time.Now()
		var b strings.Builder
		if _, err := e.lex.WriteTo(&b); err != nil {
			return fail(mod, "tsv_roundtrip", err.Error(), start)
		}
		back, err := lexicon.Load(lexicon.StringSource(lexicon.FormatTSV, b.String()))
		if err != nil {
			return fail(mod, "tsv_roundtrip", err.Error(), start)
		}
		if back.Len() != e.lex.Len() {
			return fail(mod, "tsv_roundtrip", fmt.Sprintf("%d entries, want %d", back.Len(), e.lex.Len()), start)
		}
		return pass(mod, "tsv_roundtrip", start)
	}))

	return results
}

func testScore(e *env) []testResult {
	const mod = "score"
	var results []testResult

	results = append(results, safeRun(mod, "own_reversal", func() testResult {
		start := time.Now()
		tokens, err := e.kagome.Tokenize(e.ctx, textNegated)
		if err != nil {
			return fail(mod, "own_reversal", err.Error(), start)
		}
		got, err := e.engine.Compute(tokens, score.FromChunker(e.ctx, chunker.Bunsetsu{}, textNegated, tokens))
		if err != nil {
			return fail(mod, "own_reversal", err.Error(), start)
		}
		if got >= 0 {
			return fail(mod, "own_reversal", fmt.Sprintf("score %v, want negative", got), start)
		}
		return pass(mod, "own_reversal", start)
	}))

	results = append(results, safeRun(mod, "explain_matches_compute", func() testResult {
		start := time.Now()
		tokens, err := e.kagome.Tokenize(e.ctx, textNegated)
		if err != nil {
			return fail(mod, "explain_matches_compute", err.Error(), start)
		}
		g := chunker.NewGraph(chunker.Group(tokens))
		v, err := e.engine.Compute(tokens, score.Static(g))
		if err != nil {
			return fail(mod, "explain_matches_compute", err.Error(), start)
		}
		tr, err := e.engine.Explain(tokens, score.Static(g))
		if err != nil {
			return fail(mod, "explain_matches_compute", err.Error(), start)
		}
		if tr.Score != v || tr.Skipped() != 0 {
			return fail(mod, "explain_matches_compute", fmt.Sprintf("trace %+v, compute %v", tr, v), start)
		}
		return pass(mod, "explain_matches_compute", start)
	}))

	return results
}

func testSentiment(e *env) []testResult {
	const mod = "sentiment"
	var results []testResult

	results = append(results, safeRun(mod, "demo_text_sentences", func() testResult {
		start := time.Now()
		sents, err := e.analyzer.Sentences(e.ctx, data.DemoText)
		if err != nil {
			return fail(mod, "demo_text_sentences", err.Error(), start)
		}
		if len(sents) != demoSentences {
			return fail(mod, "demo_text_sentences", fmt.Sprintf("got %d, want %d: %q", len(sents), demoSentences, sents), start)
		}
		return pass(mod, "demo_text_sentences", start)
	}))

	results = append(results, safeRun(mod, "analyze_range", func() testResult {
		start := time.Now()
		r, err := e.analyzer.Analyze(e.ctx, data.DemoText)
		if err != nil {
			return fail(mod, "analyze_range", err.Error(), start)
		}
		if r.Score < -1 || r.Score > 1 || r.Total != demoSentences {
			return fail(mod, "analyze_range", r.String(), start)
		}
		return pass(mod, "analyze_range", start)
	}))

	results = append(results, safeRun(mod, "mixed_polarity_pairs", func() testResult {
		start := time.Now()
		pairs, err := e.analyzer.ScorePairs(e.ctx, textMixed)
		if err != nil {
			return fail(mod, "mixed_polarity_pairs", err.Error(), start)
		}
		if len(pairs) != 2 || pairs[0].Sentiment != sentiment.Positive || pairs[1].Sentiment != sentiment.Negative {
			return fail(mod, "mixed_polarity_pairs", fmt.Sprintf("%+v", pairs), start)
		}
		return pass(mod, "mixed_polarity_pairs", start)
	}))

	results = append(results, safeRun(mod, "senti_tokenize", func() testResult {
		start := time.Now()
		b, err := e.analyzer.SentiTokenize(e.ctx, textPlain)
		if err != nil {
			return fail(mod, "senti_tokenize", err.Error(), start)
		}
		if len(b.Positive) != 1 || b.Positive[0] != "よい" {
			return fail(mod, "senti_tokenize", fmt.Sprintf("%+v", b), start)
		}
		return pass(mod, "senti_tokenize", start)
	}))

	return results
}

func testServer(e *env) []testResult {
	const mod = "server"
	var results []testResult
	app := server.New(e.analyzer).App()

	results = append(results, safeRun(mod, "health", func() testResult {
		start := time.Now()
		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
		if err != nil {
			return fail(mod, "health", err.Error(), start)
		}
		defer resp.Body.Close()
		if resp.StatusCode != 200 {
			return fail(mod, "health", fmt.Sprintf("status %d", resp.StatusCode), start)
		}
		return pass(mod, "health", start)
	}))

	results = append(results, safeRun(mod, "score_endpoint", func() testResult {
		start := time.Now()
		req := httptest.NewRequest("POST", "/v1/score", strings.NewReader(`{"text":"`+textNegated+`"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		if err != nil {
			return fail(mod, "score_endpoint", err.Error(), start)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		var got struct {
			Score     float64 `json:"score"`
			RequestID string  `json:"request_id"`
		}
		if err := json.Unmarshal(body, &got); err != nil || resp.StatusCode != 200 {
			return fail(mod, "score_endpoint", fmt.Sprintf("status %d body %s", resp.StatusCode, body), start)
		}
		if got.Score >= 0 || got.RequestID == "" {
			return fail(mod, "score_endpoint", string(body), start)
		}
		return pass(mod, "score_endpoint", start)
	}))

	return results
}

func testConcurrent(e *env) []testResult {
	const mod = "concurrent"
	var results []testResult

	results = append(results, safeRun(mod, "analyzer_8_goroutines", func() testResult {
		start := time.Now()
		want, err := e.analyzer.ScoreDocument(e.ctx, data.DemoText)
		if err != nil {
			return fail(mod, "analyzer_8_goroutines", err.Error(), start)
		}
		var panics, mismatches atomic.Int64
		var wg sync.WaitGroup
		for range concWorkers {
			wg.Go(func() {
				for range concIter {
					func() {
						defer func() {
							if p := recover(); p != nil {
								panics.Add(1)
							}
						}()
						got, err := e.analyzer.ScoreDocument(e.ctx, data.DemoText)
						if err != nil || got != want {
							mismatches.Add(1)
						}
					}()
				}
			})
		}
		wg.Wait()

		if n := panics.Load(); n > 0 {
			return fail(mod, "analyzer_8_goroutines", fmt.Sprintf("%d panics detected across goroutines", n), start)
		}
		if n := mismatches.Load(); n > 0 {
			return fail(mod, "analyzer_8_goroutines", fmt.Sprintf("%d results differ from %v", n, want), start)
		}
		return pass(mod, "analyzer_8_goroutines", start)
	}))

	return results
}

func runAllSuites(e *env) []testResult {
	suites := []func(*env) []testResult{
		testNormalize,
		testTokenizer,
		testChunker,
		testLexicon,
		testScore,
		testSentiment,
		testServer,
		testConcurrent,
	}

	var all []testResult
	for _, suite := range suites {
		all = append(all, suite(e)...)
	}
	return all
}

func buildReports(results []testResult) []moduleReport {
	order := make(map[string]int)
	var reports []moduleReport

	for _, r := range results {
		idx, exists := order[r.module]
		if !exists {
			idx = len(reports)
			order[r.module] = idx
			reports = append(reports, moduleReport{name: r.module})
		}
		reports[idx].tests++
		reports[idx].duration += r.duration
		if r.passed {
			reports[idx].passed++
		} else {
			reports[idx].failed++
		}
	}
	return reports
}

func writeLog(path string, results []testResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)

	reports := buildReports(results)
	fmt.Fprintln(bw, separator)
	fmt.Fprintln(bw, "  jpsa E2E Pipeline Test")
	fmt.Fprintf(bw, "  Timestamp: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(bw, "  Go: %s  OS: %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(bw, "  Modules: %d\n", len(reports))
	fmt.Fprintln(bw, separator)
	fmt.Fprintln(bw)

	var totalDuration time.Duration
	totalFailed := 0
	for _, rep := range reports {
		totalDuration += rep.duration
		totalFailed += rep.failed
		fmt.Fprintf(bw, "[%s] %d tests | %d passed | %d failed | %s\n",
			rep.name, rep.tests, rep.passed, rep.failed, rep.duration.Round(time.Microsecond))
		for _, r := range results {
			if r.module != rep.name {
				continue
			}
			status := "PASS"
			if !r.passed {
				status = "FAIL"
			}
			fmt.Fprintf(bw, "  %-6s %-45s %s\n", status, r.name, r.duration.Round(time.Microsecond))
			if r.detail != "" {
				for line := range strings.SplitSeq(r.detail, "\n") {
					fmt.Fprintf(bw, "         %s\n", line)
				}
			}
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, separator)
	fmt.Fprintf(bw, "  SUMMARY: %d tests | %d passed | %d failed | %s\n",
		len(results), len(results)-totalFailed, totalFailed, totalDuration.Round(time.Microsecond))
	fmt.Fprintln(bw, separator)

	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newEnv(ctx context.Context, logger *zap.Logger) (*env, error) {
	kagome, err := tokenizer.NewKagome()
	if err != nil {
		return nil, err
	}
	lex, err := lexicon.Default()
	if err != nil {
		return nil, err
	}
	engine, err := score.New(lex, score.WithLogger(logger.Named("score")))
	if err != nil {
		return nil, err
	}
	a := sentiment.New(kagome, engine, sentiment.WithWorkers(4), sentiment.WithLogger(logger.Named("sentiment")))
	return &env{ctx: ctx, kagome: kagome, lex: lex, engine: engine, analyzer: a}, nil
}

func main() {
	logger, err := config.NewLogger(config.AppConfig{Env: config.Development, LogLevel: "info"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: %v\n", err)
		os.Exit(1)
	}
	log := logger.Named("e2e").Sugar()

	totalStart := time.Now()
	e, err := newEnv(context.Background(), logger)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	results := runAllSuites(e)
	log.Infof("completed in %s", time.Since(totalStart).Round(time.Microsecond))

	failed := 0
	for _, rep := range buildReports(results) {
		status := "OK"
		if rep.failed > 0 {
			status = "FAIL"
		}
		failed += rep.failed
		log.Infof("  %-12s %d/%d %s", rep.name, rep.passed, rep.tests, status)
	}
	for _, r := range results {
		if !r.passed {
			log.Errorf("FAIL [%s] %s: %s", r.module, r.name, r.detail)
		}
	}

	if err := writeLog(logPath, results); err != nil {
		log.Fatalf("cannot write log: %v", err)
	}
	log.Infof("log written to %s", logPath)

	if failed > 0 {
		_ = logger.Sync()
		os.Exit(1)
	}
}
