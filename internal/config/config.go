// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Tokenizer backends.
const (
	TokenizerKagome  = "kagome"
	TokenizerCabocha = "cabocha"
)

type AppConfig struct {
	Env      Environment
	LogLevel string
}

type LexiconConfig struct {
	WagoDict  string // declarative-verb dictionary (wago format)
	PNDict    string // noun dictionary (pn format)
	TSV       string // merged key\tpolarity file; replaces the two above
	RulesFile string // reversal rules YAML
}

type TokenizerConfig struct {
	Kind        string
	CabochaPath string
}

type AnalyzerConfig struct {
	Workers       int
	MaxInputBytes int
}

type ServerConfig struct {
	Addr string
}

type Config struct {
	App       AppConfig
	Lexicon   LexiconConfig
	Tokenizer TokenizerConfig
	Analyzer  AnalyzerConfig
	Server    ServerConfig
}

// Load reads settings from the process environment, falling back to the
// given env files (".env" when none are given) and then to defaults. A
// missing env file is not an error; a malformed number is.
func Load(files ...string) (*Config, error) {
	dotenv, err := godotenv.Read(files...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read env file: %w", err)
	}
	e := &env{file: dotenv}

	appEnv := parseEnvironment(e.get("JPSA_ENV", string(Development)))

	cfg := &Config{
		App: AppConfig{
			Env:      appEnv,
			LogLevel: e.get("JPSA_LOG_LEVEL", defaultLogLevel(appEnv)),
		},
		Lexicon: LexiconConfig{
			WagoDict:  e.get("JPSA_WAGO_DICT", ""),
			PNDict:    e.get("JPSA_PN_DICT", ""),
			TSV:       e.get("JPSA_LEXICON_TSV", ""),
			RulesFile: e.get("JPSA_RULES_FILE", ""),
		},
		Tokenizer: TokenizerConfig{
			Kind:        strings.ToLower(e.get("JPSA_TOKENIZER", TokenizerKagome)),
			CabochaPath: e.get("JPSA_CABOCHA_PATH", "cabocha"),
		},
		Analyzer: AnalyzerConfig{
			Workers:       e.getInt("JPSA_WORKERS", defaultWorkerCount()),
			MaxInputBytes: e.getInt("JPSA_MAX_INPUT_BYTES", 1<<20),
		},
		Server: ServerConfig{
			Addr: e.get("JPSA_HTTP_ADDR", ":8080"),
		},
	}
	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	var errs []error
	if _, err := zapcore.ParseLevel(c.App.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: JPSA_LOG_LEVEL: %w", err))
	}
	switch c.Tokenizer.Kind {
	case TokenizerKagome:
	case TokenizerCabocha:
		if c.Tokenizer.CabochaPath == "" {
			errs = append(errs, errors.New("config: JPSA_CABOCHA_PATH is required for the cabocha tokenizer"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: JPSA_TOKENIZER must be %q or %q, got %q",
			TokenizerKagome, TokenizerCabocha, c.Tokenizer.Kind))
	}
	if c.Analyzer.Workers < 1 {
		errs = append(errs, fmt.Errorf("config: JPSA_WORKERS must be at least 1, got %d", c.Analyzer.Workers))
	}
	if c.Analyzer.MaxInputBytes < 0 {
		errs = append(errs, fmt.Errorf("config: JPSA_MAX_INPUT_BYTES must not be negative, got %d", c.Analyzer.MaxInputBytes))
	}
	if c.Lexicon.TSV != "" && (c.Lexicon.WagoDict != "" || c.Lexicon.PNDict != "") {
		errs = append(errs, errors.New("config: JPSA_LEXICON_TSV cannot be combined with JPSA_WAGO_DICT or JPSA_PN_DICT"))
	}
	return errors.Join(errs...)
}

func parseEnvironment(envStr string) Environment {
	env := Environment(strings.ToLower(envStr))

	switch env {
	case Development, Production:
		return env
	default:
		return Development
	}
}

func defaultLogLevel(env Environment) string {
	if env == Production {
		return "info"
	}
	return "debug"
}

// defaultWorkerCount is one worker per CPU, at most 8.
func defaultWorkerCount() int {
	return min(max(runtime.NumCPU(), 1), 8) //nolint:mnd
}

// env looks keys up in the process environment, then in the env file.
type env struct {
	file map[string]string
	errs []error
}

func (e *env) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := e.file[key]; value != "" {
		return value
	}
	return defaultValue
}

func (e *env) getInt(key string, defaultValue int) int {
	value := e.get(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return defaultValue
	}
	return n
}
