package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jpsa-nlp/jpsa/chunker"
	"github.com/jpsa-nlp/jpsa/lexicon"
)

var envKeys = []string{
	"JPSA_ENV", "JPSA_LOG_LEVEL", "JPSA_WAGO_DICT", "JPSA_PN_DICT",
	"JPSA_LEXICON_TSV", "JPSA_RULES_FILE", "JPSA_TOKENIZER",
	"JPSA_CABOCHA_PATH", "JPSA_WORKERS", "JPSA_HTTP_ADDR",
	"JPSA_MAX_INPUT_BYTES",
}

// clearEnv blanks every setting so the host environment cannot leak in.
// An empty value counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Env != Development || cfg.App.LogLevel != "debug" {
		t.Errorf("App = %+v, want development/debug", cfg.App)
	}
	if cfg.Tokenizer.Kind != TokenizerKagome || cfg.Tokenizer.CabochaPath != "cabocha" {
		t.Errorf("Tokenizer = %+v", cfg.Tokenizer)
	}
	if cfg.Analyzer.Workers < 1 || cfg.Analyzer.Workers > 8 {
		t.Errorf("Workers = %d, want 1..8", cfg.Analyzer.Workers)
	}
	if cfg.Analyzer.MaxInputBytes != 1<<20 {
		t.Errorf("MaxInputBytes = %d", cfg.Analyzer.MaxInputBytes)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Lexicon != (LexiconConfig{}) {
		t.Errorf("Lexicon = %+v, want zero", cfg.Lexicon)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("JPSA_ENV", "PRODUCTION")
	t.Setenv("JPSA_TOKENIZER", "CaboCha")
	t.Setenv("JPSA_CABOCHA_PATH", "/opt/cabocha/bin/cabocha")
	t.Setenv("JPSA_WORKERS", " 4 ")
	t.Setenv("JPSA_MAX_INPUT_BYTES", "0")
	t.Setenv("JPSA_RULES_FILE", "rules.yaml")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Env != Production || cfg.App.LogLevel != "info" {
		t.Errorf("App = %+v, want production/info", cfg.App)
	}
	if cfg.Tokenizer.Kind != TokenizerCabocha || cfg.Tokenizer.CabochaPath != "/opt/cabocha/bin/cabocha" {
		t.Errorf("Tokenizer = %+v", cfg.Tokenizer)
	}
	if cfg.Analyzer.Workers != 4 || cfg.Analyzer.MaxInputBytes != 0 {
		t.Errorf("Analyzer = %+v", cfg.Analyzer)
	}
	if cfg.Lexicon.RulesFile != "rules.yaml" {
		t.Errorf("RulesFile = %q", cfg.Lexicon.RulesFile)
	}
}

func TestLoadUnknownEnvironmentFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("JPSA_ENV", "staging")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Env != Development {
		t.Errorf("Env = %q, want development", cfg.App.Env)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, ".env", strings.Join([]string{
		"# local overrides",
		"JPSA_WORKERS=3",
		"JPSA_HTTP_ADDR=:9000",
		"JPSA_LOG_LEVEL=warn",
	}, "\n"))
	t.Setenv("JPSA_HTTP_ADDR", ":7000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analyzer.Workers != 3 {
		t.Errorf("Workers = %d, want 3 from file", cfg.Analyzer.Workers)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q, want environment to win over file", cfg.Server.Addr)
	}
	if cfg.App.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.App.LogLevel)
	}
	if v := os.Getenv("JPSA_WORKERS"); v != "" {
		t.Errorf("env file leaked into process environment: JPSA_WORKERS=%q", v)
	}
}

func TestLoadInvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("JPSA_WORKERS", "many")
	t.Setenv("JPSA_MAX_INPUT_BYTES", "1MB")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatal("Load: want error")
	}
	for _, key := range []string{"JPSA_WORKERS", "JPSA_MAX_INPUT_BYTES"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func validConfig() Config {
	return Config{
		App:       AppConfig{Env: Development, LogLevel: "info"},
		Tokenizer: TokenizerConfig{Kind: TokenizerKagome, CabochaPath: "cabocha"},
		Analyzer:  AnalyzerConfig{Workers: 2, MaxInputBytes: 1024},
		Server:    ServerConfig{Addr: ":8080"},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "cabocha", modify: func(c *Config) { c.Tokenizer.Kind = TokenizerCabocha }},
		{name: "unlimited input", modify: func(c *Config) { c.Analyzer.MaxInputBytes = 0 }},
		{name: "wago and pn", modify: func(c *Config) { c.Lexicon.WagoDict, c.Lexicon.PNDict = "w", "p" }},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.App.LogLevel = "verbose" },
			wantErr: "JPSA_LOG_LEVEL",
		},
		{
			name:    "unknown tokenizer",
			modify:  func(c *Config) { c.Tokenizer.Kind = "mecab" },
			wantErr: "JPSA_TOKENIZER",
		},
		{
			name: "cabocha without path",
			modify: func(c *Config) {
				c.Tokenizer.Kind = TokenizerCabocha
				c.Tokenizer.CabochaPath = ""
			},
			wantErr: "JPSA_CABOCHA_PATH",
		},
		{
			name:    "zero workers",
			modify:  func(c *Config) { c.Analyzer.Workers = 0 },
			wantErr: "JPSA_WORKERS",
		},
		{
			name:    "negative max input",
			modify:  func(c *Config) { c.Analyzer.MaxInputBytes = -1 },
			wantErr: "JPSA_MAX_INPUT_BYTES",
		},
		{
			name:    "tsv with dictionaries",
			modify:  func(c *Config) { c.Lexicon.TSV, c.Lexicon.PNDict = "lex.tsv", "pn.tsv" },
			wantErr: "JPSA_LEXICON_TSV",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Analyzer.Workers = 0
	cfg.Tokenizer.Kind = "juman"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate: want error")
	}
	if msg := err.Error(); !strings.Contains(msg, "JPSA_WORKERS") || !strings.Contains(msg, "JPSA_TOKENIZER") {
		t.Errorf("Validate = %q, want both problems reported", msg)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		app       AppConfig
		wantDebug bool
		wantInfo  bool
	}{
		{name: "development debug", app: AppConfig{Env: Development, LogLevel: "debug"}, wantDebug: true, wantInfo: true},
		{name: "production info", app: AppConfig{Env: Production, LogLevel: "info"}, wantInfo: true},
		{name: "production error", app: AppConfig{Env: Production, LogLevel: "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger, err := NewLogger(tt.app)
			if err != nil {
				t.Fatalf("NewLogger: %v", err)
			}
			if got := logger.Core().Enabled(zap.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := logger.Core().Enabled(zap.InfoLevel); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestNewLoggerBadLevel(t *testing.T) {
	t.Parallel()

	if _, err := NewLogger(AppConfig{Env: Production, LogLevel: "loud"}); err == nil {
		t.Error("NewLogger: want error for unknown level")
	}
}

func TestLoadLexicon(t *testing.T) {
	t.Parallel()

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		var cfg Config
		got, err := cfg.LoadLexicon()
		if err != nil {
			t.Fatalf("LoadLexicon: %v", err)
		}
		want, err := lexicon.Default()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Error("LoadLexicon without files should return the shared default lexicon")
		}
	})

	t.Run("tsv", func(t *testing.T) {
		t.Parallel()
		cfg := Config{Lexicon: LexiconConfig{TSV: writeFile(t, "lex.tsv", "# merged\nよい\t1\n悪い\t-1\n")}}
		lex, err := cfg.LoadLexicon()
		if err != nil {
			t.Fatalf("LoadLexicon: %v", err)
		}
		if lex.Len() != 2 || lex.Polarity("悪い") != -1 {
			t.Errorf("lexicon = %v, 悪い = %d", lex, lex.Polarity("悪い"))
		}
	})

	t.Run("pn overrides wago", func(t *testing.T) {
		t.Parallel()
		cfg := Config{Lexicon: LexiconConfig{
			WagoDict: writeFile(t, "wago.pn", "ネガ（評価）\t理由\nポジ（評価）\tよい\n"),
			PNDict:   writeFile(t, "pn.tsv", "理由\tp\t客観\n"),
		}}
		lex, err := cfg.LoadLexicon()
		if err != nil {
			t.Fatalf("LoadLexicon: %v", err)
		}
		if got := lex.Polarity("理由"); got != 1 {
			t.Errorf("Polarity(理由) = %d, want 1", got)
		}
		if got := lex.Polarity("よい"); got != 1 {
			t.Errorf("Polarity(よい) = %d, want 1", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		cfg := Config{Lexicon: LexiconConfig{PNDict: filepath.Join(t.TempDir(), "nope.tsv")}}
		if _, err := cfg.LoadLexicon(); err == nil {
			t.Error("LoadLexicon: want error")
		}
	})
}

func TestLoadRules(t *testing.T) {
	t.Parallel()

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		var cfg Config
		rules, err := cfg.LoadRules()
		if err != nil {
			t.Fatalf("LoadRules: %v", err)
		}
		if rules.Len() != 6 {
			t.Errorf("Len = %d, want 6", rules.Len())
		}
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "rules.yaml", "single:\n  - base: ない\n    pos: AUX\n    scope: own\n")
		cfg := Config{Lexicon: LexiconConfig{RulesFile: path}}
		rules, err := cfg.LoadRules()
		if err != nil {
			t.Fatalf("LoadRules: %v", err)
		}
		if rules.Len() != 1 {
			t.Errorf("Len = %d, want 1", rules.Len())
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "rules.yaml", "single:\n  - base: ない\n    pos: AUX\n    scope: sideways\n")
		cfg := Config{Lexicon: LexiconConfig{RulesFile: path}}
		_, err := cfg.LoadRules()
		if err == nil || !strings.Contains(err.Error(), path) {
			t.Errorf("LoadRules = %v, want error naming %s", err, path)
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		cfg := Config{Lexicon: LexiconConfig{RulesFile: filepath.Join(t.TempDir(), "none.yaml")}}
		if _, err := cfg.LoadRules(); err == nil {
			t.Error("LoadRules: want error")
		}
	})
}

func TestBackendCabocha(t *testing.T) {
	t.Parallel()

	cfg := Config{Tokenizer: TokenizerConfig{Kind: TokenizerCabocha, CabochaPath: "/usr/local/bin/cabocha"}}
	tok, chunk, err := cfg.Backend()
	if err != nil {
		t.Fatalf("Backend: %v", err)
	}
	cmd, ok := tok.(*chunker.Command)
	if !ok {
		t.Fatalf("tokenizer = %T, want *chunker.Command", tok)
	}
	if cmd.Path != "/usr/local/bin/cabocha" {
		t.Errorf("Path = %q", cmd.Path)
	}
	if c, ok := chunk.(*chunker.Command); !ok || c != cmd {
		t.Errorf("chunker = %T, want the same command as the tokenizer", chunk)
	}
}

func TestBackendUnknown(t *testing.T) {
	t.Parallel()

	cfg := Config{Tokenizer: TokenizerConfig{Kind: "juman"}}
	if _, _, err := cfg.Backend(); err == nil {
		t.Error("Backend: want error")
	}
}

func TestNewAnalyzer(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Tokenizer.Kind = TokenizerCabocha
	a, err := cfg.NewAnalyzer(nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	if got := a.Engine().Rules().Len(); got != 6 {
		t.Errorf("rules = %d, want 6", got)
	}
	if a.Engine().Lexicon().Len() == 0 {
		t.Error("lexicon is empty")
	}
}

func TestNewAnalyzerPropagatesErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Tokenizer.Kind = TokenizerCabocha
	cfg.Lexicon.RulesFile = filepath.Join(t.TempDir(), "none.yaml")
	if _, err := cfg.NewAnalyzer(zap.NewNop()); err == nil {
		t.Error("NewAnalyzer: want error for missing rules file")
	}
}
