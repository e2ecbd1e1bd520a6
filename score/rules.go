package score

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jpsa-nlp/jpsa/data"
	"github.com/jpsa-nlp/jpsa/internal/jakey"
	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// Scope selects the token range a reversal rule rewrites.
type Scope int

const (
	ScopeNone   Scope = iota // no reversal
	ScopeOwn                 // the chunk containing the trigger token
	ScopeSource              // the last chunk depending on that chunk
)

var scopeNames = [...]string{
	ScopeNone:   "none",
	ScopeOwn:    "own",
	ScopeSource: "source",
}

// String returns the scope name.
func (s Scope) String() string {
	if s >= 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// ParseScope returns the Scope named s. "src" is accepted for ScopeSource.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "own":
		return ScopeOwn, nil
	case "source", "src":
		return ScopeSource, nil
	default:
		return ScopeNone, fmt.Errorf("score: unknown scope: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the names
// ParseScope accepts plus "none".
func (s *Scope) UnmarshalText(text []byte) error {
	if strings.EqualFold(strings.TrimSpace(string(text)), "none") {
		*s = ScopeNone
		return nil
	}
	v, err := ParseScope(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SingleRule reverses a scope when the current token has base form Base
// and part of speech POS.
type SingleRule struct {
	Base  string        `json:"base"`
	POS   tokenizer.POS `json:"pos"`
	Scope Scope         `json:"scope"`
}

// MultiRule reverses a scope when the base forms of the tokens ending at
// the current token spell Phrase.
type MultiRule struct {
	Phrase string   `json:"phrase"` // space-separated base forms
	Words  []string `json:"-"`      // Phrase split on spaces
	Scope  Scope    `json:"scope"`
}

// Rules holds the reversal tables. Rules are read-only once built; Engine
// shares them between goroutines.
type Rules struct {
	Single []SingleRule `json:"single"`
	Multi  []MultiRule  `json:"multi"`
}

// Len returns the total number of rules.
func (r Rules) Len() int {
	return len(r.Single) + len(r.Multi)
}

// ErrInvalidRule is returned for a rule with an empty trigger or an unknown
// scope or part of speech.
var ErrInvalidRule = errors.New("score: invalid rule")

// ruleFile is the YAML layout of a rules file.
type ruleFile struct {
	Single []struct {
		Base  string `yaml:"base"`
		POS   string `yaml:"pos"`
		Scope string `yaml:"scope"`
	} `yaml:"single"`
	Multi []struct {
		Phrase string `yaml:"phrase"`
		Scope  string `yaml:"scope"`
	} `yaml:"multi"`
}

// LoadRules reads reversal tables from YAML:
//
//	single:
//	  - {base: ない, pos: AUX, scope: own}
//	multi:
//	  - {phrase: わけ に は いく ない, scope: source}
//
// Base forms and phrases are lowercased; phrase whitespace is collapsed.
// Unknown fields are rejected.
func LoadRules(r io.Reader) (Rules, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f ruleFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, fmt.Errorf("score: decode rules: %w", err)
	}

	var rules Rules
	for i, s := range f.Single {
		base := jakey.ToLower(strings.TrimSpace(s.Base))
		if base == "" {
			return Rules{}, fmt.Errorf("%w: single[%d]: empty base", ErrInvalidRule, i)
		}
		pos, err := tokenizer.ParsePOS(s.POS)
		if err != nil {
			return Rules{}, fmt.Errorf("%w: single[%d]: %w", ErrInvalidRule, i, err)
		}
		scope, err := ParseScope(s.Scope)
		if err != nil {
			return Rules{}, fmt.Errorf("%w: single[%d]: %w", ErrInvalidRule, i, err)
		}
		rules.Single = append(rules.Single, SingleRule{Base: base, POS: pos, Scope: scope})
	}
	for i, m := range f.Multi {
		rule, err := NewMultiRule(m.Phrase, m.Scope)
		if err != nil {
			return Rules{}, fmt.Errorf("%w: multi[%d]: %w", ErrInvalidRule, i, err)
		}
		rules.Multi = append(rules.Multi, rule)
	}
	return rules, nil
}

// NewMultiRule builds a MultiRule from a phrase and a scope name.
func NewMultiRule(phrase, scope string) (MultiRule, error) {
	p := jakey.ToLower(jakey.Phrase(phrase))
	if p == "" {
		return MultiRule{}, errors.New("empty phrase")
	}
	sc, err := ParseScope(scope)
	if err != nil {
		return MultiRule{}, err
	}
	return MultiRule{Phrase: p, Words: strings.Split(p, jakey.Sep), Scope: sc}, nil
}

var defaultRules = sync.OnceValues(func() (Rules, error) {
	return LoadRules(strings.NewReader(string(data.ReverseRules)))
})

// DefaultRules returns the built-in reversal tables:
//
//	single: ない/AUX/own, ぬ/AUX/own, ない/ADJ/own
//	multi:  の で は ない/own, わけ で は ない/own, わけ に は いく ない/source
func DefaultRules() (Rules, error) {
	return defaultRules()
}
