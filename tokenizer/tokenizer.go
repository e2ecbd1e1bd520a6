// Package tokenizer defines the morphological token model consumed by the
// score engine and adapts external morphological analyzers to it.
//
// The package provides two API layers:
//
//   - Structured: Token carries the surface form, base form, coarse part of
//     speech and the raw IPA-dictionary feature columns. The Tokenizer
//     interface is the boundary to an analyzer; Kagome is the built-in
//     pure-Go implementation.
//   - Convenience: Words, FilterByPOS and Segment operate on token slices.
//
// Token sequences returned by a Tokenizer satisfy two invariants: indices are
// contiguous starting at 0, and no EOS (sentence boundary marker) token is
// present.
//
// All functions are safe for concurrent use by multiple goroutines.
package tokenizer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jpsa-nlp/jpsa/internal/jakey"
)

// POS is a coarse part-of-speech tag.
type POS int

const (
	X    POS = iota // Other, filler, prefix, unknown
	NOUN            // 名詞
	VERB            // 動詞
	ADJ             // 形容詞
	JADJ            // 連体詞, adnominal
	ADV             // 副詞
	AUX             // 助動詞
	PART            // 助詞
	INTJ            // 感動詞
	CONJ            // 接続詞
	SYM             // 記号
	PRON            // 代名詞 (second-level noun class)
	EOS             // BOS/EOS marker; never present in a token sequence
)

var posNames = [...]string{
	X:    "X",
	NOUN: "NOUN",
	VERB: "VERB",
	ADJ:  "ADJ",
	JADJ: "JADJ",
	ADV:  "ADV",
	AUX:  "AUX",
	PART: "PART",
	INTJ: "INTJ",
	CONJ: "CONJ",
	SYM:  "SYM",
	PRON: "PRON",
	EOS:  "EOS",
}

// String returns the tag name, e.g. "ADJ".
func (p POS) String() string {
	if p >= 0 && int(p) < len(posNames) {
		return posNames[p]
	}
	return fmt.Sprintf("POS(%d)", int(p))
}

// ParsePOS returns the POS named s.
func ParsePOS(s string) (POS, error) {
	for i, name := range posNames {
		if name == s {
			return POS(i), nil
		}
	}
	return X, fmt.Errorf("tokenizer: unknown POS: %q", s)
}

// MarshalJSON encodes the tag as a JSON string.
func (p POS) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a JSON string into a POS.
func (p *POS) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParsePOS(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// UnmarshalText decodes a tag name, so POS can be used in YAML and flags.
func (p *POS) UnmarshalText(text []byte) error {
	v, err := ParsePOS(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText encodes the tag name.
func (p POS) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// jpPOS maps the first IPA feature column to a coarse tag.
// Columns not listed map to X.
var jpPOS = map[string]POS{
	"BOS/EOS": EOS,
	"形容詞":     ADJ,
	"連体詞":     JADJ,
	"副詞":      ADV,
	"名詞":      NOUN,
	"動詞":      VERB,
	"助動詞":     AUX,
	"助詞":      PART,
	"感動詞":     INTJ,
	"接続詞":     CONJ,
	"記号":      SYM,
	"*":       X,
	"その他":     X,
	"フィラー":    X,
	"接頭詞":     X,
}

// jpPOSDetail maps the second IPA feature column; it takes precedence
// over the first.
var jpPOSDetail = map[string]POS{
	"代名詞": PRON,
}

// ClassifyPOS returns the coarse tag for the first two IPA feature columns.
func ClassifyPOS(pos, detail1 string) POS {
	if p, ok := jpPOSDetail[detail1]; ok {
		return p
	}
	if p, ok := jpPOS[pos]; ok {
		return p
	}
	return X
}

// Token is one morpheme of a sentence.
type Token struct {
	Index         int    `json:"index"`                   // Position in the sentence, 0-based
	Surface       string `json:"surface"`                 // Surface form as written
	BaseForm      string `json:"base_form"`               // Dictionary form; Surface when unknown
	POS           POS    `json:"pos"`                     // Coarse part of speech
	PosJP         string `json:"pos_jp,omitempty"`        // 品詞
	Detail1       string `json:"detail1,omitempty"`       // 品詞細分類1
	Detail2       string `json:"detail2,omitempty"`       // 品詞細分類2
	Detail3       string `json:"detail3,omitempty"`       // 品詞細分類3
	InflType      string `json:"infl_type,omitempty"`     // 活用型
	InflForm      string `json:"infl_form,omitempty"`     // 活用形
	Reading       string `json:"reading,omitempty"`       // 読み
	Pronunciation string `json:"pronunciation,omitempty"` // 発音
}

// String returns a debug representation, e.g. ADJ("よく"→"よい")[0].
func (t Token) String() string {
	return fmt.Sprintf("%s(%q→%q)[%d]", t.POS, t.Surface, t.BaseForm, t.Index)
}

// Key returns the lowercased base form used for lexicon lookups.
func (t Token) Key() string {
	return jakey.ToLower(t.BaseForm)
}

// FromFeatures builds a Token from a surface form and the comma-separated
// IPA feature columns emitted by MeCab-compatible analyzers:
// pos, detail1-3, inflection type, inflection form, base form, reading,
// pronunciation. Missing trailing columns are left empty; a missing or
// placeholder base form falls back to the surface.
func FromFeatures(index int, surface string, features []string) Token {
	col := func(i int) string {
		if i < len(features) {
			return features[i]
		}
		return ""
	}
	return Token{
		Index:         index,
		Surface:       surface,
		BaseForm:      jakey.BaseOr(col(6), surface), //nolint:mnd
		POS:           ClassifyPOS(col(0), col(1)),
		PosJP:         col(0),
		Detail1:       col(1),
		Detail2:       col(2), //nolint:mnd
		Detail3:       col(3), //nolint:mnd
		InflType:      col(4), //nolint:mnd
		InflForm:      col(5), //nolint:mnd
		Reading:       col(7), //nolint:mnd
		Pronunciation: col(8), //nolint:mnd
	}
}

// Tokenizer splits a sentence into tokens.
//
// Implementations must return tokens with contiguous 0-based indices and
// must not include EOS tokens.
type Tokenizer interface {
	Tokenize(ctx context.Context, s string) ([]Token, error)
}

// Func adapts a function to the Tokenizer interface.
type Func func(ctx context.Context, s string) ([]Token, error)

// Tokenize calls f.
func (f Func) Tokenize(ctx context.Context, s string) ([]Token, error) {
	return f(ctx, s)
}

// Reindex drops EOS tokens and renumbers the rest from 0.
// The input slice is reused.
func Reindex(tokens []Token) []Token {
	out := tokens[:0]
	for _, t := range tokens {
		if t.POS == EOS {
			continue
		}
		t.Index = len(out)
		out = append(out, t)
	}
	return out
}

// Words returns the surface forms of tokens, skipping tokens whose POS is
// in exclude.
func Words(tokens []Token, exclude ...POS) []string {
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if hasPOS(exclude, t.POS) {
			continue
		}
		words = append(words, t.Surface)
	}
	return words
}

// FilterByPOS returns the tokens whose POS is in keep. With no tags it
// keeps nouns. Token indices are left unchanged.
func FilterByPOS(tokens []Token, keep ...POS) []Token {
	if len(keep) == 0 {
		keep = []POS{NOUN}
	}
	var out []Token
	for _, t := range tokens {
		if hasPOS(keep, t.POS) {
			out = append(out, t)
		}
	}
	return out
}

func hasPOS(set []POS, p POS) bool {
	for _, s := range set {
		if s == p {
			return true
		}
	}
	return false
}
