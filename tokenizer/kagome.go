package tokenizer

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	kagome "github.com/ikawaha/kagome/v2/tokenizer"
)

// Kagome tokenizes with the pure-Go kagome analyzer and the IPA dictionary,
// producing the same feature columns as MeCab with ipadic.
type Kagome struct {
	t *kagome.Tokenizer
}

// NewKagome returns a Kagome tokenizer. Loading the embedded dictionary
// takes a few hundred milliseconds; create one and share it.
func NewKagome() (*Kagome, error) {
	t, err := kagome.New(ipa.Dict(), kagome.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("tokenizer: kagome: %w", err)
	}
	return &Kagome{t: t}, nil
}

// Tokenize implements Tokenizer. Whitespace-only morphemes are dropped, as
// MeCab does.
func (k *Kagome) Tokenize(ctx context.Context, s string) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}

	raw := k.t.Tokenize(s)
	tokens := make([]Token, 0, len(raw))
	for _, m := range raw {
		if m.Class == kagome.DUMMY || isBlank(m.Surface) {
			continue
		}
		tokens = append(tokens, FromFeatures(len(tokens), m.Surface, m.Features()))
	}
	return Reindex(tokens), nil
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
