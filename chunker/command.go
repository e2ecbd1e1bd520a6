package chunker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// DefaultCommand is the CaboCha executable looked up in PATH.
const DefaultCommand = "cabocha"

// ErrTokenMismatch is returned when the parser's tokens disagree with the
// tokens being chunked.
var ErrTokenMismatch = errors.New("chunker: parser tokens differ from input tokens")

// Command runs an external CaboCha-compatible parser once per sentence and
// reads its lattice output. It implements both tokenizer.Tokenizer and
// Chunker, so tokens and chunks come from the same analysis.
type Command struct {
	Path string   // executable; DefaultCommand when empty
	Args []string // arguments; "-f1" when nil
}

// Parse runs the parser on sentence. Newlines in sentence are replaced by
// spaces so the parser sees a single line. Multiple sentences in the
// output are concatenated into one, with token and chunk indices shifted.
func (c *Command) Parse(ctx context.Context, sentence string) (Sentence, error) {
	path := c.Path
	if path == "" {
		path = DefaultCommand
	}
	args := c.Args
	if args == nil {
		args = []string{"-f1"}
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(strings.ReplaceAll(sentence, "\n", " ") + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return Sentence{}, fmt.Errorf("chunker: run %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	parsed, err := ReadLattice(bytes.NewReader(out))
	if err != nil {
		return Sentence{}, err
	}
	return merge(parsed), nil
}

// Tokenize implements tokenizer.Tokenizer.
func (c *Command) Tokenize(ctx context.Context, s string) ([]tokenizer.Token, error) {
	if s == "" {
		return nil, nil
	}
	parsed, err := c.Parse(ctx, s)
	if err != nil {
		return nil, err
	}
	return parsed.Tokens, nil
}

// Chunk implements Chunker. The parser must segment sentence into the same
// surfaces as tokens.
func (c *Command) Chunk(ctx context.Context, sentence string, tokens []tokenizer.Token) ([]Chunk, error) {
	parsed, err := c.Parse(ctx, sentence)
	if err != nil {
		return nil, err
	}
	if len(parsed.Tokens) != len(tokens) {
		return nil, fmt.Errorf("%w: %d parsed, %d given", ErrTokenMismatch, len(parsed.Tokens), len(tokens))
	}
	for i, t := range parsed.Tokens {
		if t.Surface != tokens[i].Surface {
			return nil, fmt.Errorf("%w: token %d is %q, want %q", ErrTokenMismatch, i, t.Surface, tokens[i].Surface)
		}
	}
	return parsed.Chunks, nil
}

// merge concatenates parsed sentences into one.
func merge(parsed []Sentence) Sentence {
	if len(parsed) == 1 {
		return parsed[0]
	}
	var out Sentence
	for _, s := range parsed {
		tokOff, chunkOff := len(out.Tokens), len(out.Chunks)
		for _, t := range s.Tokens {
			t.Index += tokOff
			out.Tokens = append(out.Tokens, t)
		}
		for _, c := range s.Chunks {
			c.Index += chunkOff
			c.TokenStart += tokOff
			c.Head += tokOff
			c.Func += tokOff
			if c.Link != NoLink {
				c.Link += chunkOff
			}
			out.Chunks = append(out.Chunks, c)
		}
	}
	return out
}
