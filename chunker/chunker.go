// Package chunker models a sentence as dependency-linked chunks (bunsetsu)
// and adapts external dependency parsers to that model.
//
// A Chunk covers a contiguous token range and links to the chunk it
// modifies. Graph holds a sentence's chunks as an index-addressed arena and
// derives the reverse links (children) in a second pass, after every chunk
// exists; chunks never carry back-pointers.
//
// Three Chunker implementations are provided:
//
//   - Bunsetsu: a pure-Go heuristic that groups content words with their
//     trailing function words and links each chunk to the next one.
//   - Command: runs the CaboCha parser and reads its lattice output.
//   - ReadLattice: parses CaboCha "-f1" lattice text directly, for
//     pre-parsed corpora and tests.
//
// All functions are safe for concurrent use by multiple goroutines.
package chunker

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// NoLink is the Link of a chunk that modifies nothing (a root).
const NoLink = -1

// Chunk is a contiguous span of tokens with one head.
type Chunk struct {
	Index      int     `json:"index"`       // Position in the sentence, 0-based
	TokenStart int     `json:"token_start"` // First token index
	TokenCount int     `json:"token_count"` // Number of tokens
	Head       int     `json:"head"`        // Head (content) token index, absolute
	Func       int     `json:"func"`        // Function-word token index, absolute
	Link       int     `json:"link"`        // Parent chunk index, or NoLink
	Score      float64 `json:"score"`       // Parser confidence for Link
}

// End returns the index one past the chunk's last token.
func (c Chunk) End() int {
	return c.TokenStart + c.TokenCount
}

// Contains reports whether token index i lies within the chunk.
func (c Chunk) Contains(i int) bool {
	return c.TokenStart <= i && i < c.End()
}

// String returns a debug representation, e.g. Chunk(0)[0:2]->1.
func (c Chunk) String() string {
	return fmt.Sprintf("Chunk(%d)[%d:%d]->%d", c.Index, c.TokenStart, c.End(), c.Link)
}

// Chunker groups the tokens of a sentence into chunks.
//
// Implementations must return chunks that partition tokens into ordered,
// contiguous, non-overlapping ranges, with links forming a forest.
type Chunker interface {
	Chunk(ctx context.Context, sentence string, tokens []tokenizer.Token) ([]Chunk, error)
}

// Func adapts a function to the Chunker interface.
type Func func(ctx context.Context, sentence string, tokens []tokenizer.Token) ([]Chunk, error)

// Chunk calls f.
func (f Func) Chunk(ctx context.Context, sentence string, tokens []tokenizer.Token) ([]Chunk, error) {
	return f(ctx, sentence, tokens)
}

// Graph is the chunk arena of one sentence plus the derived children of
// each chunk.
type Graph struct {
	chunks   []Chunk
	children [][]int
}

// NewGraph builds a Graph. The children of each chunk are computed once,
// after all chunks are known, in chunk index order. Links that point
// outside the arena are ignored when deriving children.
func NewGraph(chunks []Chunk) *Graph {
	g := &Graph{
		chunks:   chunks,
		children: make([][]int, len(chunks)),
	}
	for i, c := range chunks {
		if c.Link < 0 || c.Link >= len(chunks) || c.Link == i {
			continue
		}
		g.children[c.Link] = append(g.children[c.Link], i)
	}
	return g
}

// Len returns the number of chunks.
func (g *Graph) Len() int {
	return len(g.chunks)
}

// Chunk returns chunk i.
func (g *Graph) Chunk(i int) Chunk {
	return g.chunks[i]
}

// Chunks returns the chunks in index order. The slice must not be modified.
func (g *Graph) Chunks() []Chunk {
	return g.chunks
}

// Children returns the indices of the chunks linking to chunk i, in
// ascending order. The slice must not be modified.
func (g *Graph) Children(i int) []int {
	if i < 0 || i >= len(g.children) {
		return nil
	}
	return g.children[i]
}

// Roots returns the indices of chunks with no parent.
func (g *Graph) Roots() []int {
	var roots []int
	for i, c := range g.chunks {
		if c.Link < 0 || c.Link >= len(g.chunks) {
			roots = append(roots, i)
		}
	}
	return roots
}

// Find returns the first chunk, in index order, containing token index i.
func (g *Graph) Find(i int) (Chunk, bool) {
	for _, c := range g.chunks {
		if c.Contains(i) {
			return c, true
		}
	}
	return Chunk{}, false
}

// ChildTokens returns the tokens that depend on token tok of chunk ci:
// for the chunk's head, every other token of the chunk followed by the head
// tokens of the child chunks. Any other token has no dependents.
func (g *Graph) ChildTokens(tokens []tokenizer.Token, ci, tok int) []tokenizer.Token {
	if ci < 0 || ci >= len(g.chunks) {
		return nil
	}
	c := g.chunks[ci]
	if tok != c.Head {
		return nil
	}
	var out []tokenizer.Token
	for i := c.TokenStart; i < c.End() && i < len(tokens); i++ {
		if i != tok {
			out = append(out, tokens[i])
		}
	}
	for _, child := range g.children[ci] {
		h := g.chunks[child].Head
		if h >= 0 && h < len(tokens) {
			out = append(out, tokens[h])
		}
	}
	return out
}

// Validation errors.
var (
	ErrCoverage = errors.New("chunker: chunks do not partition the tokens")
	ErrHead     = errors.New("chunker: head outside chunk")
	ErrLink     = errors.New("chunker: invalid dependency link")
)

// Validate checks the Graph against a sentence of tokenCount tokens:
// chunks are indexed in order, partition [0, tokenCount), have heads inside
// their ranges, and links form a forest.
func (g *Graph) Validate(tokenCount int) error {
	next := 0
	for i, c := range g.chunks {
		if c.Index != i {
			return fmt.Errorf("%w: chunk %d has index %d", ErrCoverage, i, c.Index)
		}
		if c.TokenStart != next || c.TokenCount <= 0 {
			return fmt.Errorf("%w: chunk %d covers [%d:%d), want start %d",
				ErrCoverage, i, c.TokenStart, c.End(), next)
		}
		if !c.Contains(c.Head) {
			return fmt.Errorf("%w: chunk %d head %d not in [%d:%d)",
				ErrHead, i, c.Head, c.TokenStart, c.End())
		}
		if c.Link != NoLink && (c.Link < 0 || c.Link >= len(g.chunks) || c.Link == i) {
			return fmt.Errorf("%w: chunk %d links to %d", ErrLink, i, c.Link)
		}
		next = c.End()
	}
	if next != tokenCount {
		return fmt.Errorf("%w: chunks cover %d of %d tokens", ErrCoverage, next, tokenCount)
	}

	// Follow parent links from every chunk; a walk longer than the arena
	// means a cycle.
	for i := range g.chunks {
		cur, steps := i, 0
		for g.chunks[cur].Link != NoLink {
			cur = g.chunks[cur].Link
			steps++
			if steps > len(g.chunks) {
				return fmt.Errorf("%w: cycle through chunk %d", ErrLink, i)
			}
		}
	}
	return nil
}
