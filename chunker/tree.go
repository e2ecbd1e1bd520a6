package chunker

import (
	"fmt"
	"io"
	"strings"

	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// WriteTree writes the dependency tree of chunks, one chunk per line:
// each root first, its dependents indented beneath it in index order.
//
//	よくない。 [1]
//	  天気が [0]
//
// Chunks unreachable from a root (cycles) are listed last, unindented.
func WriteTree(w io.Writer, tokens []tokenizer.Token, chunks []Chunk) error {
	g := NewGraph(chunks)
	var b strings.Builder
	seen := make([]bool, g.Len())

	var walk func(i, depth int)
	walk = func(i, depth int) {
		if seen[i] {
			return
		}
		seen[i] = true
		fmt.Fprintf(&b, "%s%s [%d]\n", strings.Repeat("  ", depth), chunkText(tokens, g.Chunk(i)), i)
		for _, child := range g.Children(i) {
			walk(child, depth+1)
		}
	}
	for _, r := range g.Roots() {
		walk(r, 0)
	}
	for i := range seen {
		walk(i, 0)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// chunkText concatenates the surfaces of c's tokens.
func chunkText(tokens []tokenizer.Token, c Chunk) string {
	start, end := max(c.TokenStart, 0), min(c.End(), len(tokens))
	if start >= end {
		return ""
	}
	return tokenizer.Text(tokens[start:end])
}
