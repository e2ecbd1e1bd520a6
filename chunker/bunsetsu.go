package chunker

import (
	"context"

	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// attachedDetails are IPA second-level classes of words that cannot stand
// alone and attach to the preceding content word.
var attachedDetails = map[string]bool{
	"非自立": true,
	"接尾":  true,
}

// Bunsetsu groups tokens into bunsetsu with a rule of thumb: a chunk is a
// run of content words followed by the function words (particles,
// auxiliaries, suffixes, symbols) attached to it. Adjacent nouns form one
// compound chunk and a prefix joins the word after it. Every chunk links
// to the next one; the last chunk is the root.
//
// It needs no external parser and is the default Chunker. Dependency links
// are a right-branching approximation, so "source"-scoped rules see only
// the immediately preceding chunk as a child.
type Bunsetsu struct{}

// Chunk implements Chunker.
func (Bunsetsu) Chunk(ctx context.Context, _ string, tokens []tokenizer.Token) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Group(tokens), nil
}

// Group returns the bunsetsu chunks of tokens. See Bunsetsu.
func Group(tokens []tokenizer.Token) []Chunk {
	if len(tokens) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	for i := 1; i <= len(tokens); i++ {
		if i < len(tokens) && !startsChunk(tokens[i-1], tokens[i]) {
			continue
		}
		chunks = append(chunks, newChunk(tokens, len(chunks), start, i))
		start = i
	}

	for i := range chunks {
		if i+1 < len(chunks) {
			chunks[i].Link = i + 1
		} else {
			chunks[i].Link = NoLink
		}
	}
	return chunks
}

// newChunk builds chunk idx over tokens[start:end). The head is the last
// content word and the function word is the last attached word; each falls
// back to the other, and then to the first token.
func newChunk(tokens []tokenizer.Token, idx, start, end int) Chunk {
	head, fn := -1, -1
	for i := start; i < end; i++ {
		if isAttached(tokens[i]) {
			fn = i
		} else if !isPrefix(tokens[i]) {
			head = i
		}
	}
	if head < 0 {
		head = start
	}
	if fn < 0 {
		fn = head
	}
	return Chunk{
		Index:      idx,
		TokenStart: start,
		TokenCount: end - start,
		Head:       head,
		Func:       fn,
	}
}

// startsChunk reports whether cur begins a new chunk after prev.
func startsChunk(prev, cur tokenizer.Token) bool {
	if isAttached(cur) || isPrefix(prev) {
		return false
	}
	if isAttached(prev) {
		return true
	}
	return !(isNominal(prev) && isNominal(cur))
}

func isAttached(t tokenizer.Token) bool {
	switch t.POS {
	case tokenizer.PART, tokenizer.AUX, tokenizer.SYM:
		return true
	}
	return attachedDetails[t.Detail1]
}

func isPrefix(t tokenizer.Token) bool {
	return t.PosJP == "接頭詞"
}

func isNominal(t tokenizer.Token) bool {
	return t.POS == tokenizer.NOUN || t.POS == tokenizer.PRON
}
