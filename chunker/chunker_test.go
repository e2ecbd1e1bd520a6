package chunker

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// tree returns chunks of one token each with the given links.
func tree(links ...int) []Chunk {
	chunks := make([]Chunk, len(links))
	for i, l := range links {
		chunks[i] = Chunk{Index: i, TokenStart: i, TokenCount: 1, Head: i, Func: i, Link: l}
	}
	return chunks
}

func TestChunkRange(t *testing.T) {
	t.Parallel()

	c := Chunk{Index: 1, TokenStart: 2, TokenCount: 3, Link: NoLink}
	if c.End() != 5 {
		t.Errorf("End() = %d, want 5", c.End())
	}
	for i, want := range map[int]bool{1: false, 2: true, 4: true, 5: false} {
		if got := c.Contains(i); got != want {
			t.Errorf("Contains(%d) = %v, want %v", i, got, want)
		}
	}
	if got := c.String(); got != "Chunk(1)[2:5]->-1" {
		t.Errorf("String() = %q", got)
	}
}

func TestGraphChildren(t *testing.T) {
	t.Parallel()

	// 0 -> 2, 1 -> 2, 2 -> 4, 3 -> 4, 4 root, 5 -> 99 (out of range)
	g := NewGraph(tree(2, 2, 4, 4, NoLink, 99))

	tests := []struct {
		chunk int
		want  []int
	}{
		{0, nil},
		{2, []int{0, 1}},
		{4, []int{2, 3}},
		{5, nil},
		{-1, nil},
		{42, nil},
	}
	for _, tt := range tests {
		if got := g.Children(tt.chunk); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Children(%d) = %v, want %v", tt.chunk, got, tt.want)
		}
	}

	if got, want := g.Roots(), []int{4, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
	if g.Len() != 6 || len(g.Chunks()) != 6 || g.Chunk(3).Link != 4 {
		t.Errorf("arena accessors disagree: Len=%d", g.Len())
	}
}

func TestGraphChildrenOrderIndependentOfLinkOrder(t *testing.T) {
	t.Parallel()

	// Children are known only after every chunk exists: chunk 0 links
	// forward to 3 before chunk 3 is built.
	g := NewGraph(tree(3, 3, 3, NoLink))
	if got, want := g.Children(3), []int{0, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("Children(3) = %v, want %v", got, want)
	}
}

func TestGraphFind(t *testing.T) {
	t.Parallel()

	g := NewGraph([]Chunk{
		{Index: 0, TokenStart: 0, TokenCount: 2, Link: 1},
		{Index: 1, TokenStart: 2, TokenCount: 3, Link: NoLink},
	})
	tests := []struct {
		tok   int
		want  int
		found bool
	}{
		{0, 0, true},
		{1, 0, true},
		{2, 1, true},
		{4, 1, true},
		{5, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		c, ok := g.Find(tt.tok)
		if ok != tt.found || (ok && c.Index != tt.want) {
			t.Errorf("Find(%d) = (%v, %v), want (%d, %v)", tt.tok, c, ok, tt.want, tt.found)
		}
	}
}

func TestGraphChildTokens(t *testing.T) {
	t.Parallel()

	s := readFixture(t, "testdata/wakeniwa.cabocha")[0]
	g := s.Graph()

	// Head of chunk 1 is わけ; its dependents are に, は and the head of
	// chunk 0 (諦める).
	got := g.ChildTokens(s.Tokens, 1, 1)
	var surfaces []string
	for _, tok := range got {
		surfaces = append(surfaces, tok.Surface)
	}
	if want := []string{"に", "は", "諦める"}; !reflect.DeepEqual(surfaces, want) {
		t.Errorf("ChildTokens(1, 1) = %q, want %q", surfaces, want)
	}

	if got := g.ChildTokens(s.Tokens, 1, 2); got != nil {
		t.Errorf("non-head token has dependents: %v", got)
	}
	if got := g.ChildTokens(s.Tokens, 9, 0); got != nil {
		t.Errorf("out-of-range chunk has dependents: %v", got)
	}
}

func TestGraphValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		chunks []Chunk
		tokens int
		want   error
	}{
		{"valid chain", tree(1, 2, NoLink), 3, nil},
		{"valid single", tree(NoLink), 1, nil},
		{"empty", nil, 0, nil},
		{"gap", []Chunk{
			{Index: 0, TokenStart: 0, TokenCount: 1, Head: 0, Link: NoLink},
			{Index: 1, TokenStart: 2, TokenCount: 1, Head: 2, Link: NoLink},
		}, 3, ErrCoverage},
		{"short coverage", tree(NoLink), 2, ErrCoverage},
		{"bad index", []Chunk{{Index: 3, TokenCount: 1, Link: NoLink}}, 1, ErrCoverage},
		{"empty chunk", []Chunk{{Index: 0, TokenCount: 0, Link: NoLink}}, 0, ErrCoverage},
		{"head outside", []Chunk{{Index: 0, TokenCount: 2, Head: 5, Link: NoLink}}, 2, ErrHead},
		{"self link", tree(0), 1, ErrLink},
		{"dangling link", tree(7), 1, ErrLink},
		{"cycle", tree(1, 0), 2, ErrLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewGraph(tt.chunks).Validate(tt.tokens)
			if tt.want == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFunc(t *testing.T) {
	t.Parallel()

	var c Chunker = Func(func(_ context.Context, _ string, tokens []tokenizer.Token) ([]Chunk, error) {
		return []Chunk{{TokenCount: len(tokens), Link: NoLink}}, nil
	})
	got, err := c.Chunk(context.Background(), "", make([]tokenizer.Token, 3))
	if err != nil || len(got) != 1 || got[0].TokenCount != 3 {
		t.Errorf("Func.Chunk() = (%v, %v)", got, err)
	}
}
