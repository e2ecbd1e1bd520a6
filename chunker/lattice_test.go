package chunker

import (
	"bytes"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/jpsa-nlp/jpsa/tokenizer"
)

func readFixture(t *testing.T, path string) []Sentence {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer func() { _ = f.Close() }()
	sents, err := ReadLattice(f)
	if err != nil {
		t.Fatalf("ReadLattice(%s): %v", path, err)
	}
	return sents
}

func TestReadLattice(t *testing.T) {
	t.Parallel()

	sents := readFixture(t, "testdata/yokunai.cabocha")
	if len(sents) != 1 {
		t.Fatalf("got %d sentences, want 1", len(sents))
	}
	s := sents[0]

	if got := s.Text(); got != "天気がよくない。" {
		t.Errorf("Text() = %q", got)
	}

	wantChunks := []Chunk{
		{Index: 0, TokenStart: 0, TokenCount: 2, Head: 0, Func: 1, Link: 1, Score: 1.521684},
		{Index: 1, TokenStart: 2, TokenCount: 3, Head: 2, Func: 3, Link: NoLink},
	}
	if !reflect.DeepEqual(s.Chunks, wantChunks) {
		t.Errorf("Chunks =\n  %+v\nwant\n  %+v", s.Chunks, wantChunks)
	}

	wantBase := []string{"天気", "が", "よい", "ない", "。"}
	wantPOS := []tokenizer.POS{tokenizer.NOUN, tokenizer.PART, tokenizer.ADJ, tokenizer.AUX, tokenizer.SYM}
	for i, tok := range s.Tokens {
		if tok.Index != i || tok.BaseForm != wantBase[i] || tok.POS != wantPOS[i] {
			t.Errorf("token %d = %v, want %s/%v", i, tok, wantBase[i], wantPOS[i])
		}
	}

	verifyGraph(t, s.Chunks, len(s.Tokens))
}

func TestReadLatticeMultipleSentences(t *testing.T) {
	t.Parallel()

	sents := readFixture(t, "testdata/multi.cabocha")
	if len(sents) != 2 {
		t.Fatalf("got %d sentences, want 2", len(sents))
	}
	if sents[0].Text() != "気が重い" || sents[1].Text() != "雨" {
		t.Errorf("texts = %q, %q", sents[0].Text(), sents[1].Text())
	}
	// The named-entity column on が is ignored.
	if got := sents[0].Tokens[1].BaseForm; got != "が" {
		t.Errorf("base form with NE column = %q", got)
	}
	for _, s := range sents {
		verifyGraph(t, s.Chunks, len(s.Tokens))
	}
}

func TestReadLatticeWithoutHeaders(t *testing.T) {
	t.Parallel()

	sents := readFixture(t, "testdata/mecab.txt")
	if len(sents) != 1 {
		t.Fatalf("got %d sentences, want 1", len(sents))
	}
	if len(sents[0].Tokens) != 3 || len(sents[0].Chunks) != 0 {
		t.Errorf("tokens=%d chunks=%d, want 3 and 0", len(sents[0].Tokens), len(sents[0].Chunks))
	}
}

func TestReadLatticeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"short header", "* 0 1D\n"},
		{"bad index", "* x 1D 0/0 0\n"},
		{"bad link", "* 0 xD 0/0 0\n"},
		{"bad head", "* 0 -1D a/0 0\n"},
		{"bad func", "* 0 -1D 0/b 0\n"},
		{"no slash", "* 0 -1D 00 0\n"},
		{"bad score", "* 0 -1D 0/0 high\n"},
		{"out of order index", "* 1 -1D 0/0 0\n雨\t名詞,一般\nEOS\n"},
		{"token without features", "* 0 -1D 0/0 0\n雨\nEOS\n"},
		{"empty chunk", "* 0 1D 0/0 0\n* 1 -1D 0/0 0\n雨\t名詞\nEOS\n"},
		{"head outside chunk", "* 0 -1D 3/0 0\n雨\t名詞\nEOS\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ReadLattice(strings.NewReader(tt.input)); err == nil {
				t.Errorf("ReadLattice(%q) = nil error", tt.input)
			}
		})
	}
}

func TestReadLatticeTrailingSentence(t *testing.T) {
	t.Parallel()

	sents, err := ReadLattice(strings.NewReader("* 0 -1D 0/0 0\r\n雨\t名詞,一般,*,*,*,*,雨\r\n"))
	if err != nil {
		t.Fatalf("ReadLattice: %v", err)
	}
	if len(sents) != 1 || sents[0].Text() != "雨" {
		t.Errorf("got %+v", sents)
	}
}

func TestWriteLatticeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"testdata/yokunai.cabocha", "testdata/wakeniwa.cabocha"} {
		orig := readFixture(t, path)[0]

		var buf bytes.Buffer
		if err := WriteLattice(&buf, orig); err != nil {
			t.Fatalf("WriteLattice: %v", err)
		}
		back, err := ReadLattice(&buf)
		if err != nil {
			t.Fatalf("ReadLattice(written): %v", err)
		}
		if len(back) != 1 {
			t.Fatalf("%s: got %d sentences", path, len(back))
		}
		if !reflect.DeepEqual(back[0].Tokens, orig.Tokens) {
			t.Errorf("%s: tokens changed in round trip", path)
		}
		if !reflect.DeepEqual(back[0].Chunks, orig.Chunks) {
			t.Errorf("%s: chunks changed in round trip:\n  %+v\n  %+v", path, back[0].Chunks, orig.Chunks)
		}
	}
}
