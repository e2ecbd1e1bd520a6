package chunker

import (
	"strings"
	"testing"

	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// fuzzPOS are IPA first columns with representative second columns.
var fuzzPOS = [][2]string{
	{"名詞", "一般"},
	{"名詞", "非自立"},
	{"名詞", "接尾"},
	{"名詞", "代名詞"},
	{"動詞", "自立"},
	{"形容詞", "自立"},
	{"副詞", "一般"},
	{"助詞", "格助詞"},
	{"助動詞", "*"},
	{"記号", "句点"},
	{"接頭詞", "名詞接続"},
	{"連体詞", "*"},
}

func FuzzGroup(f *testing.F) {
	f.Add([]byte{0, 7, 5, 8, 9})
	f.Add([]byte{})
	f.Add([]byte{10, 10, 10})
	f.Add([]byte{7, 8, 9})
	f.Add([]byte{4, 1, 7, 7, 4, 8})

	f.Fuzz(func(t *testing.T, seq []byte) {
		tokens := make([]tokenizer.Token, len(seq))
		for i, b := range seq {
			p := fuzzPOS[int(b)%len(fuzzPOS)]
			tokens[i] = tokenizer.FromFeatures(i, "w", []string{p[0], p[1]})
		}
		chunks := Group(tokens)
		if len(tokens) == 0 {
			if chunks != nil {
				t.Fatalf("non-nil chunks for empty input")
			}
			return
		}
		if err := NewGraph(chunks).Validate(len(tokens)); err != nil {
			t.Fatalf("invalid chunks for %v: %v", seq, err)
		}
	})
}

func FuzzReadLattice(f *testing.F) {
	f.Add("* 0 -1D 0/0 0.0\n雨\t名詞,一般\nEOS\n")
	f.Add("")
	f.Add("EOS\nEOS\n")
	f.Add("* 0 1D 0/1 0\n気\t名詞\nが\t助詞\n* 1 -1D 0/0 0\n重い\t形容詞\nEOS\n")

	f.Fuzz(func(t *testing.T, s string) {
		sents, err := ReadLattice(strings.NewReader(s))
		if err != nil {
			return
		}
		for _, sent := range sents {
			for i, tok := range sent.Tokens {
				if tok.Index != i {
					t.Fatalf("token %d has Index=%d", i, tok.Index)
				}
			}
			for i, c := range sent.Chunks {
				if c.Index != i || c.TokenCount <= 0 || !c.Contains(c.Head) {
					t.Fatalf("bad chunk %d: %+v", i, c)
				}
				if c.End() > len(sent.Tokens) {
					t.Fatalf("chunk %d past end: %+v", i, c)
				}
			}
			// Children derivation must not panic on arbitrary links.
			g := sent.Graph()
			for i := range sent.Chunks {
				_ = g.Children(i)
			}
		}
	})
}
