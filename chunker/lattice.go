package chunker

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// latticeBufSize bounds a single lattice line.
const latticeBufSize = 1 << 20 // 1 MiB

// Sentence is one parsed sentence: its tokens and the chunks over them.
type Sentence struct {
	Tokens []tokenizer.Token `json:"tokens"`
	Chunks []Chunk           `json:"chunks"`
}

// Text returns the sentence reconstructed from token surfaces.
func (s Sentence) Text() string {
	var b strings.Builder
	for _, t := range s.Tokens {
		b.WriteString(t.Surface)
	}
	return b.String()
}

// Graph returns the chunk graph of the sentence.
func (s Sentence) Graph() *Graph {
	return NewGraph(s.Chunks)
}

// ReadLattice parses CaboCha lattice output ("cabocha -f1").
//
// Each sentence is a sequence of chunk headers and token lines ended by
// "EOS":
//
//	$ echo 今日は晴れ | cabocha -f1
//	* 0 1D 0/1 1.2345
//	今日	名詞,副詞可能,*,*,*,*,今日,キョウ,キョー
//	は	助詞,係助詞,*,*,*,*,は,ハ,ワ
//	* 1 -1D 0/0 0.000000
//	晴れ	名詞,一般,*,*,*,*,晴れ,ハレ,ハレ
//	EOS
//
// A header gives the chunk index, its link (with a trailing "D"), the head
// and function-word positions relative to the chunk, and the link score.
// Token lines are the surface, a tab, and the comma-separated IPA
// features; an optional third column (named entity tag) is ignored.
// Input without headers (plain MeCab output) yields sentences with tokens
// and no chunks. A trailing sentence without EOS is kept.
func ReadLattice(r io.Reader) ([]Sentence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), latticeBufSize) //nolint:mnd

	var (
		out    []Sentence
		cur    Sentence
		header []int // relative head/func of each chunk, in pairs
		lineNo int
	)

	flush := func() error {
		if len(cur.Tokens) == 0 && len(cur.Chunks) == 0 {
			return nil
		}
		if err := finishChunks(&cur, header); err != nil {
			return fmt.Errorf("chunker: sentence ending line %d: %w", lineNo, err)
		}
		out = append(out, cur)
		cur, header = Sentence{}, nil
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "":
			continue
		case line == "EOS":
			if err := flush(); err != nil {
				return nil, err
			}
		case strings.HasPrefix(line, "* "):
			c, head, fn, err := parseHeader(line)
			if err != nil {
				return nil, fmt.Errorf("chunker: line %d: %w", lineNo, err)
			}
			if c.Index != len(cur.Chunks) {
				return nil, fmt.Errorf("chunker: line %d: chunk index %d, want %d", lineNo, c.Index, len(cur.Chunks))
			}
			c.TokenStart = len(cur.Tokens)
			cur.Chunks = append(cur.Chunks, c)
			header = append(header, head, fn)
		default:
			surface, features, ok := strings.Cut(line, "\t")
			if !ok {
				return nil, fmt.Errorf("chunker: line %d: token line without features: %q", lineNo, line)
			}
			features, _, _ = strings.Cut(features, "\t")
			tok := tokenizer.FromFeatures(len(cur.Tokens), surface, strings.Split(features, ","))
			if tok.POS == tokenizer.EOS {
				continue
			}
			cur.Tokens = append(cur.Tokens, tok)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("chunker: read lattice: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseHeader parses "* <index> <link>D <head>/<func> [<score>]".
func parseHeader(line string) (c Chunk, head, fn int, err error) {
	fields := strings.Fields(line)
	if len(fields) < 4 { //nolint:mnd
		return c, 0, 0, fmt.Errorf("malformed chunk header: %q", line)
	}
	if c.Index, err = strconv.Atoi(fields[1]); err != nil {
		return c, 0, 0, fmt.Errorf("chunk index: %w", err)
	}
	if c.Link, err = strconv.Atoi(strings.TrimSuffix(fields[2], "D")); err != nil {
		return c, 0, 0, fmt.Errorf("chunk link: %w", err)
	}
	if c.Link < 0 {
		c.Link = NoLink
	}
	h, f, ok := strings.Cut(fields[3], "/")
	if !ok {
		return c, 0, 0, fmt.Errorf("head/func field: %q", fields[3])
	}
	if head, err = strconv.Atoi(h); err != nil {
		return c, 0, 0, fmt.Errorf("head position: %w", err)
	}
	if fn, err = strconv.Atoi(f); err != nil {
		return c, 0, 0, fmt.Errorf("func position: %w", err)
	}
	if len(fields) > 4 { //nolint:mnd
		if c.Score, err = strconv.ParseFloat(fields[4], 64); err != nil {
			return c, 0, 0, fmt.Errorf("chunk score: %w", err)
		}
	}
	return c, head, fn, nil
}

// finishChunks fills in token counts and absolute head/func positions once
// all tokens of the sentence are known.
func finishChunks(s *Sentence, header []int) error {
	for i := range s.Chunks {
		c := &s.Chunks[i]
		end := len(s.Tokens)
		if i+1 < len(s.Chunks) {
			end = s.Chunks[i+1].TokenStart
		}
		c.TokenCount = end - c.TokenStart
		if c.TokenCount <= 0 {
			return fmt.Errorf("chunk %d has no tokens", i)
		}
		c.Head = c.TokenStart + header[2*i]
		c.Func = c.TokenStart + header[2*i+1]
		if !c.Contains(c.Head) {
			return fmt.Errorf("chunk %d head %d outside [%d:%d)", i, c.Head, c.TokenStart, c.End())
		}
	}
	return nil
}

// WriteLattice writes s in the format read by ReadLattice, ending with EOS.
func WriteLattice(w io.Writer, s Sentence) error {
	bw := bufio.NewWriter(w)
	ci := 0
	for i, t := range s.Tokens {
		for ci < len(s.Chunks) && s.Chunks[ci].TokenStart == i {
			c := s.Chunks[ci]
			fmt.Fprintf(bw, "* %d %dD %d/%d %f\n",
				c.Index, c.Link, c.Head-c.TokenStart, c.Func-c.TokenStart, c.Score)
			ci++
		}
		fmt.Fprintf(bw, "%s\t%s\n", t.Surface, strings.Join(features(t), ","))
	}
	if _, err := bw.WriteString("EOS\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// features returns the IPA feature columns of t, trimmed of trailing empty
// columns.
func features(t tokenizer.Token) []string {
	cols := []string{
		t.PosJP, t.Detail1, t.Detail2, t.Detail3,
		t.InflType, t.InflForm, t.BaseForm, t.Reading, t.Pronunciation,
	}
	for len(cols) > 0 && cols[len(cols)-1] == "" {
		cols = cols[:len(cols)-1]
	}
	for i, c := range cols {
		if c == "" {
			cols[i] = "*"
		}
	}
	return cols
}
