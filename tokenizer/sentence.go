package tokenizer

import "strings"

// eosMarks is the closed set of token surfaces that end a sentence.
var eosMarks = map[string]bool{
	"。":  true,
	"．":  true,
	"！":  true,
	"？":  true,
	"!?": true,
	"!":  true,
	"?":  true,
}

// IsEOSMark reports whether surface ends a sentence.
func IsEOSMark(surface string) bool {
	return eosMarks[surface]
}

// Split groups the tokens of one text block into sentences. A sentence
// closes after a token whose surface is an EOS mark; any trailing
// remainder forms a final sentence. Each sentence is a new slice with
// indices renumbered from 0. Quotations are not tracked:
// 「今日は雨ね。」と母がいった splits after 。.
func Split(tokens []Token) [][]Token {
	var (
		sentences [][]Token
		cur       []Token
	)
	for _, t := range tokens {
		t.Index = len(cur)
		cur = append(cur, t)
		if IsEOSMark(t.Surface) {
			sentences = append(sentences, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		sentences = append(sentences, cur)
	}
	return sentences
}

// Text concatenates the surfaces of tokens. Whitespace the analyzer
// dropped is not restored.
func Text(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Surface)
	}
	return b.String()
}

// Segment returns the text of each sentence of Split(tokens).
func Segment(tokens []Token) []string {
	split := Split(tokens)
	if len(split) == 0 {
		return nil
	}
	sentences := make([]string, len(split))
	for i, s := range split {
		sentences[i] = Text(s)
	}
	return sentences
}
