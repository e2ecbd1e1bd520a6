// Package normalize cleans raw Japanese text before tokenization.
//
// Preprocess applies, in order:
//
//   - Unicode NFKC normalization (full-width Latin and digits become ASCII,
//     half-width katakana becomes full-width);
//   - lowercasing;
//   - replacement of brackets 【】（）()［］[] with a space;
//   - removal of @mentions (ASCII or full-width at sign);
//   - removal of http(s) URLs that are followed by whitespace;
//   - replacement of the ideographic space U+3000 with an ASCII space.
//
// Blocks splits a document into the blocks that sentence segmentation
// works on.
//
// All functions are safe for concurrent use by multiple goroutines.
//
// Known limitations:
//
//   - A URL at the very end of the input, with no whitespace after it, is
//     kept.
//   - Preprocess is not idempotent for inputs where removing one URL or
//     mention brings the pieces of another one together.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jpsa-nlp/jpsa/internal/jakey"
)

// EscapedNewline is the two-character sequence backslash, n. Texts scraped
// from JSON or CSV often carry it instead of a real line break.
const EscapedNewline = `\n`

var (
	reBrackets = regexp.MustCompile(`[【】（）()［］\[\]]`)
	// Mentions: at sign followed by word characters in any script.
	reMention = regexp.MustCompile(`[@＠][\p{L}\p{N}_]+`)
	// URLs end at the first CR, LF or space, which is consumed with them.
	reURL = regexp.MustCompile(`https?://.*?[\r\n ]`)
)

// Preprocess normalizes s for tokenization. See the package documentation
// for the steps. Returns "" for "".
func Preprocess(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = jakey.ToLower(s)
	s = reBrackets.ReplaceAllLiteralString(s, " ")
	s = reMention.ReplaceAllLiteralString(s, "")
	s = reURL.ReplaceAllLiteralString(s, "")
	return strings.ReplaceAll(s, "　", " ")
}

// Blocks splits text on escaped newlines (EscapedNewline) and returns the
// blocks that contain anything other than whitespace. Real line breaks
// stay inside their block; tokenizers treat them as spaces, so a sentence
// may continue across a line. Blocks are returned as-is, without trimming.
func Blocks(text string) []string {
	var out []string
	for part := range strings.SplitSeq(text, EscapedNewline) {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}
