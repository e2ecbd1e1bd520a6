// Package lexicon maps Japanese words and multi-word phrases to polarity.
//
// A Lexicon is built once from one or more tab-separated dictionary sources
// and is read-only afterwards. Keys are lowercased base forms; multi-word
// keys (bigrams, trigrams) join their base forms with a single space, the
// form produced by jakey.Join.
//
// Lookups never fail: a key that is not present has polarity 0 (neutral).
// This closed-world default is the documented contract of Polarity, not an
// accident of the map type. Lookup reports presence explicitly for callers
// that need to tell "absent" from "explicitly neutral".
//
// All methods are safe for concurrent use by multiple goroutines.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/jpsa-nlp/jpsa/data"
)

// Polarity values.
const (
	Negative = -1
	Neutral  = 0
	Positive = 1
)

// excludedKeys are dropped after all sources are merged. The empty key comes
// from blank dictionary fields; the copula "だ" is a stale entry that would
// otherwise score every assertive sentence.
var excludedKeys = []string{"", "だ"}

// Lexicon is an immutable key → polarity mapping.
type Lexicon struct {
	entries map[string]int
}

// Lookup returns the polarity of key and whether key is present.
func (l *Lexicon) Lookup(key string) (int, bool) {
	if l == nil {
		return Neutral, false
	}
	p, ok := l.entries[key]
	return p, ok
}

// Polarity returns the polarity of key, or Neutral when key is absent.
func (l *Lexicon) Polarity(key string) int {
	p, _ := l.Lookup(key)
	return p
}

// Len returns the number of entries.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Keys returns all keys in sorted order.
func (l *Lexicon) Keys() []string {
	keys := make([]string, 0, l.Len())
	if l == nil {
		return keys
	}
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteTo writes the lexicon as sorted "key\tpolarity" lines, the format
// read back by FormatTSV.
func (l *Lexicon) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, k := range l.Keys() {
		m, err := fmt.Fprintf(bw, "%s\t%d\n", k, l.entries[k])
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// String returns a debug representation, e.g. Lexicon(1234 entries).
func (l *Lexicon) String() string {
	return fmt.Sprintf("Lexicon(%d entries)", l.Len())
}

var defaultLexicon = sync.OnceValues(func() (*Lexicon, error) {
	return Load(
		StringSource(FormatWago, data.WagoSample),
		StringSource(FormatPN, data.PNSample),
	)
})

// Default returns the lexicon built from the embedded sample dictionaries.
// It is built on first use and shared afterwards.
func Default() (*Lexicon, error) {
	return defaultLexicon()
}
