package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jpsa-nlp/jpsa/internal/jakey"
)

// scannerBufSize bounds a single dictionary line.
const scannerBufSize = 1 << 20 // 1 MiB

// Format identifies the column layout of a dictionary source.
type Format int

const (
	// FormatWago: "<class>\t<phrase>" where the class label starts with
	// ポジ (positive) or ネガ (negative), e.g. "ネガ（経験）\t気 が 重い".
	// The phrase may be several space-separated base forms.
	FormatWago Format = iota
	// FormatPN: "<word>\t<class>[\t<note>]" where class is p, n or e.
	// Any other class is neutral.
	FormatPN
	// FormatTSV: "<key>\t<polarity>" with an integer polarity.
	// Blank lines and lines starting with '#' are ignored.
	FormatTSV
)

// String returns the name of the format.
func (f Format) String() string {
	switch f {
	case FormatWago:
		return "wago"
	case FormatPN:
		return "pn"
	case FormatTSV:
		return "tsv"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "wago":
		return FormatWago, nil
	case "pn":
		return FormatPN, nil
	case "tsv":
		return FormatTSV, nil
	default:
		return 0, fmt.Errorf("lexicon: unknown format: %q", s)
	}
}

// Source is one dictionary input.
type Source struct {
	Format Format
	Name   string // used in error messages
	Open   func() (io.ReadCloser, error)
}

// FileSource returns a Source reading the file at path.
func FileSource(f Format, path string) Source {
	return Source{
		Format: f,
		Name:   path,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// StringSource returns a Source reading s.
func StringSource(f Format, s string) Source {
	return Source{
		Format: f,
		Name:   f.String(),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(s)), nil
		},
	}
}

// wagoClasses maps the two-rune class prefix of FormatWago lines.
var wagoClasses = map[string]int{
	"ポジ": Positive,
	"ネガ": Negative,
}

// pnClasses maps FormatPN class letters. Absent letters are Neutral.
var pnClasses = map[string]int{
	"p": Positive,
	"n": Negative,
	"e": Neutral,
}

// Load merges sources in order into a new Lexicon. Entries from later
// sources override earlier ones for the same key. The empty key and the
// copula "だ" are removed after merging.
func Load(sources ...Source) (*Lexicon, error) {
	m := make(map[string]int, 1024) //nolint:mnd
	for _, src := range sources {
		if err := loadSource(m, src); err != nil {
			return nil, err
		}
	}
	for _, k := range excludedKeys {
		delete(m, k)
	}
	return &Lexicon{entries: m}, nil
}

func loadSource(m map[string]int, src Source) error {
	if src.Open == nil {
		return fmt.Errorf("lexicon: source %q has no reader", src.Name)
	}
	rc, err := src.Open()
	if err != nil {
		return fmt.Errorf("lexicon: open %s: %w", src.Name, err)
	}
	defer func() { _ = rc.Close() }()

	var parse func(fields []string) (string, int, bool)
	switch src.Format {
	case FormatWago:
		parse = parseWago
	case FormatPN:
		parse = parsePN
	case FormatTSV:
		parse = parseTSV
	default:
		return fmt.Errorf("lexicon: source %q: unknown format %v", src.Name, src.Format)
	}

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), scannerBufSize) //nolint:mnd
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		key, p, ok := parse(strings.Split(line, "\t"))
		if !ok {
			continue
		}
		m[key] = p
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("lexicon: read %s: %w", src.Name, err)
	}
	return nil
}

// parseWago reads "<class>\t<phrase>". Lines whose class is neither
// positive nor negative are skipped.
func parseWago(fields []string) (string, int, bool) {
	if len(fields) < 2 { //nolint:mnd
		return "", 0, false
	}
	p, ok := wagoClasses[prefixRunes(fields[0], 2)] //nolint:mnd
	if !ok {
		return "", 0, false
	}
	return jakey.ToLower(jakey.Phrase(fields[1])), p, true
}

// parsePN reads "<word>\t<class>". The word is kept verbatim, so a blank
// word yields the empty key, which Load removes.
func parsePN(fields []string) (string, int, bool) {
	if len(fields) < 2 { //nolint:mnd
		return "", 0, false
	}
	return fields[0], pnClasses[strings.TrimSpace(fields[1])], true
}

// parseTSV reads "<key>\t<polarity>".
func parseTSV(fields []string) (string, int, bool) {
	if len(fields) < 2 || strings.HasPrefix(fields[0], "#") { //nolint:mnd
		return "", 0, false
	}
	p, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return "", 0, false
	}
	return fields[0], clamp(p), true
}

// clamp restricts p to the polarity range.
func clamp(p int) int {
	switch {
	case p > Positive:
		return Positive
	case p < Negative:
		return Negative
	default:
		return p
	}
}

// prefixRunes returns the first n runes of s.
func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
