// Command lexgen merges polarity dictionaries into the key/polarity TSV
// read by the analyzer (JPSA_LEXICON_TSV).
//
// Download the declarative-verb (wago) and noun (pn) dictionaries, then run:
//
//	go run ./cmd/lexgen -wago wago.121808.pn -pn pn.csv.m3.120408.trim -output lexicon.tsv
//
// Entries from -pn override entries from -wago. Keys are lowercased and
// the excluded keys are dropped, exactly as when the dictionaries are
// loaded at startup. Use -output - to write to stdout.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jpsa-nlp/jpsa/lexicon"
)

const defaultOutput = "lexicon.tsv"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "lexgen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("lexgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	wagoPath := fs.String("wago", "", "path to the declarative-verb dictionary (wago format)")
	pnPath := fs.String("pn", "", "path to the noun dictionary (pn format)")
	tsvPath := fs.String("tsv", "", "path to an existing merged TSV, loaded first")
	outputPath := fs.String("output", defaultOutput, "output path, or - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var sources []lexicon.Source
	if *tsvPath != "" {
		sources = append(sources, lexicon.FileSource(lexicon.FormatTSV, *tsvPath))
	}
	if *wagoPath != "" {
		sources = append(sources, lexicon.FileSource(lexicon.FormatWago, *wagoPath))
	}
	if *pnPath != "" {
		sources = append(sources, lexicon.FileSource(lexicon.FormatPN, *pnPath))
	}
	if len(sources) == 0 {
		fs.Usage()
		return errors.New("at least one of -wago, -pn or -tsv is required")
	}

	lex, err := lexicon.Load(sources...)
	if err != nil {
		return err
	}

	size, err := write(lex, *outputPath, stdout)
	if err != nil {
		return err
	}

	var pos, neg int
	for _, k := range lex.Keys() {
		switch p := lex.Polarity(k); {
		case p > 0:
			pos++
		case p < 0:
			neg++
		}
	}
	fmt.Fprintf(stderr, "Total entries: %d\n", lex.Len())
	fmt.Fprintf(stderr, "  positive: %d\n", pos)
	fmt.Fprintf(stderr, "  negative: %d\n", neg)
	fmt.Fprintf(stderr, "  neutral:  %d\n", lex.Len()-pos-neg)
	fmt.Fprintf(stderr, "Output: %s (%d bytes)\n", *outputPath, size)
	return nil
}

func write(lex *lexicon.Lexicon, path string, stdout io.Writer) (int64, error) {
	if path == "-" {
		return lex.WriteTo(stdout)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	w := bufio.NewWriter(out)
	n, err := lex.WriteTo(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return n, err
}
