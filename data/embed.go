// Package data embeds the sample polarity dictionaries, rule tables and
// demo text.
package data

import _ "embed"

// WagoSample is a sample of the declarative-verb polarity dictionary
// (class label, tab, space-separated phrase).
//
//go:embed wago.sample.pn
var WagoSample string

// PNSample is a sample of the noun polarity dictionary
// (word, tab, p/n/e class, tab, note).
//
//go:embed pn.sample.tsv
var PNSample string

// ReverseRules holds the default reversal rule tables in YAML.
//
//go:embed reverse_rules.yaml
var ReverseRules []byte

// DemoText is the opening of Natsume Soseki's Botchan, scored when the CLI
// is given no input.
//
//go:embed botchan.txt
var DemoText string
