package score

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// Rule names recorded in a Trace.
const (
	RuleTrigram = "trigram"
	RuleBigram  = "bigram"
	RuleReverse = "reverse"
)

// Step is one rewrite of the score vector.
type Step struct {
	Index   int    `json:"index"`             // token index being processed
	Rule    string `json:"rule"`              // RuleTrigram, RuleBigram or RuleReverse
	Key     string `json:"key"`               // n-gram key or reversal trigger
	Scope   Scope  `json:"scope,omitempty"`   // reversal scope
	Start   int    `json:"start"`             // rewritten range start
	End     int    `json:"end"`               // rewritten range end, exclusive
	Skipped string `json:"skipped,omitempty"` // why a reversal did not apply
	Vector  []int  `json:"vector"`            // vector after the step
}

// Trace records how Explain arrived at a score.
type Trace struct {
	Keys   []string `json:"keys"`   // lowercased base forms
	Base   []int    `json:"base"`   // lexicon polarities
	Steps  []Step   `json:"steps"`  // rewrites in order
	Vector []int    `json:"vector"` // final vector
	Sum    int      `json:"sum"`
	Score  float64  `json:"score"`
}

// add appends s with a snapshot of vec. No-op on a nil Trace.
func (t *Trace) add(s Step, vec []int) {
	if t == nil {
		return
	}
	s.Vector = slices.Clone(vec)
	t.Steps = append(t.Steps, s)
}

// Skipped returns the number of reversals that did not apply.
func (t *Trace) Skipped() int {
	n := 0
	for _, s := range t.Steps {
		if s.Skipped != "" {
			n++
		}
	}
	return n
}

// WriteTo writes a human-readable rendering of the trace.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "keys   %s\n", strings.Join(t.Keys, " | "))
	fmt.Fprintf(&b, "base   %v\n", t.Base)
	for _, s := range t.Steps {
		switch {
		case s.Skipped != "":
			fmt.Fprintf(&b, "%4d   %s %q (%s) skipped: %s\n", s.Index, s.Rule, s.Key, s.Scope, s.Skipped)
		case s.Rule == RuleReverse:
			fmt.Fprintf(&b, "%4d   %s %q (%s) [%d:%d] -> %v\n", s.Index, s.Rule, s.Key, s.Scope, s.Start, s.End, s.Vector)
		default:
			fmt.Fprintf(&b, "%4d   %s %q [%d:%d] -> %v\n", s.Index, s.Rule, s.Key, s.Start, s.End, s.Vector)
		}
	}
	fmt.Fprintf(&b, "final  %v sum=%d n=%d score=%.2f\n", t.Vector, t.Sum, len(t.Vector), t.Score)
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
