package score

// splice returns a new vector equal to v with v[start:start+len(repl)]
// replaced by repl. The length of v is preserved.
func splice(v []int, start int, repl []int) []int {
	out := make([]int, 0, len(v))
	out = append(out, v[:start]...)
	out = append(out, repl...)
	return append(out, v[start+len(repl):]...)
}

// reversal returns the replacement for v[start:end]: the negated maximum
// followed by zeros.
func reversal(v []int, start, end int) []int {
	m := v[start]
	for _, x := range v[start+1 : end] {
		m = max(m, x)
	}
	repl := make([]int, end-start)
	repl[0] = -m
	return repl
}
