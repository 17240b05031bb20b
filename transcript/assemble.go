// Package transcript accumulates streamed text deltas into a growing transcript.
package transcript

import "strings"

// Assembler concatenates ordered text deltas into one cumulative transcript.
// Deltas must be applied in arrival order; they are never reordered or
// deduplicated. The zero value is ready to use.
type Assembler struct {
	b strings.Builder
}

// Append applies one delta and returns the cumulative transcript so far.
func (a *Assembler) Append(delta string) string {
	a.b.WriteString(delta)
	return a.b.String()
}

// String returns the cumulative transcript assembled so far.
func (a *Assembler) String() string {
	return a.b.String()
}

// Len returns the byte length of the assembled transcript.
func (a *Assembler) Len() int {
	return a.b.Len()
}

// Normalize collapses internal whitespace runs and trims the edges of
// recognized text. Whitespace-only input normalizes to the empty string.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
