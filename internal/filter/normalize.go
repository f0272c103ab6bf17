package filter

// normalizerState tracks whether the last emitted line was blank.
type normalizerState int

const (
	afterContent normalizerState = iota
	afterBlank
)

// Normalizer collapses runs of blank lines into a single blank line.
// The zero value is ready to use.
type Normalizer struct {
	state normalizerState
}

// Next feeds one line and returns the line to emit, if any.
func (n *Normalizer) Next(line string) (string, bool) {
	if line != "" {
		n.state = afterContent
		return line, true
	}
	if n.state == afterBlank {
		return "", false
	}
	n.state = afterBlank
	return "", true
}

// Normalize returns lines with consecutive blank lines collapsed.
// Non-blank lines pass through unchanged.
func Normalize(lines []string) []string {
	var n Normalizer
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if emitted, ok := n.Next(line); ok {
			out = append(out, emitted)
		}
	}
	return out
}
