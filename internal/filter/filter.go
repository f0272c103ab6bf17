// Package filter strips boilerplate from message bodies.
//
// A body is cut into blocks at blank lines. Blocks matching a global or
// sender-specific block rule are dropped, then lines matching a global line
// rule are dropped from what is left. The result is meant to be passed
// through Normalize before it is shown.
package filter

import (
	"strings"

	"github.com/i2tsuki/mayrist/internal/rules"
)

// blockDelimiter separates blocks in a body and terminates every kept block.
const blockDelimiter = "\n\n"

// Filter applies one configuration of rules to message bodies.
// It only reads its rules and can be reused for any number of messages.
type Filter struct {
	blocks  []rules.BlockRule
	senders []rules.SenderRule
	// lineRules is nil when line rules do not apply.
	lineRules *rules.RuleSet
}

// NewInbound returns the filter used for messages fetched from the mailbox:
// global block rules, the sender's block rules and global line rules.
func NewInbound(rs *rules.RuleSet) *Filter {
	return &Filter{
		blocks:    rs.Blocks,
		senders:   rs.Senders,
		lineRules: rs,
	}
}

// NewAdHoc returns the filter used with --from/--input. Only the matched
// sender's block rules apply; global block and line rules are not used.
func NewAdHoc(rs *rules.RuleSet) *Filter {
	return &Filter{
		senders: rs.Senders,
	}
}

// Apply filters body as sent by from and returns the surviving text.
// Every kept block is followed by a blank-line delimiter and every kept
// line is terminated by a newline.
func (f *Filter) Apply(from, body string) string {
	sender := rules.Resolve(from, f.senders)

	var kept strings.Builder
	for _, block := range strings.Split(strings.ReplaceAll(body, "\r", ""), blockDelimiter) {
		if !f.Keep(block, sender) {
			continue
		}
		kept.WriteString(block)
		kept.WriteString(blockDelimiter)
	}

	var out strings.Builder
	for _, line := range SplitLines(kept.String()) {
		if f.lineRules != nil && f.lineRules.HasLine(line) {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	return out.String()
}

// Keep reports whether block survives the global block rules and the
// block rules of the already resolved sender.
func (f *Filter) Keep(block string, sender rules.SenderRule) bool {
	if rules.Matches(block, f.blocks) {
		return false
	}
	return !rules.Matches(block, sender.Blocks)
}

// SplitLines splits text at newlines. A trailing newline does not produce
// an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Clean runs the whole pipeline and returns the lines ready for display.
func Clean(f *Filter, from, body string) []string {
	return Normalize(SplitLines(f.Apply(from, body)))
}
