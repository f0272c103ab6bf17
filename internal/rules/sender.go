package rules

import (
	"fmt"
	"strings"
)

// SenderQuery selects which senders are searched for in the mailbox.
type SenderQuery struct {
	From string
}

// SenderRule holds extra block rules for messages whose From header
// contains the From substring.
type SenderRule struct {
	From   string
	Blocks []BlockRule
}

// Resolve returns the sender rule that applies to the given From header.
// Every rule is checked and each match overwrites the previous one, so the
// last matching rule in declaration order wins even when an earlier, broader
// substring matched too. Without a match an empty rule is returned.
func Resolve(from string, senders []SenderRule) SenderRule {
	var selected SenderRule
	for _, rule := range senders {
		if strings.Contains(from, rule.From) {
			selected = rule
		}
	}
	return selected
}

// SearchQuery renders the mailbox search expression for the given senders,
// e.g. "FROM a UNSEEN OR FROM b UNSEEN". An empty result means all unseen messages.
func SearchQuery(queries []SenderQuery) string {
	var b strings.Builder
	for i, q := range queries {
		if i > 0 {
			b.WriteString(" OR ")
		}
		_, _ = fmt.Fprintf(&b, "FROM %s UNSEEN", q.From)
	}
	return b.String()
}
