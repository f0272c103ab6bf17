package rules

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// URLPlaceholder is the token in a block rule that stands for any http(s) URL.
	URLPlaceholder = "<url>"
	// urlPattern is what URLPlaceholder expands to.
	urlPattern = `https?://\S+`
)

// BlockRule describes boilerplate text that is discarded at block granularity.
// A rule matches a block when both are equal after trimming surrounding
// whitespace, or when its compiled pattern matches the tail of the trimmed block.
type BlockRule struct {
	text    string
	pattern *regexp.Regexp
}

// CompileBlockRule trims the rule text and compiles its end-anchored pattern.
// Only URLPlaceholder is rewritten; any other regexp syntax in the rule is
// interpreted as a pattern, so a rule like "Sent from my (iPhone|iPad)" works.
func CompileBlockRule(raw string) (BlockRule, error) {
	text := strings.TrimSpace(raw)

	expr := strings.ReplaceAll(text, URLPlaceholder, urlPattern) + "$"
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return BlockRule{}, fmt.Errorf("invalid block rule %q: %w", raw, err)
	}

	return BlockRule{text: text, pattern: pattern}, nil
}

// MustCompileBlockRule is like CompileBlockRule but panics on error.
func MustCompileBlockRule(raw string) BlockRule {
	rule, err := CompileBlockRule(raw)
	if err != nil {
		panic(err)
	}
	return rule
}

// String returns the trimmed rule text.
func (r BlockRule) String() string {
	return r.text
}

// Match reports whether the block should be discarded under this rule.
func (r BlockRule) Match(block string) bool {
	trimmed := strings.TrimSpace(block)
	if trimmed == r.text {
		return true
	}
	return r.pattern != nil && r.pattern.MatchString(trimmed)
}

// Matches reports whether any of the rules matches the block.
// Rules are tried in order and the first match wins.
func Matches(block string, rules []BlockRule) bool {
	for _, rule := range rules {
		if rule.Match(block) {
			return true
		}
	}
	return false
}
