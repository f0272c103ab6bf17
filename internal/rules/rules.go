package rules

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where the filter rules are read from unless told otherwise.
const DefaultPath = "./filter.toml"

// ErrConfig is returned when the rule file cannot be read, decoded or compiled.
var ErrConfig = errors.New("invalid filter configuration")

// RuleSet is the loaded filter configuration. It is never modified after Parse.
type RuleSet struct {
	Searches []SenderQuery
	Blocks   []BlockRule
	Lines    map[string]struct{}
	Senders  []SenderRule
}

// fileFormat mirrors the layout of filter.toml:
//
//	[[search]]
//	from = "news@example.com"
//
//	[all]
//	block = ["Sent from my iPhone"]
//	line = ["--"]
//
//	[[message]]
//	from = "example.com"
//	block = ["Unsubscribe at <url>"]
type fileFormat struct {
	Search []struct {
		From string `toml:"from"`
	} `toml:"search"`
	All struct {
		Block []string `toml:"block"`
		Line  []string `toml:"line"`
	} `toml:"all"`
	Message []struct {
		From  string   `toml:"from"`
		Block []string `toml:"block"`
	} `toml:"message"`
}

// Load reads and parses the rule file at path.
func Load(path string) (*RuleSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read the file `%s`: %w", ErrConfig, path, err)
	}

	rs, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the file `%s`: %w", path, err)
	}

	return rs, nil
}

// Parse decodes TOML rule data and compiles every block rule.
// Unknown keys are reported as warnings and otherwise ignored.
func Parse(data []byte) (*RuleSet, error) {
	var raw fileFormat
	metadata, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		log.Printf("Warning: filter configuration contains unknown keys that will be ignored:")
		for _, key := range undecoded {
			log.Printf("Warning:   - %s", key.String())
		}
	}

	rs := &RuleSet{
		Searches: make([]SenderQuery, 0, len(raw.Search)),
		Lines:    make(map[string]struct{}, len(raw.All.Line)),
		Senders:  make([]SenderRule, 0, len(raw.Message)),
	}

	for _, s := range raw.Search {
		rs.Searches = append(rs.Searches, SenderQuery{From: s.From})
	}

	rs.Blocks, err = compileBlocks(raw.All.Block)
	if err != nil {
		return nil, fmt.Errorf("%w: all: %w", ErrConfig, err)
	}

	for _, line := range raw.All.Line {
		rs.Lines[line] = struct{}{}
	}

	for i, m := range raw.Message {
		blocks, err := compileBlocks(m.Block)
		if err != nil {
			return nil, fmt.Errorf("%w: message[%d] (from %q): %w", ErrConfig, i, m.From, err)
		}
		rs.Senders = append(rs.Senders, SenderRule{From: m.From, Blocks: blocks})
	}

	return rs, nil
}

func compileBlocks(raw []string) ([]BlockRule, error) {
	blocks := make([]BlockRule, 0, len(raw))
	for _, r := range raw {
		rule, err := CompileBlockRule(r)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, rule)
	}
	return blocks, nil
}

// HasLine reports whether line is exactly one of the global line rules.
func (rs *RuleSet) HasLine(line string) bool {
	_, ok := rs.Lines[line]
	return ok
}

// SearchSenders returns the From substrings used to search the mailbox.
func (rs *RuleSet) SearchSenders() []string {
	froms := make([]string, 0, len(rs.Searches))
	for _, s := range rs.Searches {
		froms = append(froms, s.From)
	}
	return froms
}
