package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/i2tsuki/mayrist/internal/config"
	"github.com/i2tsuki/mayrist/internal/filter"
	"github.com/i2tsuki/mayrist/internal/imap"
	"github.com/i2tsuki/mayrist/internal/message"
	"github.com/i2tsuki/mayrist/internal/report"
	"github.com/i2tsuki/mayrist/internal/rules"
)

// errUsage marks invalid command-line arguments.
var errUsage = errors.New("usage error")

type options struct {
	from       string
	input      string
	configPath string
	delete     bool
}

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, imap.ErrNoMessage):
		_, _ = fmt.Fprintf(os.Stderr, "%v.\n", err)
	default:
		_, _ = fmt.Fprintf(os.Stderr, "err: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps the outcome of run to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp), errors.Is(err, imap.ErrNoMessage):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		return 1
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("mayrist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.from, "from", "", "From e-mail address to filter body based on it")
	fs.StringVar(&opts.input, "input", "", "File that includes body to filter (requires --from)")
	fs.StringVar(&opts.configPath, "config", rules.DefaultPath, "Path to the filter rules")
	fs.BoolVar(&opts.delete, "delete", false, "Delete the message after fetching it")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	if opts.input != "" && opts.from == "" {
		return nil, fmt.Errorf("%w: --input requires --from", errUsage)
	}

	return opts, nil
}

// run loads the rules and either filters a local file (--from and --input)
// or fetches the newest unseen message from the mailbox.
func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	rs, err := rules.Load(opts.configPath)
	if err != nil {
		return err
	}

	if opts.from != "" && opts.input != "" {
		return runAdHoc(rs, opts.from, opts.input, stdout)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := log.New(stderr, "", log.LstdFlags)
	return runInbound(rs, cfg, opts.delete, stdout, logger)
}

// runAdHoc filters the body stored in input with the rules of the sender only.
func runAdHoc(rs *rules.RuleSet, from, input string, stdout io.Writer) error {
	body, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("could not read the file `%s`: %w", input, err)
	}

	lines := filter.Clean(filter.NewAdHoc(rs), from, string(body))
	return report.WriteBody(stdout, lines)
}

// runInbound fetches, filters and prints the newest unseen message.
// Progress and debug output go to logger.
func runInbound(rs *rules.RuleSet, cfg *config.Config, deleteAfter bool, stdout io.Writer, logger *log.Logger) error {
	session, err := imap.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Printf("Failed to log out: %v", err)
		}
	}()

	logger.Printf("SEARCH query: %s", rules.SearchQuery(rs.Searches))

	uid, err := session.NewestUnseen(rs.SearchSenders())
	if err != nil {
		return err
	}

	raw, err := session.FetchRaw(uid)
	if err != nil {
		return fmt.Errorf("failed to get the message: %w", err)
	}

	msg, err := message.ParseMessage(raw)
	if err != nil {
		return err
	}
	msg.UID = uid

	logger.Printf("original_body: \n%s", msg.Body)

	lines := filter.Clean(filter.NewInbound(rs), msg.From, msg.Body)
	if err := report.WriteMessage(stdout, msg, lines); err != nil {
		return err
	}

	if deleteAfter {
		if err := session.MarkDeleted(msg.UID); err != nil {
			return fmt.Errorf("failed to delete the message: %w", err)
		}
		logger.Printf("Deleted the message: %d", msg.UID)
	}

	return nil
}
