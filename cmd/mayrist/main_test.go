package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goimap "github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2tsuki/mayrist/internal/config"
	"github.com/i2tsuki/mayrist/internal/imap"
	"github.com/i2tsuki/mayrist/internal/message"
	"github.com/i2tsuki/mayrist/internal/rules"
	"github.com/i2tsuki/mayrist/internal/testutil"
)

const testRules = `
[[search]]
from = "alice@example.com"

[all]
block = ["Sent from my iPhone"]
line = ["--"]

[[message]]
from = "alice@example.com"
block = ["Alice Example, Example Corp"]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func setServerEnv(t *testing.T, server *testutil.TestIMAPServer) {
	t.Helper()
	host, port, err := net.SplitHostPort(server.Address)
	require.NoError(t, err)

	t.Setenv("MAYRIST_ENV", "test")
	t.Setenv("IMAP_HOST", host)
	t.Setenv("IMAP_PORT", port)
	t.Setenv("IMAP_USER", "username")
	t.Setenv("IMAP_PASSWORD", "password")
	t.Setenv("IMAP_MAILBOX", "INBOX")
	t.Setenv("IMAP_TLS", "false")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "help", err: flag.ErrHelp, want: 0},
		{name: "no message", err: imap.ErrNoMessage, want: 0},
		{name: "usage", err: errUsage, want: 2},
		{name: "rules", err: rules.ErrConfig, want: 1},
		{name: "settings", err: config.ErrConfig, want: 1},
		{name: "protocol", err: imap.ErrProtocol, want: 1},
		{name: "header", err: message.ErrMalformedHeader, want: 1},
		{name: "other", err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestParseFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := parseFlags(nil, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, rules.DefaultPath, opts.configPath)
		assert.False(t, opts.delete)
		assert.Empty(t, opts.from)
		assert.Empty(t, opts.input)
	})

	t.Run("all flags", func(t *testing.T) {
		opts, err := parseFlags([]string{"--from", "a@example.com", "--input", "body.txt", "--config", "rules.toml", "--delete"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", opts.from)
		assert.Equal(t, "body.txt", opts.input)
		assert.Equal(t, "rules.toml", opts.configPath)
		assert.True(t, opts.delete)
	})

	t.Run("input requires from", func(t *testing.T) {
		_, err := parseFlags([]string{"--input", "body.txt"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errUsage)
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := parseFlags([]string{"--nope"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errUsage)
	})

	t.Run("positional arguments", func(t *testing.T) {
		_, err := parseFlags([]string{"extra"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errUsage)
	})

	t.Run("help", func(t *testing.T) {
		_, err := parseFlags([]string{"-h"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, flag.ErrHelp)
	})
}

func TestRun_AdHoc(t *testing.T) {
	configPath := writeFile(t, "filter.toml", testRules)
	input := writeFile(t, "body.txt", "Hi Bob,\r\n--\r\n\r\nSent from my iPhone\r\n\r\n\r\n\r\nAlice Example, Example Corp\r\n")

	var stdout bytes.Buffer
	err := run([]string{"--config", configPath, "--from", "Alice <alice@example.com>", "--input", input}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	// Only the sender's block rules apply in this mode.
	assert.Equal(t, "body:\nHi Bob,\n--\n\nSent from my iPhone\n\n", stdout.String())
}

func TestRun_AdHocMissingInput(t *testing.T) {
	configPath := writeFile(t, "filter.toml", testRules)

	err := run([]string{"--config", configPath, "--from", "a@example.com", "--input", filepath.Join(t.TempDir(), "missing.txt")}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not read the file")
	assert.Equal(t, 1, exitCode(err))
}

func TestRun_MissingRules(t *testing.T) {
	err := run([]string{"--config", filepath.Join(t.TempDir(), "filter.toml")}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrConfig)
	assert.Equal(t, 1, exitCode(err))
}

func TestRun_MissingIMAPSettings(t *testing.T) {
	configPath := writeFile(t, "filter.toml", testRules)
	t.Setenv("MAYRIST_ENV", "test")
	t.Setenv("IMAP_HOST", "")
	t.Setenv("IMAP_USER", "")
	t.Setenv("IMAP_PASSWORD", "")

	err := run([]string{"--config", configPath}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestRun_Inbound(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	setServerEnv(t, server)

	uid := server.AddMessage(t, "INBOX", "<lunch@example.com>", "Alice <alice@example.com>", "Lunch",
		"Hi Bob,\n\nSee you at noon.\n--\nAlice\n\nAlice Example, Example Corp\n\nSent from my iPhone")

	configPath := writeFile(t, "filter.toml", testRules)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", configPath, "--delete"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "from: Alice <alice@example.com>\ndate: "), out)
	assert.Contains(t, out, "\nsubject: Lunch\n")
	assert.True(t, strings.HasSuffix(out, "body:\nHi Bob,\n\nSee you at noon.\nAlice\n\n"), out)

	assert.Contains(t, server.Flags(t, "INBOX", uid), goimap.DeletedFlag)

	diagnostics := stderr.String()
	assert.Contains(t, diagnostics, "SEARCH query: FROM alice@example.com UNSEEN\n")
	assert.Contains(t, diagnostics, "original_body: \n")
	assert.Contains(t, diagnostics, "Sent from my iPhone")
	assert.Contains(t, diagnostics, fmt.Sprintf("Deleted the message: %d\n", uid))
	assert.NotContains(t, out, "SEARCH query")
}

func TestRun_InboundNoMessage(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	setServerEnv(t, server)

	server.AddMessage(t, "INBOX", "<other@example.org>", "Bob <bob@example.org>", "Hi", "Hello")

	configPath := writeFile(t, "filter.toml", testRules)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", configPath}, &stdout, &stderr)
	require.Error(t, err)
	assert.ErrorIs(t, err, imap.ErrNoMessage)
	assert.Contains(t, stderr.String(), "SEARCH query: FROM alice@example.com UNSEEN")
	assert.NotContains(t, stderr.String(), "Deleted the message")
	assert.Equal(t, 0, exitCode(err))
	assert.Empty(t, stdout.String())
}
