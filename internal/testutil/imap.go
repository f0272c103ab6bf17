package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend/memory"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
	"github.com/i2tsuki/mayrist/internal/config"
)

// TestIMAPServer represents a test IMAP server instance.
type TestIMAPServer struct {
	Server   *server.Server
	Address  string
	Backend  *memory.Backend
	cleanup  func()
	username string
	password string
}

// NewTestIMAPServer creates a new test IMAP server with an in-memory backend.
// The memory backend creates a default user with username "username" and
// password "password", and an INBOX holding one already seen message.
func NewTestIMAPServer(t *testing.T) *TestIMAPServer {
	t.Helper()

	be := memory.New()

	s := server.New(be)
	s.AllowInsecureAuth = true

	// Start server on random port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	addr := listener.Addr().String()

	go func() {
		if err := s.Serve(listener); err != nil {
			t.Logf("IMAP server error: %v", err)
		}
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	cleanup := func() {
		_ = s.Close()
	}

	return &TestIMAPServer{
		Server:   s,
		Address:  addr,
		Backend:  be,
		cleanup:  cleanup,
		username: "username",
		password: "password",
	}
}

// Close shuts down the test IMAP server.
func (s *TestIMAPServer) Close() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// Config returns settings that point at the test server without TLS.
func (s *TestIMAPServer) Config(t *testing.T) *config.Config {
	t.Helper()

	host, port, err := net.SplitHostPort(s.Address)
	if err != nil {
		t.Fatalf("Failed to split server address: %v", err)
	}

	return &config.Config{
		Environment:  "test",
		IMAPHost:     host,
		IMAPPort:     port,
		IMAPUser:     s.username,
		IMAPPassword: s.password,
		IMAPMailbox:  "INBOX",
		IMAPUseTLS:   false,
	}
}

// Connect creates a new IMAP client connection to the test server.
func (s *TestIMAPServer) Connect(t *testing.T) (*imapclient.Client, func()) {
	t.Helper()

	client, err := imapclient.Dial(s.Address)
	if err != nil {
		t.Fatalf("Failed to connect to test server: %v", err)
	}

	if err := client.Login(s.username, s.password); err != nil {
		_ = client.Logout()
		t.Fatalf("Failed to login: %v", err)
	}

	cleanup := func() {
		_ = client.Logout()
	}

	return client, cleanup
}

// AddMessage appends an unseen plain text message to the folder and returns its UID.
func (s *TestIMAPServer) AddMessage(t *testing.T, folderName, messageID, from, subject, body string) uint32 {
	t.Helper()

	raw := fmt.Sprintf("Message-ID: %s\r\nDate: %s\r\nFrom: %s\r\nTo: username@example.com\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		messageID, time.Now().Format(time.RFC1123Z), from, subject, strings.ReplaceAll(body, "\n", "\r\n"))

	return s.AppendRaw(t, folderName, messageID, raw, nil)
}

// AppendRaw appends a raw RFC 822 message with the given flags and returns
// its UID. The message must carry messageID in its Message-ID header.
func (s *TestIMAPServer) AppendRaw(t *testing.T, folderName, messageID, raw string, flags []string) uint32 {
	t.Helper()

	client, cleanup := s.Connect(t)
	defer cleanup()

	if _, err := client.Select(folderName, false); err != nil {
		t.Fatalf("Failed to select folder: %v", err)
	}

	if err := client.Append(folderName, flags, time.Now(), strings.NewReader(raw)); err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}

	// Search for the message we just added to get its UID
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("Message-ID", messageID)
	uids, err := client.UidSearch(criteria)
	if err != nil {
		t.Fatalf("Failed to search for message: %v", err)
	}

	if len(uids) == 0 {
		t.Fatalf("Message not found after append")
	}

	return uids[0]
}

// Flags returns the flags currently set on the message with the given UID.
func (s *TestIMAPServer) Flags(t *testing.T, folderName string, uid uint32) []string {
	t.Helper()

	client, cleanup := s.Connect(t)
	defer cleanup()

	if _, err := client.Select(folderName, true); err != nil {
		t.Fatalf("Failed to select folder: %v", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- client.UidFetch(seqSet, []imap.FetchItem{imap.FetchFlags, imap.FetchUid}, messages)
	}()

	var flags []string
	for msg := range messages {
		flags = msg.Flags
	}
	if err := <-done; err != nil {
		t.Fatalf("Failed to fetch flags: %v", err)
	}

	return flags
}
