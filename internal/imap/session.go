package imap

import (
	"errors"
	"fmt"
	"log"

	"github.com/emersion/go-imap/client"
	"github.com/i2tsuki/mayrist/internal/config"
)

var (
	// ErrProtocol wraps every failure talking to the IMAP server.
	ErrProtocol = errors.New("imap protocol error")
	// ErrNoMessage is returned when the search finds no message.
	ErrNoMessage = errors.New("there are no messages in the mailbox")
)

// Session is one logged-in connection with a selected mailbox.
// It is used sequentially: search, fetch, optionally flag, then Close.
type Session struct {
	client  *client.Client
	mailbox string
}

// Open connects, logs in and selects the configured mailbox.
func Open(cfg *config.Config) (*Session, error) {
	c, err := ConnectToIMAP(cfg.Address(), cfg.IMAPUseTLS)
	if err != nil {
		return nil, protocolError(err)
	}

	if err := Login(c, cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		_ = c.Logout()
		return nil, protocolError(err)
	}

	return newSession(c, cfg.IMAPMailbox)
}

func newSession(c *client.Client, mailbox string) (*Session, error) {
	if _, err := c.Select(mailbox, false); err != nil {
		_ = c.Logout()
		return nil, protocolError(fmt.Errorf("failed to select %s: %w", mailbox, err))
	}

	return &Session{client: c, mailbox: mailbox}, nil
}

// NewestUnseen returns the UID of the newest unseen message from any of
// the given senders. It returns ErrNoMessage when nothing matches.
func (s *Session) NewestUnseen(froms []string) (uint32, error) {
	uids, err := SearchUIDs(s.client, SearchCriteria(froms))
	if err != nil {
		return 0, protocolError(err)
	}

	log.Printf("Found %d messages matching criteria in %s", len(uids), s.mailbox)

	uid, ok := newestUID(uids)
	if !ok {
		return 0, ErrNoMessage
	}

	return uid, nil
}

// FetchRaw returns the full RFC 822 message with the given UID.
func (s *Session) FetchRaw(uid uint32) ([]byte, error) {
	raw, err := FetchRawMessage(s.client, uid)
	if err != nil {
		return nil, protocolError(err)
	}
	return raw, nil
}

// MarkDeleted flags the message with the given UID as \Deleted.
func (s *Session) MarkDeleted(uid uint32) error {
	if err := MarkDeleted(s.client, uid); err != nil {
		return protocolError(err)
	}
	return nil
}

// Close logs out from the server.
func (s *Session) Close() error {
	if err := s.client.Logout(); err != nil {
		return protocolError(fmt.Errorf("failed to log out: %w", err))
	}
	return nil
}

func protocolError(err error) error {
	return fmt.Errorf("%w: %w", ErrProtocol, err)
}
