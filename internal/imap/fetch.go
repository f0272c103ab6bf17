package imap

import (
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// FetchRawMessage fetches the full RFC 822 message for the given UID.
// Fetching the body marks the message as seen.
func FetchRawMessage(c *client.Client, uid uint32) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{
		imap.FetchUid,
		section.FetchItem(),
	}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	var raw []byte
	var readErr error
	found := false
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		found = true
		raw, readErr = io.ReadAll(body)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read message body: %w", readErr)
	}
	if !found {
		return nil, fmt.Errorf("server did not return message %d", uid)
	}

	return raw, nil
}

// MarkDeleted adds the \Deleted flag to the message with the given UID.
// The message is removed by the server on the next expunge.
func MarkDeleted(c *client.Client, uid uint32) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.DeletedFlag}
	if err := c.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("failed to store flags: %w", err)
	}

	return nil
}
