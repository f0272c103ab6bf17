package message

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // decode non UTF-8 header words
	"github.com/emersion/go-message/mail"
	"github.com/i2tsuki/mayrist/internal/models"
	"github.com/jhillyerd/enmime"
	"github.com/k3a/html2text"
)

// ErrMalformedHeader is returned when the From header is not a single address.
var ErrMalformedHeader = errors.New("invalid from header value")

// ParseMessage converts a raw RFC 822 message to our Message model.
// Headers are decoded with go-message, the body is extracted with enmime.
func ParseMessage(raw []byte) (*models.Message, error) {
	// message.Read still returns a usable entity for unknown charsets and
	// transfer encodings; only the headers are needed here.
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return nil, fmt.Errorf("failed to read message header: %w", err)
	}
	mr := mail.NewReader(entity)

	from, err := formatFrom(mr.Header)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{From: from}

	// A missing or unparsable Date leaves the zero time.
	if date, err := mr.Header.Date(); err == nil {
		msg.Date = date
	}

	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = mr.Header.Get("Subject")
	}

	body, err := parseBody(raw)
	if err != nil {
		return nil, err
	}
	msg.Body = body

	return msg, nil
}

// formatFrom renders the From header as "<name> <<address>>".
// The name is empty when the header carries none.
func formatFrom(h mail.Header) (string, error) {
	addresses, err := h.AddressList("From")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	if len(addresses) != 1 {
		return "", fmt.Errorf("%w: expected one address, got %d", ErrMalformedHeader, len(addresses))
	}

	return fmt.Sprintf("%s <%s>", addresses[0].Name, addresses[0].Address), nil
}

// parseBody parses the email body using enmime and picks the text to filter.
func parseBody(raw []byte) (string, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse email body: %w", err)
	}

	return SelectBody(BodyCandidates(envelope)), nil
}

// BodyCandidates lists the inline text bodies of a message in document order.
// Plain text parts are preferred; HTML parts are converted to text only
// when the message has no plain text part.
func BodyCandidates(envelope *enmime.Envelope) []string {
	if envelope == nil {
		return nil
	}

	var candidates []string
	if envelope.Root != nil {
		for _, part := range envelope.Root.DepthMatchAll(inlineOf("text/plain")) {
			candidates = append(candidates, string(part.Content))
		}
		if len(candidates) > 0 {
			return candidates
		}

		for _, part := range envelope.Root.DepthMatchAll(inlineOf("text/html")) {
			candidates = append(candidates, html2text.HTML2Text(string(part.Content)))
		}
		if len(candidates) > 0 {
			return candidates
		}
	}

	if envelope.Text != "" {
		return []string{envelope.Text}
	}
	if envelope.HTML != "" {
		return []string{html2text.HTML2Text(envelope.HTML)}
	}

	return nil
}

// inlineOf matches non-attachment parts of the given media type.
// A root part without Content-Type counts as text/plain.
func inlineOf(mediaType string) enmime.PartMatcher {
	return func(p *enmime.Part) bool {
		if p.Disposition == "attachment" {
			return false
		}
		contentType := p.ContentType
		if contentType == "" && p.Parent == nil {
			contentType = "text/plain"
		}
		return contentType == mediaType
	}
}

// SelectBody returns the last candidate, or "" when there is none.
func SelectBody(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return candidates[len(candidates)-1]
}
