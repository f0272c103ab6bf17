package report

import (
	"fmt"
	"io"
	"time"

	"github.com/i2tsuki/mayrist/internal/models"
)

// WriteMessage prints the headers of msg followed by the cleaned body lines.
// A zero date is printed as an empty value.
func WriteMessage(w io.Writer, msg *models.Message, lines []string) error {
	date := ""
	if !msg.Date.IsZero() {
		date = msg.Date.Format(time.RFC3339)
	}

	if _, err := fmt.Fprintf(w, "from: %s\ndate: %s\nsubject: %s\n", msg.From, date, msg.Subject); err != nil {
		return fmt.Errorf("failed to write message header: %w", err)
	}

	return WriteBody(w, lines)
}

// WriteBody prints "body:" and then one line per entry.
func WriteBody(w io.Writer, lines []string) error {
	if _, err := io.WriteString(w, "body:\n"); err != nil {
		return fmt.Errorf("failed to write body: %w", err)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write body: %w", err)
		}
	}

	return nil
}
