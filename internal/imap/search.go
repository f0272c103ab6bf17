package imap

import (
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// SearchCriteria builds the criteria for unseen messages from any of the
// given senders. Each sender is a substring of the From header. Without
// senders every unseen message matches.
func SearchCriteria(froms []string) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	if len(froms) > 0 {
		criteria = anyFrom(froms)
	}
	criteria.WithoutFlags = []string{imap.SeenFlag}
	return criteria
}

// anyFrom nests OR keys so that any of froms matches.
func anyFrom(froms []string) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	if len(froms) == 1 {
		criteria.Header.Add("From", froms[0])
		return criteria
	}

	first := imap.NewSearchCriteria()
	first.Header.Add("From", froms[0])
	criteria.Or = [][2]*imap.SearchCriteria{{first, anyFrom(froms[1:])}}
	return criteria
}

// SearchUIDs runs a UID SEARCH on the selected mailbox.
func SearchUIDs(c *client.Client, criteria *imap.SearchCriteria) ([]uint32, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	return uids, nil
}

// newestUID returns the highest UID, which is the most recently added message.
func newestUID(uids []uint32) (uint32, bool) {
	var newest uint32
	for _, uid := range uids {
		if uid > newest {
			newest = uid
		}
	}
	return newest, newest != 0
}
