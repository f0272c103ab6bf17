package models

import "time"

// Message is a fetched mail reduced to what mayrist shows.
type Message struct {
	UID     uint32
	From    string
	Date    time.Time
	Subject string
	Body    string
}
