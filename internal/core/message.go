package core

import "time"

// Message is the domain model for a chat message. AuthorName is the
// author's display name at send time.
type Message struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Content    string
	SentAt     time.Time
}

// User is a connected, named participant.
type User struct {
	ID            string
	Username      string
	ConnectionID  string
	ActiveChannel string
}
