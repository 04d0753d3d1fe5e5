package model

// Attachment is a file the chat platform attached to a message.
type Attachment struct {
	URL  string
	Name string
}

// Message is an inbound direct message as delivered by the chat platform.
type Message struct {
	AuthorID    string
	Username    string
	Content     string
	Attachments []Attachment
	IsBot       bool
	// Direct reports whether the message arrived via DM. Only direct
	// messages drive the verification flow.
	Direct bool
}

// GuildInfo identifies a guild the platform connection can see.
type GuildInfo struct {
	ID   string
	Name string
}
