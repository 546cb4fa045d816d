package model

import "time"

type MessageID string

// Message is a single channel entry. Body and AttachmentLink are
// independently optional but never both empty.
type Message struct {
	ID             MessageID `db:"ID" json:"id"`
	AuthorName     string    `db:"AuthorName" json:"author_name"`
	Body           string    `db:"Body" json:"body"`
	CreatedAt      time.Time `db:"CreatedAt" json:"created_at"`
	AttachmentLink string    `db:"AttachmentLink" json:"attachment_link,omitempty"`
}

func (m *Message) IsEmpty() bool {
	return m.Body == "" && m.AttachmentLink == ""
}
