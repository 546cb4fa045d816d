package render

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

// Renderer formats message bodies as terminal markdown. Fenced code blocks
// tagged with a language are syntax-highlighted; untagged code stays plain.
type Renderer struct {
	term *glamour.TermRenderer
}

func New(wordWrap int) (*Renderer, error) {
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{term: term}, nil
}

// Body renders the message body. If markdown rendering fails the raw text
// is shown instead.
func (r *Renderer) Body(message model.Message) string {
	if r == nil || r.term == nil {
		return message.Body
	}
	out, err := r.term.Render(message.Body)
	if err != nil {
		return message.Body
	}
	return strings.TrimRight(out, "\n")
}

// AttachmentName derives the display filename from a retrieval link: the
// last path segment with any query string stripped.
func AttachmentName(link string) string {
	name := link
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	return name
}

// IsMine reports whether the viewing principal authored the message. It
// gates the delete control and nothing else.
func IsMine(message model.Message, principal *model.Principal) bool {
	if principal == nil {
		return false
	}
	return message.AuthorName == principal.DisplayName
}
