package feed

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/DemioMAD/demiochatplus/internal/blobstore"
	"github.com/DemioMAD/demiochatplus/internal/model"
)

// Attachment links stay valid for an hour.
const linkTTLSeconds = 3600

type Attachment struct {
	Name string
	Data []byte
}

// Composer holds the draft text and selected attachment for the input box
// and turns them into committed messages. The sender path never appends
// locally; the committed message comes back through the feed.
type Composer struct {
	backend    Backend
	principal  *model.Principal
	text       string
	attachment *Attachment
}

func NewComposer(backend Backend, principal *model.Principal) *Composer {
	return &Composer{backend: backend, principal: principal}
}

func (c *Composer) SetText(text string) { c.text = text }
func (c *Composer) Text() string        { return c.text }

func (c *Composer) Attach(attachment *Attachment) { c.attachment = attachment }
func (c *Composer) Attachment() *Attachment       { return c.attachment }
func (c *Composer) ClearAttachment()              { c.attachment = nil }

// Submit commits the draft. It reports false without touching the backend
// when there is nothing to send. Upload or link-signing failures abort the
// whole send; the draft is only cleared after a successful commit.
func (c *Composer) Submit(ctx context.Context) (bool, error) {
	if strings.TrimSpace(c.text) == "" && c.attachment == nil {
		return false, nil
	}

	link := ""
	if c.attachment != nil {
		path := blobstore.UploadPath(c.attachment.Name)
		if err := c.backend.UploadFile(ctx, path, bytes.NewReader(c.attachment.Data)); err != nil {
			return false, err
		}
		signed, err := c.backend.CreateSignedLink(ctx, path, linkTTLSeconds)
		if err != nil {
			return false, err
		}
		link = signed
	}

	message := model.Message{
		ID:             model.MessageID(model.CreateID()),
		AuthorName:     c.principal.DisplayName,
		Body:           c.text,
		CreatedAt:      time.Now().UTC(),
		AttachmentLink: link,
	}
	if err := c.backend.InsertMessage(ctx, message); err != nil {
		return false, err
	}

	c.text = ""
	c.attachment = nil
	return true, nil
}
