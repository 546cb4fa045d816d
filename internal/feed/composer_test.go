package feed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposerSubmit(t *testing.T) {
	assert := assert.New(t)

	t.Run("empty draft is a no-op", func(t *testing.T) {
		backend := newFakeBackend()
		composer := NewComposer(backend, backend.principal)

		composer.SetText("   \n  ")
		sent, err := composer.Submit(context.Background())
		assert.Nil(err)
		assert.False(sent)
		assert.Empty(backend.inserted)
		assert.Empty(backend.uploads)
	})

	t.Run("text-only send", func(t *testing.T) {
		backend := newFakeBackend()
		composer := NewComposer(backend, backend.principal)

		composer.SetText("hello")
		sent, err := composer.Submit(context.Background())
		assert.Nil(err)
		assert.True(sent)

		assert.Len(backend.inserted, 1)
		message := backend.inserted[0]
		assert.Equal("alice", message.AuthorName)
		assert.Equal("hello", message.Body)
		assert.NotEmpty(message.ID)
		assert.Empty(message.AttachmentLink)
		assert.False(message.CreatedAt.IsZero())

		// Draft resets after a successful send.
		assert.Equal("", composer.Text())
		assert.Nil(composer.Attachment())
	})

	t.Run("attachment-only send", func(t *testing.T) {
		backend := newFakeBackend()
		composer := NewComposer(backend, backend.principal)

		composer.Attach(&Attachment{Name: "report.pdf", Data: []byte("%PDF")})
		sent, err := composer.Submit(context.Background())
		assert.Nil(err)
		assert.True(sent)

		assert.Len(backend.uploads, 1)
		for path := range backend.uploads {
			assert.True(strings.HasPrefix(path, "files/"))
			assert.True(strings.HasSuffix(path, "/report.pdf"))
		}
		assert.Equal(3600, backend.signedTTL)

		assert.Len(backend.inserted, 1)
		message := backend.inserted[0]
		assert.Equal("", message.Body)
		assert.Equal(backend.link, message.AttachmentLink)
		assert.Contains(message.AttachmentLink, "report.pdf")
	})

	t.Run("upload failure aborts the send", func(t *testing.T) {
		backend := newFakeBackend()
		backend.uploadErr = errors.New("storage down")
		composer := NewComposer(backend, backend.principal)

		composer.SetText("with file")
		composer.Attach(&Attachment{Name: "report.pdf", Data: []byte("%PDF")})
		sent, err := composer.Submit(context.Background())
		assert.NotNil(err)
		assert.False(sent)
		assert.Empty(backend.inserted)

		// The draft survives a failed send.
		assert.Equal("with file", composer.Text())
		assert.NotNil(composer.Attachment())
	})

	t.Run("link signing failure aborts the send", func(t *testing.T) {
		backend := newFakeBackend()
		backend.linkErr = errors.New("signing down")
		composer := NewComposer(backend, backend.principal)

		composer.Attach(&Attachment{Name: "report.pdf", Data: []byte("%PDF")})
		sent, err := composer.Submit(context.Background())
		assert.NotNil(err)
		assert.False(sent)
		assert.Len(backend.uploads, 1)
		assert.Empty(backend.inserted)
	})

	t.Run("commit failure keeps the draft", func(t *testing.T) {
		backend := newFakeBackend()
		backend.insertErr = errors.New("backend down")
		composer := NewComposer(backend, backend.principal)

		composer.SetText("hello")
		sent, err := composer.Submit(context.Background())
		assert.NotNil(err)
		assert.False(sent)
		assert.Equal("hello", composer.Text())
	})

	t.Run("every message has body or attachment", func(t *testing.T) {
		backend := newFakeBackend()
		composer := NewComposer(backend, backend.principal)

		composer.SetText("first")
		_, err := composer.Submit(context.Background())
		assert.Nil(err)
		composer.Attach(&Attachment{Name: "a.txt", Data: []byte("x")})
		_, err = composer.Submit(context.Background())
		assert.Nil(err)

		for _, message := range backend.inserted {
			assert.False(message.IsEmpty())
		}
	})
}
