package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DemioMAD/demiochatplus/internal/hub"
	"github.com/DemioMAD/demiochatplus/internal/model"
	"github.com/DemioMAD/demiochatplus/internal/msgstore"
	"github.com/DemioMAD/demiochatplus/internal/store"
)

func newTestService(t *testing.T) (*service, *hub.Hub) {
	db, err := store.OpenEphemeral()
	if err != nil {
		t.Fatalf("opening database: %+v", err)
	}
	t.Cleanup(func() { db.Close() })

	messages, err := msgstore.New(db)
	if err != nil {
		t.Fatalf("creating message store: %+v", err)
	}

	feedHub := hub.New()
	t.Cleanup(feedHub.Close)

	return New(messages, feedHub), feedHub
}

func TestChatService(t *testing.T) {
	assert := assert.New(t)
	s, feedHub := newTestService(t)

	t.Run("post publishes to the feed", func(t *testing.T) {
		sub := feedHub.Subscribe()
		defer sub.Close()

		message := &model.Message{AuthorName: "alice", Body: "hello", CreatedAt: time.Now().UTC()}
		assert.Nil(s.Post(message))
		assert.NotEmpty(message.ID)

		select {
		case pushed := <-sub.C():
			assert.Equal(message.ID, pushed.ID)
			assert.Equal("hello", pushed.Body)
			assert.Equal("alice", pushed.AuthorName)
			assert.Empty(pushed.AttachmentLink)
		case <-time.After(time.Second):
			t.Fatal("no feed event")
		}

		list, err := s.List()
		assert.Nil(err)
		assert.Len(list, 1)
	})

	t.Run("whitespace-only body with no attachment is rejected", func(t *testing.T) {
		err := s.Post(&model.Message{AuthorName: "alice", Body: "  \n "})
		assert.ErrorIs(err, model.ErrorEmptyMessage)

		list, err := s.List()
		assert.Nil(err)
		assert.Len(list, 1)
	})

	t.Run("attachment-only message is allowed", func(t *testing.T) {
		message := &model.Message{AuthorName: "alice", AttachmentLink: "http://x/files/a/report.pdf?sig=s"}
		assert.Nil(s.Post(message))
		assert.False(message.CreatedAt.IsZero())
	})

	t.Run("delete enforces authorship", func(t *testing.T) {
		list, err := s.List()
		assert.Nil(err)

		id := list[0].ID
		assert.ErrorIs(s.Delete(id, "bob"), model.ErrorAuthorMismatch)
		assert.Nil(s.Delete(id, "alice"))

		list, err = s.List()
		assert.Nil(err)
		assert.Len(list, 1)
	})
}
