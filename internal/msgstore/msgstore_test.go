package msgstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DemioMAD/demiochatplus/internal/model"
	"github.com/DemioMAD/demiochatplus/internal/store"
)

func newTestStore(t *testing.T) *msgstore {
	db, err := store.OpenEphemeral()
	if err != nil {
		t.Fatalf("opening database: %+v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := New(db)
	if err != nil {
		t.Fatalf("creating message store: %+v", err)
	}
	return s
}

func TestMessageStore(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)

	t.Run("insert and fetch preserves order", func(t *testing.T) {
		assert.Nil(s.Insert(&model.Message{ID: "m1", AuthorName: "alice", Body: "hello", CreatedAt: now}))
		assert.Nil(s.Insert(&model.Message{ID: "m2", AuthorName: "bob", Body: "hi", CreatedAt: now}))
		assert.Nil(s.Insert(&model.Message{ID: "m3", AuthorName: "alice", Body: "", CreatedAt: now, AttachmentLink: "http://x/files/a/report.pdf?sig=s"}))

		messages, err := s.FetchAll()
		assert.Nil(err)
		assert.Len(messages, 3)
		assert.Equal(model.MessageID("m1"), messages[0].ID)
		assert.Equal(model.MessageID("m2"), messages[1].ID)
		assert.Equal(model.MessageID("m3"), messages[2].ID)
	})

	t.Run("empty message is rejected", func(t *testing.T) {
		err := s.Insert(&model.Message{ID: "m4", AuthorName: "alice", CreatedAt: now})
		assert.ErrorIs(err, model.ErrorEmptyMessage)
	})

	t.Run("delete requires matching author", func(t *testing.T) {
		err := s.Delete("m1", "bob")
		assert.ErrorIs(err, model.ErrorAuthorMismatch)

		err = s.Delete("m1", "alice")
		assert.Nil(err)

		messages, err := s.FetchAll()
		assert.Nil(err)
		assert.Len(messages, 2)
	})

	t.Run("delete of unknown message", func(t *testing.T) {
		err := s.Delete("missing", "alice")
		assert.ErrorIs(err, model.ErrorMessageNotFound)
	})
}
