package feed

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

type fakeSubscription struct {
	ch     chan model.Message
	once   sync.Once
	closed bool
}

func (s *fakeSubscription) C() <-chan model.Message { return s.ch }

func (s *fakeSubscription) Close() {
	s.once.Do(func() {
		s.closed = true
		close(s.ch)
	})
}

type fakeBackend struct {
	principal    *model.Principal
	principalErr error
	snapshot     []model.Message
	snapshotErr  error
	subscribeErr error
	insertErr    error
	deleteErr    error
	uploadErr    error
	linkErr      error

	sub         *fakeSubscription
	signedOut   bool
	fetchCalled bool
	inserted    []model.Message
	deleted     []model.MessageID
	uploads     map[string][]byte
	signedPath  string
	signedTTL   int
	link        string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		principal: &model.Principal{DisplayName: "alice"},
		uploads:   map[string][]byte{},
	}
}

func (b *fakeBackend) CurrentPrincipal(ctx context.Context) (*model.Principal, error) {
	if b.principalErr != nil {
		return nil, b.principalErr
	}
	return b.principal, nil
}

func (b *fakeBackend) SignOut(ctx context.Context) error {
	b.signedOut = true
	return nil
}

func (b *fakeBackend) FetchAllMessages(ctx context.Context) ([]model.Message, error) {
	b.fetchCalled = true
	if b.snapshotErr != nil {
		return nil, b.snapshotErr
	}
	return b.snapshot, nil
}

func (b *fakeBackend) InsertMessage(ctx context.Context, message model.Message) error {
	if b.insertErr != nil {
		return b.insertErr
	}
	b.inserted = append(b.inserted, message)
	return nil
}

func (b *fakeBackend) DeleteMessage(ctx context.Context, id model.MessageID) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, id)
	return nil
}

func (b *fakeBackend) UploadFile(ctx context.Context, path string, data io.Reader) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	raw, _ := io.ReadAll(data)
	b.uploads[path] = raw
	return nil
}

func (b *fakeBackend) CreateSignedLink(ctx context.Context, path string, ttlSeconds int) (string, error) {
	if b.linkErr != nil {
		return "", b.linkErr
	}
	b.signedPath = path
	b.signedTTL = ttlSeconds
	b.link = "http://localhost:8080/files/download/" + path + "?exp=1&sig=abc"
	return b.link, nil
}

func (b *fakeBackend) SubscribeInserts(ctx context.Context) (Subscription, error) {
	if b.subscribeErr != nil {
		return nil, b.subscribeErr
	}
	b.sub = &fakeSubscription{ch: make(chan model.Message, 16)}
	return b.sub, nil
}

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never satisfied")
}

func TestControllerOpen(t *testing.T) {
	assert := assert.New(t)

	t.Run("deactivated principal is signed out before any load", func(t *testing.T) {
		backend := newFakeBackend()
		backend.principal = &model.Principal{DisplayName: "alice", Deleted: true}

		_, err := Open(context.Background(), backend, nil)
		assert.ErrorIs(err, model.ErrorAccountDeactivated)
		assert.True(backend.signedOut)
		assert.False(backend.fetchCalled)
	})

	t.Run("snapshot failure degrades to empty list", func(t *testing.T) {
		backend := newFakeBackend()
		backend.snapshotErr = errors.New("backend down")

		controller, err := Open(context.Background(), backend, nil)
		assert.Nil(err)
		defer controller.Close()

		assert.Empty(controller.Messages())
	})

	t.Run("subscribe failure leaves the feed silent", func(t *testing.T) {
		backend := newFakeBackend()
		backend.snapshot = []model.Message{{ID: "m1", AuthorName: "bob", Body: "hi"}}
		backend.subscribeErr = errors.New("no feed")

		controller, err := Open(context.Background(), backend, nil)
		assert.Nil(err)
		defer controller.Close()

		assert.Len(controller.Messages(), 1)
	})
}

func TestControllerFeed(t *testing.T) {
	assert := assert.New(t)

	backend := newFakeBackend()
	backend.snapshot = []model.Message{{ID: "m1", AuthorName: "bob", Body: "hi"}}

	changes := 0
	controller, err := Open(context.Background(), backend, func() { changes++ })
	assert.Nil(err)

	backend.sub.ch <- model.Message{ID: "m2", AuthorName: "alice", Body: "hello"}
	backend.sub.ch <- model.Message{ID: "m3", AuthorName: "bob", Body: "again"}

	waitFor(t, func() bool { return len(controller.Messages()) == 3 })

	messages := controller.Messages()
	assert.Equal(model.MessageID("m1"), messages[0].ID)
	assert.Equal(model.MessageID("m2"), messages[1].ID)
	assert.Equal(model.MessageID("m3"), messages[2].ID)
	assert.True(changes >= 2)

	// After Close the subscription is gone and the list is frozen.
	controller.Close()
	assert.True(backend.sub.closed)
	assert.Len(controller.Messages(), 3)
}

func TestControllerDelete(t *testing.T) {
	assert := assert.New(t)

	backend := newFakeBackend()
	backend.snapshot = []model.Message{
		{ID: "m1", AuthorName: "alice", Body: "mine"},
		{ID: "m2", AuthorName: "bob", Body: "theirs"},
	}

	controller, err := Open(context.Background(), backend, nil)
	assert.Nil(err)
	defer controller.Close()

	t.Run("failure leaves local state untouched", func(t *testing.T) {
		backend.deleteErr = errors.New("forbidden")
		err := controller.Delete(context.Background(), "m1")
		assert.NotNil(err)
		assert.Len(controller.Messages(), 2)
	})

	t.Run("success removes locally", func(t *testing.T) {
		backend.deleteErr = nil
		err := controller.Delete(context.Background(), "m1")
		assert.Nil(err)

		messages := controller.Messages()
		assert.Len(messages, 1)
		assert.Equal(model.MessageID("m2"), messages[0].ID)
	})
}

// Two controllers over the same backend each hold their own list; an
// insert reaches both.
func TestControllersAreIndependent(t *testing.T) {
	assert := assert.New(t)

	first := newFakeBackend()
	second := newFakeBackend()

	a, err := Open(context.Background(), first, nil)
	assert.Nil(err)
	defer a.Close()
	b, err := Open(context.Background(), second, nil)
	assert.Nil(err)
	defer b.Close()

	event := model.Message{ID: "m1", AuthorName: "alice", Body: "hello"}
	first.sub.ch <- event
	second.sub.ch <- event

	waitFor(t, func() bool { return len(a.Messages()) == 1 && len(b.Messages()) == 1 })
	assert.Equal(a.Messages(), b.Messages())
}
