package main

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/DemioMAD/demiochatplus/internal/feed"
	"github.com/DemioMAD/demiochatplus/internal/model"
	"github.com/DemioMAD/demiochatplus/pkg/client"
)

// scriptedBackend records writes; everything else is inert.
type scriptedBackend struct {
	inserted []model.Message
}

func (b *scriptedBackend) CurrentPrincipal(context.Context) (*model.Principal, error) {
	return &model.Principal{DisplayName: "alice"}, nil
}

func (b *scriptedBackend) SignOut(context.Context) error { return nil }

func (b *scriptedBackend) FetchAllMessages(context.Context) ([]model.Message, error) {
	return nil, nil
}

func (b *scriptedBackend) InsertMessage(_ context.Context, message model.Message) error {
	b.inserted = append(b.inserted, message)
	return nil
}

func (b *scriptedBackend) DeleteMessage(context.Context, model.MessageID) error { return nil }

func (b *scriptedBackend) UploadFile(context.Context, string, io.Reader) error { return nil }

func (b *scriptedBackend) CreateSignedLink(_ context.Context, path string, _ int) (string, error) {
	return "http://files.test/" + path, nil
}

func (b *scriptedBackend) SubscribeInserts(context.Context) (feed.Subscription, error) {
	return &stubSubscription{ch: make(chan model.Message)}, nil
}

type stubSubscription struct{ ch chan model.Message }

func (s *stubSubscription) C() <-chan model.Message { return s.ch }

func (s *stubSubscription) Close() { close(s.ch) }

func newChatModel(backend feed.Backend) appModel {
	m := newApp(client.New("http://localhost:0"))
	m.backend = backend
	m.composer = feed.NewComposer(backend, &model.Principal{DisplayName: "alice"})
	m.page = pageChat
	m.textarea.Focus()
	return m
}

func typeRunes(t *testing.T, m appModel, text string) appModel {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(appModel)
}

func TestComposerKeyboard(t *testing.T) {
	assert := assert.New(t)

	enter := tea.KeyMsg{Type: tea.KeyEnter}
	// The textarea's newline binding is keyed on "shift+enter".
	shiftEnter := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("shift+enter")}

	t.Run("enter sends the draft exactly once", func(t *testing.T) {
		backend := &scriptedBackend{}
		m := newChatModel(backend)
		m = typeRunes(t, m, "hello")

		next, cmd := m.Update(enter)
		m = next.(appModel)
		assert.NotNil(cmd)

		// A second press while the first send is in flight is ignored.
		next, repeat := m.Update(enter)
		m = next.(appModel)
		assert.Nil(repeat)

		next, _ = m.Update(cmd())
		m = next.(appModel)

		assert.Len(backend.inserted, 1)
		assert.Equal("hello", backend.inserted[0].Body)
		assert.Equal("alice", backend.inserted[0].AuthorName)

		// Once the send completes, the next press sends again.
		m = typeRunes(t, m, "again")
		next, cmd = m.Update(enter)
		m = next.(appModel)
		assert.NotNil(cmd)
		m.Update(cmd())
		assert.Len(backend.inserted, 2)
	})

	t.Run("shift+enter breaks the line without sending", func(t *testing.T) {
		backend := &scriptedBackend{}
		m := newChatModel(backend)
		m = typeRunes(t, m, "line1")

		next, _ := m.Update(shiftEnter)
		m = next.(appModel)
		assert.Empty(backend.inserted)
		assert.Equal("line1\n", m.textarea.Value())

		m = typeRunes(t, m, "line2")
		next, cmd := m.Update(enter)
		m = next.(appModel)
		assert.NotNil(cmd)
		m.Update(cmd())

		assert.Len(backend.inserted, 1)
		assert.Equal("line1\nline2", backend.inserted[0].Body)
	})

	t.Run("enter on an empty draft writes nothing", func(t *testing.T) {
		backend := &scriptedBackend{}
		m := newChatModel(backend)

		next, cmd := m.Update(enter)
		m = next.(appModel)
		assert.NotNil(cmd)

		next, _ = m.Update(cmd())
		m = next.(appModel)
		assert.Empty(backend.inserted)

		// The no-op must not leave the composer stuck.
		assert.False(m.sending)
		_, cmd = m.Update(enter)
		assert.NotNil(cmd)
	})
}

func TestUnmountReleasesFeedWaiter(t *testing.T) {
	assert := assert.New(t)

	backend := &scriptedBackend{}
	m := newChatModel(backend)

	controller, err := feed.Open(context.Background(), backend, func() {})
	assert.Nil(err)
	m.controller = controller

	// A waiter armed before unmount must not block forever.
	wait := m.waitForFeed()
	released := make(chan struct{})
	go func() {
		wait()
		close(released)
	}()

	m.unmountChat()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("feed waiter still blocked after unmount")
	}

	// The stray tick the released waiter produces is dropped, not re-armed.
	next, cmd := m.Update(feedTickMsg{})
	assert.Nil(cmd)
	assert.Nil(next.(appModel).controller)
}
