package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

type MessageStore interface {
	FetchAll() ([]model.Message, error)
	Insert(message *model.Message) error
	Delete(id model.MessageID, authorName string) error
}

type Feed interface {
	Publish(message model.Message)
}

type service struct {
	messages MessageStore
	feed     Feed
}

func New(messages MessageStore, feed Feed) *service {
	return &service{messages, feed}
}

func (s *service) List() ([]model.Message, error) {
	messages, err := s.messages.FetchAll()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return messages, nil
}

// Post commits a message and pushes it to feed subscribers. A message with
// neither body nor attachment is rejected.
func (s *service) Post(message *model.Message) error {
	if strings.TrimSpace(message.Body) == "" && message.AttachmentLink == "" {
		return model.ErrorEmptyMessage
	}
	if message.ID == "" {
		message.ID = model.MessageID(model.CreateID())
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	if err := s.messages.Insert(message); err != nil {
		return fmt.Errorf("committing message: %w", err)
	}

	s.feed.Publish(*message)
	return nil
}

func (s *service) Delete(id model.MessageID, authorName string) error {
	if err := s.messages.Delete(id, authorName); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}
