package feed

import (
	"context"
	"io"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

// Subscription is a live insert feed. C closes when the subscription ends.
type Subscription interface {
	C() <-chan model.Message
	Close()
}

// Backend is the slice of the chat backend the feed core depends on. The
// concrete client is injected at composition time.
type Backend interface {
	CurrentPrincipal(ctx context.Context) (*model.Principal, error)
	SignOut(ctx context.Context) error
	FetchAllMessages(ctx context.Context) ([]model.Message, error)
	InsertMessage(ctx context.Context, message model.Message) error
	DeleteMessage(ctx context.Context, id model.MessageID) error
	UploadFile(ctx context.Context, path string, data io.Reader) error
	CreateSignedLink(ctx context.Context, path string, ttlSeconds int) (string, error)
	SubscribeInserts(ctx context.Context) (Subscription, error)
}
