package feed

import (
	"context"
	"sync"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

// Controller owns the local message list for one mounted chat view: it
// loads the snapshot, folds feed inserts into it and tears the
// subscription down on Close. The list is append/remove only.
type Controller struct {
	backend   Backend
	principal *model.Principal
	onChange  func()

	mu       sync.Mutex
	messages []model.Message
	closed   bool

	sub  Subscription
	loop sync.WaitGroup
}

// Open resolves the principal, fetches the snapshot and subscribes to
// inserts. A deactivated principal is signed out immediately and never
// sees a message. A failed snapshot degrades to an empty list; a failed
// subscribe leaves the feed silent. Neither is retried.
func Open(ctx context.Context, backend Backend, onChange func()) (*Controller, error) {
	principal, err := backend.CurrentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if principal.Deleted {
		_ = backend.SignOut(ctx)
		return nil, model.ErrorAccountDeactivated
	}

	c := &Controller{
		backend:   backend,
		principal: principal,
		onChange:  onChange,
	}

	if snapshot, err := backend.FetchAllMessages(ctx); err == nil {
		c.messages = snapshot
	}

	if sub, err := backend.SubscribeInserts(ctx); err == nil {
		c.sub = sub
		c.loop.Add(1)
		go c.run(sub)
	}

	return c, nil
}

func (c *Controller) run(sub Subscription) {
	defer c.loop.Done()
	for message := range sub.C() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.messages = append(c.messages, message)
		c.mu.Unlock()
		if c.onChange != nil {
			c.onChange()
		}
	}
}

func (c *Controller) Principal() *model.Principal {
	return c.principal
}

// Messages returns a copy of the local list in arrival order.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Delete asks the backend to remove the message and, only on confirmed
// success, removes it locally. Failures leave everything as it was.
func (c *Controller) Delete(ctx context.Context, id model.MessageID) error {
	if err := c.backend.DeleteMessage(ctx, id); err != nil {
		return err
	}
	c.remove(id)
	return nil
}

func (c *Controller) remove(id model.MessageID) {
	c.mu.Lock()
	for i, message := range c.messages {
		if message.ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	if c.onChange != nil {
		c.onChange()
	}
}

// Close ends the subscription. It blocks until the fold loop has stopped,
// after which the list never changes again.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.sub != nil {
		c.sub.Close()
		c.loop.Wait()
	}
}
