package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

type insertEvent struct {
	Type    string        `json:"type"`
	Message model.Message `json:"message"`
}

// Subscription is one live insert feed. Close it when the consumer goes
// away; events stop and C closes.
type Subscription struct {
	conn *websocket.Conn
	ch   chan model.Message
	done chan struct{}
	once sync.Once
}

// SubscribeInserts opens the websocket feed. Feed interruptions are not
// retried; the channel just closes.
func (c *Client) SubscribeInserts(ctx context.Context) (*Subscription, error) {
	wsURL, err := c.feedURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing feed: %w", err)
	}

	sub := &Subscription{
		conn: conn,
		ch:   make(chan model.Message),
		done: make(chan struct{}),
	}

	// The reader owns ch: it closes it on exit, so receivers always see a
	// closed channel rather than a stall.
	go func() {
		defer close(sub.ch)
		for {
			event := insertEvent{}
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			if event.Type != "insert" {
				continue
			}
			select {
			case sub.ch <- event.Message:
			case <-sub.done:
				return
			}
		}
	}()

	return sub, nil
}

func (s *Subscription) C() <-chan model.Message {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (c *Client) feedURL() (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/feed"

	query := parsed.Query()
	query.Set("token", c.token)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
