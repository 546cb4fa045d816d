package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/DemioMAD/demiochatplus/internal/hub"
	"github.com/DemioMAD/demiochatplus/internal/model"
)

const pingInterval = 30 * time.Second

type feedEvent struct {
	Type    string        `json:"type"`
	Message model.Message `json:"message"`
}

// Feed upgrades the connection and streams insert events until either side
// goes away. One hub subscription per connection.
func Feed(sessions SessionService, feedHub *hub.Hub) echo.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return func(c echo.Context) error {
		if _, err := activePrincipal(c, sessions); err != nil {
			return httpError(err)
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer conn.Close()

		sub := feedHub.Subscribe()
		defer sub.Close()

		// Drain reads so we notice the peer closing.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case message, ok := <-sub.C():
				if !ok {
					return nil
				}
				if err := conn.WriteJSON(feedEvent{Type: "insert", Message: message}); err != nil {
					return nil
				}
			case <-ping.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return nil
				}
			case <-gone:
				return nil
			}
		}
	}
}
