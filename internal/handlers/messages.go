package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

func ListMessages(sessions SessionService, messages ChatService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := activePrincipal(c, sessions); err != nil {
			return httpError(err)
		}
		list, err := messages.List()
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, list)
	}
}

func PostMessage(sessions SessionService, messages ChatService) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, err := activePrincipal(c, sessions)
		if err != nil {
			return httpError(err)
		}

		message := &model.Message{}
		if err := c.Bind(message); err != nil {
			return err
		}
		// The author is always the caller, whatever the payload says.
		message.AuthorName = principal.DisplayName

		if err := messages.Post(message); err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, message)
	}
}

func DeleteMessage(sessions SessionService, messages ChatService) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, err := activePrincipal(c, sessions)
		if err != nil {
			return httpError(err)
		}

		id := model.MessageID(c.Param("id"))
		if err := messages.Delete(id, principal.DisplayName); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
