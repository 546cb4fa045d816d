package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

type SessionService interface {
	SignUp(params *model.CreateUserParams) (string, *model.Principal, error)
	SignIn(email string, password string) (string, *model.Principal, error)
	SignOut(token string)
	CurrentPrincipal(token string) (*model.Principal, error)
	Deactivate(token string) error
	JWKS() (json.RawMessage, error)
}

type ChatService interface {
	List() ([]model.Message, error)
	Post(message *model.Message) error
	Delete(id model.MessageID, authorName string) error
}

type BlobService interface {
	Upload(path string, data io.Reader) error
	SignedLink(path string, ttl time.Duration) (string, error)
	Verify(path string, expires int64, signature string) (io.ReadCloser, error)
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Websocket clients cannot set headers from every environment.
	return c.QueryParam("token")
}

// activePrincipal resolves the caller and refuses deactivated accounts.
// Me stays on CurrentPrincipal directly so a lingering session can still
// observe its own Deleted flag and sign itself out.
func activePrincipal(c echo.Context, sessions SessionService) (*model.Principal, error) {
	principal, err := sessions.CurrentPrincipal(bearerToken(c))
	if err != nil {
		return nil, err
	}
	if principal.Deleted {
		return nil, model.ErrorAccountDeactivated
	}
	return principal, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, model.ErrorInvalidEmailOrPassword):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrorAccountDeactivated):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrorDuplicateEmail):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrorEmptyMessage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrorAuthorMismatch):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrorMessageNotFound), errors.Is(err, model.ErrorUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrorInvalidLink):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrorLinkExpired):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	default:
		return err
	}
}
