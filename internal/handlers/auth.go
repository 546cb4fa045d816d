package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

type sessionResponse struct {
	Token     string           `json:"token"`
	Principal *model.Principal `json:"principal"`
}

func Register(sessions SessionService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &model.CreateUserParams{}
		if err := c.Bind(params); err != nil {
			return err
		}
		token, principal, err := sessions.SignUp(params)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, sessionResponse{token, principal})
	}
}

func Login(sessions SessionService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}{}
		if err := c.Bind(&params); err != nil {
			return err
		}
		token, principal, err := sessions.SignIn(params.Email, params.Password)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, sessionResponse{token, principal})
	}
}

func Logout(sessions SessionService) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessions.SignOut(bearerToken(c))
		return c.NoContent(http.StatusNoContent)
	}
}

func Me(sessions SessionService) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, err := sessions.CurrentPrincipal(bearerToken(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, principal)
	}
}

// DeactivateAccount is the account "delete": the row stays, credentials are
// blanked, status turns terminal.
func DeactivateAccount(sessions SessionService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := sessions.Deactivate(bearerToken(c)); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func JWKS(sessions SessionService) echo.HandlerFunc {
	return func(c echo.Context) error {
		keys, err := sessions.JWKS()
		if err != nil {
			return err
		}
		return c.JSONBlob(http.StatusOK, keys)
	}
}
