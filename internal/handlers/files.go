package handlers

import (
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// UploadFile stores raw request bytes at the caller-supplied blob path.
func UploadFile(sessions SessionService, blobs BlobService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := activePrincipal(c, sessions); err != nil {
			return httpError(err)
		}

		blobPath := c.QueryParam("path")
		if blobPath == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing path")
		}

		body := c.Request().Body
		defer body.Close()

		if err := blobs.Upload(blobPath, body); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func SignLink(sessions SessionService, blobs BlobService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := activePrincipal(c, sessions); err != nil {
			return httpError(err)
		}

		params := struct {
			Path       string `json:"path"`
			TTLSeconds int    `json:"ttl_seconds"`
		}{}
		if err := c.Bind(&params); err != nil {
			return err
		}
		if params.TTLSeconds <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "ttl_seconds must be positive")
		}

		link, err := blobs.SignedLink(params.Path, time.Duration(params.TTLSeconds)*time.Second)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, map[string]string{"url": link})
	}
}

// DownloadFile serves a blob to anyone holding an unexpired signed link.
// No session is required; the signature is the grant.
func DownloadFile(blobs BlobService) echo.HandlerFunc {
	return func(c echo.Context) error {
		blobPath, err := url.PathUnescape(c.Param("*"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid path")
		}
		expires, err := strconv.ParseInt(c.QueryParam("exp"), 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid expiry")
		}

		blob, err := blobs.Verify(blobPath, expires, c.QueryParam("sig"))
		if err != nil {
			return httpError(err)
		}
		defer blob.Close()

		c.Response().Header().Set(echo.HeaderContentDisposition,
			`attachment; filename="`+path.Base(blobPath)+`"`)
		return c.Stream(http.StatusOK, echo.MIMEOctetStream, blob)
	}
}
