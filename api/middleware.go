package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DecompressRequests transparently unwraps gzip-encoded request bodies so
// handlers always decode plain JSON. A body that claims gzip encoding but
// does not parse as gzip is rejected with 400.
func DecompressRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			encoding := req.Header.Get(echo.HeaderContentEncoding)
			if !strings.EqualFold(strings.TrimSpace(encoding), "gzip") {
				return next(c)
			}

			raw := req.Body
			gz, err := gzip.NewReader(raw)
			if err != nil {
				_ = raw.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = readCloser{Reader: gz, close: func() error {
				gzErr := gz.Close()
				if err := raw.Close(); err != nil {
					return err
				}
				return gzErr
			}}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)

			return next(c)
		}
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error { return rc.close() }
