package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// GzipRequestMiddleware transparently inflates request bodies sent with
// Content-Encoding gzip (or x-gzip). A body that is not valid gzip is a 400.
func GzipRequestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody || !isGzipEncoded(req.Header.Get(echo.HeaderContentEncoding)) {
				return next(c)
			}

			zr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				return badRequest(c, "invalid gzip body")
			}

			req.Body = &inflatingBody{zr: zr, raw: req.Body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

func isGzipEncoded(header string) bool {
	for _, enc := range strings.Split(header, ",") {
		switch strings.ToLower(strings.TrimSpace(enc)) {
		case "gzip", "x-gzip":
			return true
		}
	}
	return false
}

// inflatingBody closes both the gzip reader and the wire body.
type inflatingBody struct {
	zr  *gzip.Reader
	raw io.Closer
}

func (b *inflatingBody) Read(p []byte) (int, error) { return b.zr.Read(p) }

func (b *inflatingBody) Close() error {
	zerr := b.zr.Close()
	if rerr := b.raw.Close(); rerr != nil {
		return rerr
	}
	return zerr
}
