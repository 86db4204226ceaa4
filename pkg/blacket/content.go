package blacket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/EgorLis/trtl/pkg/request"
)

// StatusError — картинка не отдана (не-2xx). Тело уже закрыто.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("blacket: GET %s: status %d", e.URL, e.StatusCode)
}

// Content — публичные картинки инстанса (без авторизации), потоком.
type Content struct {
	base      string
	transport *request.Transport
}

func NewContent(opts Options) (*Content, error) {
	o, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	return &Content{base: o.baseURL(), transport: o.transport(o.Logger.WithField("instance", o.Instance))}, nil
}

// Blook — /content/blooks/<name>.png
func (c *Content) Blook(ctx context.Context, name string) (io.ReadCloser, error) {
	return c.Stream(ctx, c.base+"/content/blooks/"+url.PathEscape(name)+".png", nil)
}

// Banner — /content/banners/<name>.png
func (c *Content) Banner(ctx context.Context, name string) (io.ReadCloser, error) {
	return c.Stream(ctx, c.base+"/content/banners/"+url.PathEscape(name)+".png", nil)
}

// Generic — /content/<name>.png
func (c *Content) Generic(ctx context.Context, name string) (io.ReadCloser, error) {
	return c.Stream(ctx, c.base+"/content/"+url.PathEscape(name)+".png", nil)
}

// Image — /images/<name>.<ext>, ext по умолчанию png.
func (c *Content) Image(ctx context.Context, name, ext string) (io.ReadCloser, error) {
	if ext == "" {
		ext = "png"
	}
	return c.Stream(ctx, c.base+"/images/"+url.PathEscape(name)+"."+ext, nil)
}

// Stream — GET по адресу целиком; тело закрывает вызывающий.
func (c *Content) Stream(ctx context.Context, rawURL string, header http.Header) (io.ReadCloser, error) {
	resp, err := c.transport.Stream(ctx, rawURL, header)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
