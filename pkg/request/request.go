// Package request — HTTP-фасад клиента: GET/POST/stream с набором заголовков
// браузера и необязательным прокси. Статусы ответа не интерпретируются, ретраев нет.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/EgorLis/trtl/pkg/logger"
)

const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36"

// без них часть инстансов отвечает заглушкой
var browserHeaders = map[string]string{
	"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9",
	"accept-language":           "en-US,en;q=0.9",
	"cache-control":             "max-age=0",
	"sec-ch-ua":                 `"Chromium";v="106", "Google Chrome";v="106", "Not;A=Brand";v="99"`,
	"sec-ch-ua-mobile":          "?0",
	"sec-ch-ua-platform":        `"Windows"`,
	"sec-fetch-dest":            "document",
	"sec-fetch-mode":            "navigate",
	"sec-fetch-site":            "none",
	"sec-fetch-user":            "?1",
	"upgrade-insecure-requests": "1",
	"user-agent":                UserAgent,
}

// BrowserHeaders возвращает копию статических заголовков.
func BrowserHeaders() http.Header {
	h := make(http.Header, len(browserHeaders))
	for k, v := range browserHeaders {
		h.Set(k, v)
	}
	return h
}

// Reporter получает сведения о каждом запросе (метрики). status=0 — ошибка транспорта.
type Reporter interface {
	ReportRequest(method, path string, status int, elapsed time.Duration)
}

// Response — ответ целиком, без разбора статуса.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode/100 == 2
}

func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

type Transport struct {
	client   *http.Client
	proxy    *Proxy
	reporter Reporter
	log      logger.Logger

	gen atomic.Uint64 // поколение прокси, под которое набран пул
}

type Option func(*Transport)

// WithProxy подключает общий объект прокси.
func WithProxy(p *Proxy) Option {
	return func(t *Transport) { t.proxy = p }
}

func WithReporter(r Reporter) Option {
	return func(t *Transport) { t.reporter = r }
}

func WithLogger(l logger.Logger) Option {
	return func(t *Transport) { t.log = l }
}

// WithHTTPClient задаёт свой *http.Client; его Transport не трогаем,
// поэтому прокси в этом случае не применяется.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.client = c }
}

func New(opts ...Option) *Transport {
	t := &Transport{}
	for _, o := range opts {
		o(t)
	}
	if t.proxy == nil {
		t.proxy = &Proxy{}
	}
	if t.log == nil {
		t.log = logger.Log
	}
	if t.client == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.Proxy = t.proxy.HTTPProxy
		tr.DialContext = t.proxy.DialContext
		t.client = &http.Client{Transport: tr}
	}
	return t
}

// Proxy — объект прокси, которым пользуется транспорт.
func (t *Transport) Proxy() *Proxy {
	return t.proxy
}

// SetProxy меняет общий прокси: затрагивает всех, кто делит этот объект.
func (t *Transport) SetProxy(scheme, address string) {
	t.proxy.Set(scheme, address)
	t.log.WithField("proxy", t.proxy.String()).Info("proxy changed")
}

func (t *Transport) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return t.do(ctx, http.MethodGet, url, nil, header)
}

// Post — body кодируется в JSON; []byte и io.Reader уходят как есть.
func (t *Transport) Post(ctx context.Context, url string, body any, header http.Header) (*Response, error) {
	return t.do(ctx, http.MethodPost, url, body, header)
}

// Stream — GET без буферизации тела. Тело закрывает вызывающий.
func (t *Transport) Stream(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := t.newRequest(ctx, http.MethodGet, url, nil, header)
	if err != nil {
		return nil, err
	}
	t.syncProxy()
	start := time.Now()
	resp, err := t.client.Do(req)
	t.report(req, resp, start)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *Transport) do(ctx context.Context, method, url string, body any, header http.Header) (*Response, error) {
	req, err := t.newRequest(ctx, method, url, body, header)
	if err != nil {
		return nil, err
	}

	t.syncProxy()
	start := time.Now()
	resp, err := t.client.Do(req)
	t.report(req, resp, start)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// syncProxy закрывает keep-alive соединения, набранные до смены прокси,
// иначе запрос уйдёт по старому маршруту.
func (t *Transport) syncProxy() {
	if g := t.proxy.Generation(); t.gen.Swap(g) != g {
		t.client.CloseIdleConnections()
	}
}

func (t *Transport) newRequest(ctx context.Context, method, url string, body any, header http.Header) (*http.Request, error) {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case io.Reader:
		reader = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("request: encode body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	// статические заголовки поверх пользовательских
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (t *Transport) report(req *http.Request, resp *http.Response, start time.Time) {
	elapsed := time.Since(start)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.log.WithFields(map[string]interface{}{
		"method":  req.Method,
		"path":    req.URL.Path,
		"status":  status,
		"elapsed": elapsed,
	}).Debug("request")
	if t.reporter != nil {
		t.reporter.ReportRequest(req.Method, req.URL.Path, status, elapsed)
	}
}
