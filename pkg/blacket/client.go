package blacket

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/EgorLis/trtl/pkg/events"
	"github.com/EgorLis/trtl/pkg/logger"
	"github.com/EgorLis/trtl/pkg/request"
	"github.com/EgorLis/trtl/pkg/socket"
)

// Client — одна авторизованная сессия на одном инстансе: HTTP-команды и
// одно соединение реального времени. Сессия и инстанс фиксируются в New.
type Client struct {
	id       string
	session  string
	instance string
	base     string

	transport *request.Transport
	socket    *socket.Socket
	events    *events.Emitter
	content   *Content
	hooks     hooks
	log       logger.Logger
}

// New создаёт клиента. session — значение cookie connect.sid.
func New(session string, opts Options) (*Client, error) {
	if err := validate.Var(session, "required"); err != nil {
		return nil, ErrNoSession
	}
	o, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := o.Logger.WithFields(map[string]interface{}{
		"client":   id,
		"instance": o.Instance,
	})
	bus := events.New()
	tr := o.transport(log)

	c := &Client{
		id:        id,
		session:   session,
		instance:  o.Instance,
		base:      o.baseURL(),
		transport: tr,
		events:    bus,
		log:       log,
		socket: socket.New(socket.Config{
			Host:     o.Instance,
			Insecure: o.Insecure,
			Session:  session,
			Proxy:    o.Proxy,
			Logger:   log,
			Events:   bus,
		}),
	}
	c.content = &Content{base: c.base, transport: tr}
	log.Debug("client created")
	return c, nil
}

// ID — идентификатор экземпляра клиента (для логов).
func (c *Client) ID() string { return c.id }

// Session — токен сессии, с которым создан клиент.
func (c *Client) Session() string { return c.session }

func (c *Client) Instance() string { return c.instance }

// Socket — соединение реального времени клиента.
func (c *Client) Socket() *socket.Socket { return c.socket }

// Content — картинки инстанса через тот же транспорт.
func (c *Client) Content() *Content { return c.content }

// SetProxy меняет общий объект прокси (см. request.Proxy).
func (c *Client) SetProxy(scheme, address string) {
	c.transport.SetProxy(scheme, address)
}

func (c *Client) authHeader() http.Header {
	h := http.Header{}
	h.Set("Cookie", "connect.sid="+c.session)
	return h
}

// url: путь относительно инстанса или абсолютный адрес
func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base + path
}

// Get — авторизованный GET без разбора тела.
func (c *Client) Get(ctx context.Context, path string) (*request.Response, error) {
	return c.transport.Get(ctx, c.url(path), c.authHeader())
}

// Post — авторизованный POST, body кодируется в JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (*request.Response, error) {
	return c.transport.Post(ctx, c.url(path), body, c.authHeader())
}

// ======================= события =======================

func (c *Client) On(name string, fn events.Listener) func() {
	return c.events.On(name, fn)
}

func (c *Client) Once(name string, fn events.Listener) func() {
	return c.events.Once(name, fn)
}

// Emit публикует событие в локальную шину (не на сервер).
func (c *Client) Emit(name string, payload any) int {
	return c.events.Emit(name, payload)
}

// SocketOn подписывает на сырой type входящих кадров.
func (c *Client) SocketOn(typ string, fn func(socket.Message)) func() {
	return c.socket.On(typ, fn)
}

// SocketEmit отправляет произвольный кадр {type, data}.
func (c *Client) SocketEmit(typ string, data any) error {
	return c.socket.Emit(typ, data)
}
