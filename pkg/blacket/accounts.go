package blacket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/EgorLis/trtl/pkg/logger"
	"github.com/EgorLis/trtl/pkg/request"
)

var ErrLoginFailed = errors.New("blacket: login failed")

const sessionCookie = "connect.sid="

// Accounts — регистрация и вход, без сессии.
type Accounts struct {
	base      string
	transport *request.Transport
	log       logger.Logger
}

func NewAccounts(opts Options) (*Accounts, error) {
	o, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	log := o.Logger.WithField("instance", o.Instance)
	return &Accounts{base: o.baseURL(), transport: o.transport(log), log: log}, nil
}

// Register — заявка на аккаунт с кодом доступа. Ответ сервера как есть.
func (a *Accounts) Register(ctx context.Context, username, password, accessCode string) (Result, error) {
	resp, err := a.transport.Post(ctx, a.base+"/worker/register", map[string]any{
		"username":   username,
		"password":   password,
		"accessCode": accessCode,
	}, nil)
	if err != nil {
		return nil, err
	}
	return parseResult(resp)
}

// Login возвращает токен сессии (значение connect.sid).
// Любая неудача, включая ответ без cookie, — ErrLoginFailed.
func (a *Accounts) Login(ctx context.Context, username, password string) (string, error) {
	header := http.Header{}
	header.Set("Cookie", "")

	resp, err := a.transport.Post(ctx, a.base+"/worker/login", map[string]any{
		"username": username,
		"password": password,
	}, header)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}

	token, ok := sessionFromCookies(resp.Header.Values("Set-Cookie"))
	if !ok {
		return "", fmt.Errorf("%w: no session cookie", ErrLoginFailed)
	}
	a.log.WithField("username", username).Info("logged in")
	return token, nil
}

// берётся первый Set-Cookie: "connect.sid=<token>; Path=/; ..."
func sessionFromCookies(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	first, _, _ := strings.Cut(values[0], "; ")
	if !strings.HasPrefix(first, sessionCookie) {
		return "", false
	}
	token := strings.TrimPrefix(first, sessionCookie)
	return token, token != ""
}
