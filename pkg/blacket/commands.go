package blacket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/EgorLis/trtl/pkg/request"
)

var (
	ErrNoSession = errors.New("blacket: session is required")
	ErrNoUserID  = errors.New("blacket: user has no id")
)

// UserError — сервер отказал в данных пользователя.
type UserError struct {
	Name   string
	Reason string
}

func (e *UserError) Error() string {
	return fmt.Sprintf("blacket: user %q: %s", e.Name, e.Reason)
}

// ======================= ядро =======================

func (c *Client) call(ctx context.Context, call *Call) (Result, error) {
	return c.hooks.wrap(call.Op, c.exec)(ctx, call)
}

// exec — сам HTTP-вызов по содержимому Call
func (c *Client) exec(ctx context.Context, call *Call) (Result, error) {
	var (
		resp *request.Response
		err  error
	)
	if call.Method == http.MethodPost {
		resp, err = c.transport.Post(ctx, c.url(call.Path), call.Body, c.authHeader())
	} else {
		resp, err = c.transport.Get(ctx, c.url(call.Path), c.authHeader())
	}
	if err != nil {
		return nil, err
	}
	return parseResult(resp)
}

func (c *Client) get(ctx context.Context, op, path string) (Result, error) {
	return c.call(ctx, &Call{Op: op, Method: http.MethodGet, Path: path})
}

func (c *Client) post(ctx context.Context, op, path string, body any) (Result, error) {
	return c.call(ctx, &Call{Op: op, Method: http.MethodPost, Path: path, Body: body})
}

// ======================= аккаунт =======================

// Logout завершает сессию на сервере и закрывает соединение реального времени.
func (c *Client) Logout(ctx context.Context) (Result, error) {
	res, err := c.get(ctx, OpLogout, "/logout")
	c.socket.Disconnect()
	return res, err
}

func (c *Client) ClaimDailyReward(ctx context.Context) (Result, error) {
	return c.get(ctx, OpClaim, "/worker/claim")
}

func (c *Client) OpenPack(ctx context.Context, pack string) (Result, error) {
	return c.post(ctx, OpOpen, "/worker/open", map[string]any{"pack": pack})
}

// SellItem — количество уходит строкой, так его ждёт сервер.
func (c *Client) SellItem(ctx context.Context, blook string, quantity int) (Result, error) {
	return c.post(ctx, OpSell, "/worker/sell", map[string]any{
		"blook":    blook,
		"quantity": strconv.Itoa(quantity),
	})
}

func (c *Client) SetBanner(ctx context.Context, banner string) (Result, error) {
	return c.post(ctx, OpSetBanner, "/worker/set", map[string]any{"type": "banner", "banner": banner})
}

func (c *Client) SetIcon(ctx context.Context, blook string) (Result, error) {
	return c.post(ctx, OpSetIcon, "/worker/set", map[string]any{"type": "blook", "blook": blook})
}

func (c *Client) ChangeUsername(ctx context.Context, username, password string) (Result, error) {
	return c.post(ctx, OpChangeUsername, "/worker/change", map[string]any{
		"type":     "username",
		"username": username,
		"password": password,
	})
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) (Result, error) {
	return c.post(ctx, OpChangePassword, "/worker/change", map[string]any{
		"type":        "password",
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	})
}

func (c *Client) ChangeColor(ctx context.Context, color string) (Result, error) {
	return c.post(ctx, OpChangeColor, "/worker/change", map[string]any{"type": "color", "color": color})
}

// ======================= справочники =======================

func (c *Client) FetchNews(ctx context.Context) (Result, error) {
	return c.get(ctx, OpNews, "/worker/news")
}

func (c *Client) FetchPacks(ctx context.Context) (Result, error) {
	return c.get(ctx, OpPacks, "/worker/packs")
}

func (c *Client) FetchRarities(ctx context.Context) (Result, error) {
	return c.get(ctx, OpRarities, "/worker/rarities")
}

// FetchItems — каталог блуков.
func (c *Client) FetchItems(ctx context.Context) (Result, error) {
	return c.get(ctx, OpItems, "/worker/blooks")
}

func (c *Client) FetchBadges(ctx context.Context) (Result, error) {
	return c.get(ctx, OpBadges, "/worker/badges")
}

func (c *Client) FetchConfig(ctx context.Context) (Result, error) {
	return c.get(ctx, OpConfig, "/worker/config")
}

func (c *Client) FetchLeaderboard(ctx context.Context) (Result, error) {
	return c.get(ctx, OpLeaderboard, "/worker/leaderboard")
}

// FetchUser — профиль по имени; пустое имя — свой профиль.
func (c *Client) FetchUser(ctx context.Context, name string) (Result, error) {
	path := "/worker/user"
	if name != "" {
		path += "/" + url.PathEscape(name)
	}
	return c.get(ctx, OpUser, path)
}

// UserID — id пользователя строкой (сервер отдаёт его числом).
func (c *Client) UserID(ctx context.Context, name string) (string, error) {
	res, err := c.FetchUser(ctx, name)
	if err != nil {
		return "", err
	}
	if res.Failed() {
		return "", &UserError{Name: name, Reason: res.Reason()}
	}

	var u struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := res.Decode(&u); err != nil {
		return "", err
	}
	if u.User.ID == "" {
		return "", ErrNoUserID
	}
	return u.User.ID, nil
}
