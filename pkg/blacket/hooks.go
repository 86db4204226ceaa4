package blacket

import (
	"context"
	"slices"
	"sync"
)

// AllOps — имя операции для хуков на все команды сразу.
const AllOps = "*"

// Имена операций для Use/Before/After.
const (
	OpLogout         = "logout"
	OpClaim          = "claim"
	OpOpen           = "open"
	OpSell           = "sell"
	OpNews           = "news"
	OpPacks          = "packs"
	OpRarities       = "rarities"
	OpItems          = "items"
	OpBadges         = "badges"
	OpConfig         = "config"
	OpLeaderboard    = "leaderboard"
	OpUser           = "user"
	OpSetBanner      = "setBanner"
	OpSetIcon        = "setIcon"
	OpChangeUsername = "changeUsername"
	OpChangePassword = "changePassword"
	OpChangeColor    = "changeColor"
	OpSend           = "send"

	// операции сокета
	OpJoin         = "join"
	OpMessages     = "messages"
	OpTrade        = "trade"
	OpRequestTrade = "requestTrade"
	OpTradeBlook   = "tradeBlook"
	OpRemoveBlook  = "removeBlook"
	OpAcceptTrade  = "acceptTrade"
	OpDeclineTrade = "declineTrade"
	OpCancelTrade  = "cancelTrade"
)

// Call — описание вызова, которое видят хуки. Before-хук может поменять
// Path, Body или Room: команда исполняется по тому, что осталось в Call.
//
// У операций сокета Method и Path пустые. Room — у send, join и messages;
// Body — текст сообщения, имя или id пользователя, имя блука или BlookCount.
type Call struct {
	Op     string
	Method string
	Path   string
	Body   any
	Room   string
}

// BlookCount — Body операции tradeBlook.
type BlookCount struct {
	Name  string
	Count int
}

type Handler func(ctx context.Context, call *Call) (Result, error)

// Middleware оборачивает операцию. Не вызвав next, можно подменить её целиком.
type Middleware func(next Handler) Handler

type hookEntry struct {
	op string
	mw Middleware
}

type hooks struct {
	mu   sync.RWMutex
	list []hookEntry
}

func (h *hooks) add(op string, mw Middleware) {
	h.mu.Lock()
	h.list = append(h.list, hookEntry{op: op, mw: mw})
	h.mu.Unlock()
}

// wrap собирает цепочку на момент вызова; первый добавленный — самый внешний.
func (h *hooks) wrap(op string, final Handler) Handler {
	h.mu.RLock()
	list := slices.Clone(h.list)
	h.mu.RUnlock()

	for i := len(list) - 1; i >= 0; i-- {
		if list[i].op == AllOps || list[i].op == op {
			final = list[i].mw(final)
		}
	}
	return final
}

// Use добавляет middleware на операцию op (или AllOps).
func (c *Client) Use(op string, mw Middleware) {
	c.hooks.add(op, mw)
}

// Before вызывается перед операцией; ошибка отменяет её.
func (c *Client) Before(op string, fn func(ctx context.Context, call *Call) error) {
	c.Use(op, func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (Result, error) {
			if err := fn(ctx, call); err != nil {
				return nil, err
			}
			return next(ctx, call)
		}
	})
}

// After видит результат операции и может его заменить.
func (c *Client) After(op string, fn func(ctx context.Context, call *Call, res Result, err error) (Result, error)) {
	c.Use(op, func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (Result, error) {
			res, err := next(ctx, call)
			return fn(ctx, call, res, err)
		}
	})
}
