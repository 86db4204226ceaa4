package blacket

import (
	"context"
	"encoding/json"

	"github.com/EgorLis/trtl/pkg/socket"
)

// Connect открывает соединение реального времени (не больше одного на клиента).
func (c *Client) Connect(ctx context.Context) error {
	return c.socket.Connect(ctx)
}

// Disconnect закрывает соединение без выхода из аккаунта.
func (c *Client) Disconnect() {
	c.socket.Disconnect()
}

// Join переходит в комнату и ждёт подтверждения. Хуки OpJoin.
func (c *Client) Join(ctx context.Context, room string) (socket.Message, error) {
	return c.await(ctx, &Call{Op: OpJoin, Room: room}, func(ctx context.Context, call *Call) (socket.Message, error) {
		return c.socket.Join(ctx, call.Room)
	})
}

// Room — текущая комната.
func (c *Client) Room() string {
	return c.socket.Room()
}

// FetchMessages — история комнаты через сокет (join, затем info). Хуки OpMessages.
func (c *Client) FetchMessages(ctx context.Context, room string) (socket.Message, error) {
	return c.await(ctx, &Call{Op: OpMessages, Room: room}, func(ctx context.Context, call *Call) (socket.Message, error) {
		return c.socket.FetchMessages(ctx, call.Room)
	})
}

// SendMessage пишет в текущую комнату. Проходит через хуки OpSend.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return c.send(ctx, &Call{Op: OpSend, Body: text, Room: c.socket.Room()})
}

// SendMessageTo пишет в room и делает её текущей.
func (c *Client) SendMessageTo(ctx context.Context, room, text string) error {
	if room == "" {
		room = socket.DefaultRoom
	}
	return c.send(ctx, &Call{Op: OpSend, Body: text, Room: room})
}

func (c *Client) send(ctx context.Context, call *Call) error {
	return c.fire(ctx, call, func(call *Call) error {
		text, _ := call.Body.(string)
		return c.socket.SendMessageTo(call.Room, text)
	})
}

// fire — операция сокета без ответа: хуки видят пустой Result.
func (c *Client) fire(ctx context.Context, call *Call, run func(call *Call) error) error {
	_, err := c.hooks.wrap(call.Op, func(_ context.Context, call *Call) (Result, error) {
		return nil, run(call)
	})(ctx, call)
	return err
}

// await — операция сокета с ответом. After-хуки получают data ответа как Result;
// сам ответ возвращается как есть. Если middleware подменил операцию, ответ пустой.
func (c *Client) await(ctx context.Context, call *Call, run func(ctx context.Context, call *Call) (socket.Message, error)) (socket.Message, error) {
	var ack socket.Message
	_, err := c.hooks.wrap(call.Op, func(ctx context.Context, call *Call) (Result, error) {
		m, err := run(ctx, call)
		if err != nil {
			return nil, err
		}
		ack = m
		var res Result
		if json.Unmarshal(m.Data, &res) != nil {
			res = nil
		}
		return res, nil
	})(ctx, call)
	return ack, err
}

// ======================= обмен =======================

// Trade находит пользователя по имени и предлагает ему обмен. Хуки OpTrade
// (Body — имя); поиск id идёт отдельно через OpUser.
func (c *Client) Trade(ctx context.Context, name string) error {
	return c.fire(ctx, &Call{Op: OpTrade, Body: name}, func(call *Call) error {
		name, _ := call.Body.(string)
		id, err := c.UserID(ctx, name)
		if err != nil {
			return err
		}
		return c.socket.RequestTrade(id)
	})
}

func (c *Client) RequestTrade(id string) error {
	return c.fire(context.Background(), &Call{Op: OpRequestTrade, Body: id}, func(call *Call) error {
		id, _ := call.Body.(string)
		return c.socket.RequestTrade(id)
	})
}

// WaitTrade: true — обмен начался, false — отказ. Это ожидание, а не команда:
// хуками не оборачивается.
func (c *Client) WaitTrade(ctx context.Context) (bool, error) {
	return c.socket.WaitTrade(ctx)
}

func (c *Client) TradeBlook(name string, count int) error {
	call := &Call{Op: OpTradeBlook, Body: BlookCount{Name: name, Count: count}}
	return c.fire(context.Background(), call, func(call *Call) error {
		b, _ := call.Body.(BlookCount)
		return c.socket.TradeBlook(b.Name, b.Count)
	})
}

func (c *Client) RemoveBlook(name string) error {
	return c.fire(context.Background(), &Call{Op: OpRemoveBlook, Body: name}, func(call *Call) error {
		name, _ := call.Body.(string)
		return c.socket.RemoveBlook(name)
	})
}

func (c *Client) AcceptTrade() error {
	return c.fire(context.Background(), &Call{Op: OpAcceptTrade}, func(*Call) error {
		return c.socket.AcceptTrade()
	})
}

func (c *Client) DeclineTrade() error {
	return c.fire(context.Background(), &Call{Op: OpDeclineTrade}, func(*Call) error {
		return c.socket.DeclineTrade()
	})
}

func (c *Client) CancelTrade() error {
	return c.fire(context.Background(), &Call{Op: OpCancelTrade}, func(*Call) error {
		return c.socket.Cancel()
	})
}
