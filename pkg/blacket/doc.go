// Package blacket — клиент инстанса Blacket: HTTP-команды с cookie сессии,
// соединение реального времени (чат, комнаты, обмен) и хуки вокруг команд.
//
// Клиент привязан к одной сессии и одному инстансу. Ответы команд — разобранный
// JSON как есть (Result); отказ сервера ({"error": true}) не является ошибкой Go,
// его видно через Result.Failed и Result.Reason. Ретраев и очередей нет.
//
// Хуки оборачивают HTTP-команды и операции сокета: send, join, messages и
// управление обменом (trade, requestTrade, tradeBlook, removeBlook, acceptTrade,
// declineTrade, cancelTrade). WaitTrade — ожидание, а не команда, его хуки не видят.
//
//	c.Before(blacket.AllOps, func(ctx context.Context, call *blacket.Call) error {
//	    log.Println("->", call.Op, call.Path)
//	    return nil
//	})
//	c.After(blacket.OpClaim, func(ctx context.Context, call *blacket.Call, res blacket.Result, err error) (blacket.Result, error) {
//	    if err == nil && res.Failed() {
//	        log.Println("claim:", res.Reason())
//	    }
//	    return res, err
//	})
//
// Регистрация и вход — Accounts (без сессии), картинки — Content.
//
// Пример:
//
//	proxy := request.NewProxy("socks5", "127.0.0.1:9050")
//	c, err := blacket.New(sid, blacket.Options{Proxy: proxy})
//	if err != nil { log.Fatal(err) }
//	c.On(socket.EventMessage, func(ev events.Event) { ... })
//	if err := c.Connect(ctx); err != nil { log.Fatal(err) }
//	_ = c.SendMessage(ctx, "hello")
package blacket
