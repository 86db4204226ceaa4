// Package bot — чат-бот поверх blacket.Client. Бот:
//   - подключается к сокету и входит в комнату из конфига (по умолчанию global);
//   - слушает сообщения чата (событие msg) и обрабатывает команды:
//     !help, !user, !news, !claim, !open, !sell, !admin, !save;
//   - экономические команды (!claim, !open, !sell) и !save доступны только админам;
//   - свои сообщения пишет с префиксом "[bot]" и такие сообщения игнорирует;
//   - (опционально) считает события сокета в metrics.Reporter.
//
// Пример:
//
//	c, _ := blacket.New(sid, blacket.Options{})
//	b := bot.New(c)
//	_ = b.UseConfig("conf/botconfig.json")
//	if err := b.Start(ctx); err != nil { log.Fatal(err) }
//	defer b.Stop()
//	<-ctx.Done()
//
// Конфигурация хранится в JSON (см. BotConfig): комната и список админов.
// !admin add|del сразу сохраняет конфиг, !save сохраняет явно.
package bot
