// Package socket реализует WebSocket-клиент реального времени Blacket
// (wss://<инстанс>/worker/socket). Аутентификация — тем же cookie connect.sid,
// что и у HTTP-запросов. Кадры на проводе — JSON {"type": ..., "data": ...}.
//
// Входящие кадры разбираются один раз (Decode) в Message с закрытым набором
// вариантов Kind и публикуются ровно одним событием в общую шину events.Emitter:
//
//   - chat/receive → msg, clear → clear, join/joined → join, leave/left → leave,
//     info → info, trade → trade;
//   - request: error=true → error (RemoteError), data.id → request,
//     data.cancelled → cancelled, data.declined → declined;
//   - всё остальное → generic (кадр не теряется).
//
// Плюс события соединения: connected, disconnected, error.
//
// События одного соединения доставляются по порядку в отдельной горутине,
// первым идёт connected, последним disconnected. Горутина чтения слушателей не
// ждёт, поэтому из слушателя можно вызывать Join, FetchMessages и WaitTrade.
//
// Комнаты и обмен:
//   - Join/FetchMessages меняют текущую комнату сразу и ждут ответ сервера;
//     такие вызовы выстраиваются в очередь, т.к. ответы на проводе не коррелируются.
//   - SendMessage/SendMessageTo — без подтверждения.
//   - RequestTrade, WaitTrade, TradeBlook/RemoveBlook (всё предложение целиком
//     на каждое изменение), AcceptTrade, DeclineTrade, Cancel.
//
// Переподключения нет: после disconnected состояние остаётся Disconnected,
// пока не вызван Connect.
//
// Пример:
//
//	s := socket.New(socket.Config{Host: "v2.blacket.org", Session: sid})
//	s.Events().On(socket.EventMessage, func(ev events.Event) {
//	    cm, _ := ev.Payload.(socket.Message).Chat()
//	    fmt.Println(cm.Author, cm.Text)
//	})
//	if err := s.Connect(ctx); err != nil { log.Fatal(err) }
//	defer s.Disconnect()
//	_, _ = s.Join(ctx, "global")
//	_ = s.SendMessage("hello")
package socket
