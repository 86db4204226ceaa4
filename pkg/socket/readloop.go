package socket

import (
	"github.com/gorilla/websocket"
)

func (s *Socket) readLoop(conn *websocket.Conn, done chan struct{}, d *dispatcher) {
	defer func() {
		s.stopPing()
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		_ = conn.Close()

		s.state.Store(int32(Disconnected))
		close(done)
		s.log.Info("disconnected")
		d.push(func() { s.events.Emit(EventDisconnected, nil) })
		d.close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !s.closing.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.WithError(err).Warn("read failed")
				d.push(func() { s.events.Emit(EventError, err) })
			}
			return
		}

		msg, err := Decode(data)
		if err != nil {
			d.push(func() { s.events.Emit(EventError, err) })
			continue
		}
		s.dispatch(d, msg)
	}
}

// dispatch: ожидания ответов срабатывают сразу, в горутине чтения; подписчики
// получают кадр через очередь: сначала сырые по type, затем ровно одно
// семантическое событие.
func (s *Socket) dispatch(d *dispatcher, msg Message) {
	s.waiters.Emit(msg.Type, msg)

	d.push(func() {
		s.wire.Emit(msg.Type, msg)
		if msg.Kind == KindRequestError {
			s.events.Emit(EventError, &RemoteError{Reason: msg.Reason})
			return
		}
		s.events.Emit(msg.Kind.Event(), msg)
	})
}
