package socket

import (
	"context"
)

type chatOut struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

// Room — текущая комната: последняя, в которую просили войти.
func (s *Socket) Room() string {
	s.roomMu.RLock()
	defer s.roomMu.RUnlock()
	return s.room
}

func (s *Socket) setRoom(room string) {
	s.roomMu.Lock()
	s.room = room
	s.roomMu.Unlock()
}

// Join меняет текущую комнату сразу, ещё до ответа сервера, отправляет join
// и ждёт подтверждения join. Параллельные вызовы выстраиваются в очередь.
func (s *Socket) Join(ctx context.Context, room string) (Message, error) {
	if room == "" {
		room = DefaultRoom
	}
	s.setRoom(room)

	s.joinMu.Lock()
	defer s.joinMu.Unlock()
	return s.join(ctx, room)
}

func (s *Socket) join(ctx context.Context, room string) (Message, error) {
	done, err := s.doneChan()
	if err != nil {
		return Message{}, err
	}
	ack, off := s.expect("join")
	defer off()

	if err := s.Emit("join", room); err != nil {
		return Message{}, err
	}
	s.log.WithField("room", room).Debug("join sent")
	return await(ctx, ack, done)
}

// FetchMessages — история комнаты: join → подтверждение → info → ответ info.
// Переключает текущую комнату; пустая room — текущая.
func (s *Socket) FetchMessages(ctx context.Context, room string) (Message, error) {
	if room == "" {
		room = s.Room()
	}
	s.setRoom(room)

	s.joinMu.Lock()
	defer s.joinMu.Unlock()

	if _, err := s.join(ctx, room); err != nil {
		return Message{}, err
	}

	done, err := s.doneChan()
	if err != nil {
		return Message{}, err
	}
	info, off := s.expect("info")
	defer off()

	if err := s.Emit("info", nil); err != nil {
		return Message{}, err
	}
	return await(ctx, info, done)
}

// SendMessage — сообщение в текущую комнату, подтверждения не ждёт.
func (s *Socket) SendMessage(text string) error {
	return s.send(s.Room(), text)
}

// SendMessageTo пишет в room и делает её текущей.
func (s *Socket) SendMessageTo(room, text string) error {
	if room == "" {
		room = DefaultRoom
	}
	s.setRoom(room)
	return s.send(room, text)
}

func (s *Socket) send(room, text string) error {
	return s.Emit("chat", chatOut{Room: room, Message: text})
}
