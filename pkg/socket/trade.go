package socket

import (
	"context"

	"github.com/EgorLis/trtl/pkg/events"
)

type tradeCommand struct {
	Action string `json:"action"`
}

// пустое предложение тоже уходит явно: {"blooks":{}}
type offerCommand struct {
	Action string         `json:"action"`
	Blooks map[string]int `json:"blooks"`
}

// RequestTrade предлагает обмен пользователю с данным id.
// Предложение (Offer) начинается с чистого листа.
func (s *Socket) RequestTrade(id string) error {
	s.tradeMu.Lock()
	s.offer = make(map[string]int)
	s.tradeMu.Unlock()

	s.log.WithField("user_id", id).Debug("trade requested")
	return s.Emit("request", id)
}

// WaitTrade ждёт исхода: false — отказ (declined), true — кадр trade.
// Ответ ловится в горутине чтения, поэтому звать можно и из слушателя.
func (s *Socket) WaitTrade(ctx context.Context) (bool, error) {
	done, err := s.doneChan()
	if err != nil {
		return false, err
	}

	result := make(chan bool, 1)
	resolve := func(v bool) {
		select {
		case result <- v:
		default:
		}
	}
	offRequest := s.waiters.On("request", func(ev events.Event) {
		if ev.Payload.(Message).Kind == KindTradeDeclined {
			resolve(false)
		}
	})
	offTrade := s.waiters.On("trade", func(events.Event) { resolve(true) })
	defer offRequest()
	defer offTrade()

	select {
	case v := <-result:
		return v, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-done:
		return false, ErrClosed
	}
}

// TradeBlook добавляет count штук (по умолчанию 1) и отправляет предложение целиком.
func (s *Socket) TradeBlook(name string, count int) error {
	if count <= 0 {
		count = 1
	}
	s.tradeMu.Lock()
	defer s.tradeMu.Unlock()
	s.offer[name] += count
	return s.Emit("trade", offerCommand{Action: "blooks", Blooks: copyOffer(s.offer)})
}

// RemoveBlook убирает блук из предложения и отправляет остаток целиком.
func (s *Socket) RemoveBlook(name string) error {
	s.tradeMu.Lock()
	defer s.tradeMu.Unlock()
	delete(s.offer, name)
	return s.Emit("trade", offerCommand{Action: "blooks", Blooks: copyOffer(s.offer)})
}

// Offer — копия текущего предложения.
func (s *Socket) Offer() map[string]int {
	s.tradeMu.Lock()
	defer s.tradeMu.Unlock()
	return copyOffer(s.offer)
}

func (s *Socket) AcceptTrade() error {
	return s.Emit("trade", tradeCommand{Action: "accept"})
}

func (s *Socket) DeclineTrade() error {
	return s.Emit("trade", tradeCommand{Action: "decline"})
}

// Cancel отзывает свой запрос на обмен.
func (s *Socket) Cancel() error {
	return s.Emit("cancel", nil)
}

func copyOffer(m map[string]int) map[string]int {
	cp := make(map[string]int, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
