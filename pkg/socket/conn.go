package socket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EgorLis/trtl/pkg/request"
)

// ========================= low-level =========================

// URL — адрес сокета инстанса
func (s *Socket) URL() string {
	if s.cfg.URL != "" {
		return s.cfg.URL
	}
	scheme := "wss"
	if s.cfg.Insecure {
		scheme = "ws"
	}
	return fmt.Sprintf("%s://%s/worker/socket", scheme, s.cfg.Host)
}

func (s *Socket) dialAndSetup(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Cookie", "connect.sid="+s.cfg.Session)
	header.Set("User-Agent", request.UserAgent)

	conn, resp, err := s.dialer.DialContext(ctx, s.URL(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("socket: dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("socket: dial: %w", err)
	}
	conn.SetReadLimit(8 << 20)
	return conn, nil
}

// закрыть соединение: close-фрейм, затем сам сокет
func (s *Socket) closeConn(conn *websocket.Conn, reason string) {
	s.stopPing()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(500*time.Millisecond))
	_ = conn.Close()
}

// ping каждые 10s; дедлайн чтения не ставим, ответ сервера не обязателен
func (s *Socket) startPing(conn *websocket.Conn) {
	s.stopPing()
	stop := make(chan struct{})
	s.mu.Lock()
	s.pingStop = stop
	s.mu.Unlock()

	go func() {
		t := time.NewTicker(10 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
					s.log.WithError(err).Debug("ping failed")
				}
			case <-stop:
				return
			}
		}
	}()
}

func (s *Socket) stopPing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pingStop != nil {
		close(s.pingStop)
		s.pingStop = nil
	}
}
