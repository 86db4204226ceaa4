package socket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EgorLis/trtl/pkg/events"
	"github.com/EgorLis/trtl/pkg/logger"
	"github.com/EgorLis/trtl/pkg/request"
)

const DefaultRoom = "global"

var (
	ErrNotConnected     = errors.New("socket: not connected")
	ErrAlreadyConnected = errors.New("socket: already connected")
	ErrClosed           = errors.New("socket: connection closed")
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

type Config struct {
	Host     string
	Insecure bool // ws:// вместо wss://
	Session  string

	// URL целиком перекрывает Host/Insecure.
	URL string

	Proxy  *request.Proxy
	Logger logger.Logger
	// Events — общая шина с фасадом; nil — своя.
	Events *events.Emitter
}

type Socket struct {
	cfg     Config
	dialer  *websocket.Dialer
	events  *events.Emitter
	wire    *events.Emitter // подписки по сырому type с провода
	waiters *events.Emitter // ожидания ответов, срабатывают в горутине чтения
	log     logger.Logger

	mu       sync.Mutex // conn, done, pingStop
	conn     *websocket.Conn
	done     chan struct{}
	pingStop chan struct{}

	wmu     sync.Mutex // сериализует запись в websocket
	state   atomic.Int32
	closing atomic.Bool

	roomMu sync.RWMutex
	room   string
	joinMu sync.Mutex // join/info round trip не реентерабелен

	tradeMu sync.Mutex
	offer   map[string]int
}

func New(cfg Config) *Socket {
	if cfg.Proxy == nil {
		cfg.Proxy = &request.Proxy{}
	}
	if cfg.Events == nil {
		cfg.Events = events.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Log
	}
	return &Socket{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            cfg.Proxy.HTTPProxy,
			NetDialContext:   cfg.Proxy.DialContext,
			HandshakeTimeout: 45 * time.Second,
		},
		events:  cfg.Events,
		wire:    events.New(),
		waiters: events.New(),
		log:     cfg.Logger.WithField("component", "socket"),
		room:    DefaultRoom,
		offer:   make(map[string]int),
	}
}

// Events — шина семантических событий (connected, msg, join, trade, ...).
func (s *Socket) Events() *events.Emitter {
	return s.events
}

func (s *Socket) State() State {
	return State(s.state.Load())
}

func (s *Socket) IsConnected() bool {
	return s.State() == Connected
}

// Connect — устанавливает WebSocket и запускает readLoop.
// Ошибка дозвона уходит и в событие error, и в результат. Реконнекта нет.
// connected доставляется асинхронно, первым событием соединения: из его
// слушателя можно звать Join и другие вызовы с ожиданием ответа.
func (s *Socket) Connect(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(Disconnected), int32(Connecting)) {
		return ErrAlreadyConnected
	}

	conn, err := s.dialAndSetup(ctx)
	if err != nil {
		s.state.Store(int32(Disconnected))
		s.log.WithError(err).Warn("connect failed")
		s.events.Emit(EventError, err)
		return err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.conn = conn
	s.done = done
	s.mu.Unlock()
	s.closing.Store(false)
	s.state.Store(int32(Connected))
	s.startPing(conn)

	s.log.Info("connected")
	d := newDispatcher()
	d.push(func() { s.events.Emit(EventConnected, nil) })

	go s.readLoop(conn, done, d)
	return nil
}

// Disconnect закрывает соединение; событие disconnected придёт из readLoop.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	s.closing.Store(true)
	s.closeConn(conn, "logout")
}

// Emit отправляет кадр {type, data}. nil data не сериализуется.
func (s *Socket) Emit(typ string, data any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(outbound{Type: typ, Data: data}); err != nil {
		return fmt.Errorf("socket: write %s: %w", typ, err)
	}
	return nil
}

// On подписывает fn на входящие кадры с данным type (до нормализации).
func (s *Socket) On(typ string, fn func(Message)) func() {
	return s.wire.On(typ, func(ev events.Event) {
		fn(ev.Payload.(Message))
	})
}

func (s *Socket) doneChan() (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.done, nil
}

// expect ставит одноразовое ожидание кадра до отправки запроса,
// чтобы быстрый ответ не проскочил мимо.
func (s *Socket) expect(typ string) (<-chan Message, func()) {
	ch := make(chan Message, 1)
	off := s.waiters.Once(typ, func(ev events.Event) {
		ch <- ev.Payload.(Message)
	})
	return ch, off
}

func await(ctx context.Context, ch <-chan Message, done <-chan struct{}) (Message, error) {
	select {
	case m := <-ch:
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-done:
		return Message{}, ErrClosed
	}
}
