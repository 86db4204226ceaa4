package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/EgorLis/trtl/pkg/blacket"
	"github.com/EgorLis/trtl/pkg/events"
	"github.com/EgorLis/trtl/pkg/logger"
	"github.com/EgorLis/trtl/pkg/socket"
)

const botPrefix = "[bot]"

// Client — то, что боту нужно от blacket.Client.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()
	Join(ctx context.Context, room string) (socket.Message, error)
	SendMessage(ctx context.Context, text string) error
	On(name string, fn events.Listener) func()

	ClaimDailyReward(ctx context.Context) (blacket.Result, error)
	FetchUser(ctx context.Context, name string) (blacket.Result, error)
	FetchNews(ctx context.Context) (blacket.Result, error)
	OpenPack(ctx context.Context, pack string) (blacket.Result, error)
	SellItem(ctx context.Context, blook string, quantity int) (blacket.Result, error)
}

// EventReporter считает события сокета (metrics.Reporter).
type EventReporter interface {
	ReportEvent(name string)
}

// события, которые уходят в метрики
var reportedEvents = []string{
	socket.EventConnected, socket.EventDisconnected, socket.EventError,
	socket.EventMessage, socket.EventJoin, socket.EventLeave, socket.EventClear,
	socket.EventGeneric, socket.EventRequest, socket.EventTrade,
}

type ChatBot struct {
	client  Client
	cfg     *configStore
	metrics EventReporter
	log     logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	offs   []func()
	mu     sync.Mutex
}

func New(client Client) *ChatBot {
	return &ChatBot{
		client: client,
		cfg:    newConfigStore(""),
		log:    logger.Log.WithField("component", "bot"),
	}
}

func (bot *ChatBot) SetMetrics(r EventReporter) {
	bot.metrics = r
}

func (bot *ChatBot) SetLogger(l logger.Logger) {
	if l != nil {
		bot.log = l.WithField("component", "bot")
	}
}

// Room — комната из конфига (global, если не задана).
func (bot *ChatBot) Room() string {
	bot.cfg.mu.Lock()
	defer bot.cfg.mu.Unlock()
	if bot.cfg.data.Room == "" {
		return socket.DefaultRoom
	}
	return bot.cfg.data.Room
}

// SetRoom меняет комнату до Start; конфиг не сохраняется.
func (bot *ChatBot) SetRoom(room string) {
	bot.cfg.mu.Lock()
	bot.cfg.data.Room = room
	bot.cfg.mu.Unlock()
}

// Start подключается, вешает обработчики и входит в комнату.
func (bot *ChatBot) Start(ctx context.Context) error {
	if bot == nil || bot.client == nil {
		return errors.New("бот не инициализирован")
	}
	bot.mu.Lock()
	if bot.cancel != nil {
		bot.mu.Unlock()
		return errors.New("уже запущен")
	}
	bot.ctx, bot.cancel = context.WithCancel(ctx)
	bot.mu.Unlock()

	if bot.metrics != nil {
		for _, name := range reportedEvents {
			name := name
			bot.offs = append(bot.offs, bot.client.On(name, func(events.Event) { bot.metrics.ReportEvent(name) }))
		}
	}
	bot.offs = append(bot.offs,
		bot.client.On(socket.EventMessage, bot.onChat),
		bot.client.On(socket.EventError, func(ev events.Event) {
			if err, ok := ev.Payload.(error); ok {
				bot.log.WithError(err).Warn("socket error")
			}
		}),
	)

	if err := bot.client.Connect(bot.ctx); err != nil {
		bot.Stop()
		return err
	}
	room := bot.Room()
	if _, err := bot.client.Join(bot.ctx, room); err != nil {
		bot.Stop()
		return fmt.Errorf("join %s: %w", room, err)
	}
	bot.log.WithField("room", room).Info("bot started")
	return nil
}

// Stop снимает обработчики и закрывает соединение. Повторный вызов ничего не делает.
func (bot *ChatBot) Stop() {
	bot.mu.Lock()
	cancel := bot.cancel
	bot.cancel = nil
	offs := bot.offs
	bot.offs = nil
	bot.mu.Unlock()

	if cancel == nil {
		return
	}
	for _, off := range offs {
		off()
	}
	cancel()
	bot.client.Disconnect()
}

func (bot *ChatBot) context() context.Context {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	if bot.ctx == nil {
		return context.Background()
	}
	return bot.ctx
}

func (bot *ChatBot) onChat(ev events.Event) {
	msg, ok := ev.Payload.(socket.Message)
	if !ok {
		return
	}
	cm, err := msg.Chat()
	if err != nil {
		bot.log.WithError(err).Debug("bad chat frame")
		return
	}
	text := strings.TrimSpace(cm.Text)
	if strings.HasPrefix(text, botPrefix) {
		return
	}
	bot.log.Debugf("[%s] %s", cm.Author, text)
	if !strings.HasPrefix(text, "!") {
		return
	}

	ctx := bot.context()
	if err := bot.HandleCommand(ctx, cm.Author, text); err != nil {
		bot.say(ctx, fmt.Sprintf("err: %v", err))
	}
}

// say пишет в текущую комнату с префиксом [bot]
func (bot *ChatBot) say(ctx context.Context, text string) {
	if err := bot.client.SendMessage(ctx, botPrefix+" "+text); err != nil {
		bot.log.WithError(err).Warn("send failed")
	}
}
