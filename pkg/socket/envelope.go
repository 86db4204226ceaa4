package socket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Имена событий, которые Socket публикует в общую шину.
const (
	EventError        = "error"
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventJoin         = "join"
	EventLeave        = "leave"
	EventMessage      = "msg"
	EventClear        = "clear"
	EventInfo         = "info"
	EventGeneric      = "generic"
	EventRequest      = "request"
	EventCancelled    = "cancelled"
	EventDeclined     = "declined"
	EventTrade        = "trade"
)

// Envelope — кадр на проводе: {"type": ..., "data": ...}.
// user/error/reason встречаются только во входящих кадрах.
type Envelope struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	User   json.RawMessage `json:"user,omitempty"`
	Error  bool            `json:"error,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Kind — закрытый набор вариантов входящего кадра.
type Kind int

const (
	KindGeneric Kind = iota
	KindChat
	KindClear
	KindJoined
	KindLeft
	KindInfo
	KindRequestError
	KindTradeRequest
	KindTradeCancelled
	KindTradeDeclined
	KindTradeUpdate
)

var kindEvents = map[Kind]string{
	KindGeneric:        EventGeneric,
	KindChat:           EventMessage,
	KindClear:          EventClear,
	KindJoined:         EventJoin,
	KindLeft:           EventLeave,
	KindInfo:           EventInfo,
	KindRequestError:   EventError,
	KindTradeRequest:   EventRequest,
	KindTradeCancelled: EventCancelled,
	KindTradeDeclined:  EventDeclined,
	KindTradeUpdate:    EventTrade,
}

// Event — имя события шины для варианта.
func (k Kind) Event() string {
	return kindEvents[k]
}

var kindNames = [...]string{
	KindGeneric:        "Generic",
	KindChat:           "Chat",
	KindClear:          "Clear",
	KindJoined:         "Joined",
	KindLeft:           "Left",
	KindInfo:           "Info",
	KindRequestError:   "RequestError",
	KindTradeRequest:   "TradeRequest",
	KindTradeCancelled: "TradeCancelled",
	KindTradeDeclined:  "TradeDeclined",
	KindTradeUpdate:    "TradeUpdate",
}

// String — имя варианта, для логов.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Message — разобранный входящий кадр. Type — исходный тип с провода.
type Message struct {
	Kind    Kind
	Type    string
	Data    json.RawMessage
	User    json.RawMessage
	Reason  string
	TradeID string
	Raw     []byte
}

// RemoteError — сервер ответил на request с error=true.
type RemoteError struct {
	Reason string
}

func (e *RemoteError) Error() string {
	return "socket: remote error: " + e.Reason
}

// Decode разбирает кадр один раз; дальше везде используется Kind.
func Decode(raw []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("socket: decode envelope: %w", err)
	}

	m := Message{Type: env.Type, Data: env.Data, User: env.User, Reason: env.Reason, Raw: raw}
	switch env.Type {
	case "chat", "receive":
		m.Kind = KindChat
	case "clear":
		m.Kind = KindClear
	case "join", "joined":
		m.Kind = KindJoined
	case "leave", "left":
		m.Kind = KindLeft
	case "info":
		m.Kind = KindInfo
	case "trade":
		m.Kind = KindTradeUpdate
	case "request":
		decodeRequest(&m, env)
	default:
		m.Kind = KindGeneric
	}
	return m, nil
}

func decodeRequest(m *Message, env Envelope) {
	m.Kind = KindGeneric
	if env.Error {
		m.Kind = KindRequestError
		return
	}

	var d struct {
		ID        json.RawMessage `json:"id"`
		Cancelled bool            `json:"cancelled"`
		Declined  bool            `json:"declined"`
	}
	if len(env.Data) == 0 || json.Unmarshal(env.Data, &d) != nil {
		return
	}
	switch {
	case len(d.ID) > 0 && string(d.ID) != "null":
		m.Kind = KindTradeRequest
		m.TradeID = rawToString(d.ID)
	case d.Cancelled:
		m.Kind = KindTradeCancelled
	case d.Declined:
		m.Kind = KindTradeDeclined
	}
}

// строка JSON раскавычивается, число остаётся как есть
func rawToString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if uq, err := strconv.Unquote(s); err == nil {
		return uq
	}
	return s
}

// ChatMessage — сообщение чата в удобном виде.
type ChatMessage struct {
	Room   string
	Author string
	Text   string
}

type chatUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (u chatUser) display() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Name
}

func decodeUser(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var u chatUser
	if json.Unmarshal(raw, &u) == nil {
		return u.display()
	}
	return rawToString(raw)
}

// Chat разбирает data сообщения чата: строку или объект
// {room, message|msg, user|author}. Автор может прийти и в поле user кадра.
func (m Message) Chat() (ChatMessage, error) {
	if m.Kind != KindChat {
		return ChatMessage{}, fmt.Errorf("socket: %q is not a chat message", m.Type)
	}

	var text string
	if json.Unmarshal(m.Data, &text) == nil {
		return ChatMessage{Text: text, Author: decodeUser(m.User)}, nil
	}

	var d struct {
		Room    string          `json:"room"`
		Message string          `json:"message"`
		Msg     string          `json:"msg"`
		User    json.RawMessage `json:"user"`
		Author  json.RawMessage `json:"author"`
	}
	if err := json.Unmarshal(m.Data, &d); err != nil {
		return ChatMessage{}, fmt.Errorf("socket: decode chat: %w", err)
	}

	cm := ChatMessage{Room: d.Room, Text: d.Message}
	if cm.Text == "" {
		cm.Text = d.Msg
	}
	for _, raw := range []json.RawMessage{d.User, d.Author, m.User} {
		if cm.Author = decodeUser(raw); cm.Author != "" {
			break
		}
	}
	return cm, nil
}
