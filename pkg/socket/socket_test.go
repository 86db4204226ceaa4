package socket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/trtl/pkg/events"
	"github.com/EgorLis/trtl/pkg/request"
)

func TestConnectSendsSessionCookie(t *testing.T) {
	f := newFakeServer(t)
	s := New(Config{URL: f.url(), Session: "secret"})
	connected := collect(s.Events(), EventConnected)

	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()

	header := recv(t, f.header)
	assert.Equal(t, "connect.sid=secret", header.Get("Cookie"))
	assert.Equal(t, request.UserAgent, header.Get("User-Agent"))
	recv(t, connected)
	assert.Equal(t, Connected, s.State())

	assert.ErrorIs(t, s.Connect(context.Background()), ErrAlreadyConnected)
}

func TestConnectFailureEmitsError(t *testing.T) {
	f := newFakeServer(t)
	url := f.url()
	f.srv.Close()

	s := New(Config{URL: url})
	errs := collect(s.Events(), EventError)

	err := s.Connect(context.Background())
	require.Error(t, err)
	ev := recv(t, errs)
	assert.Equal(t, err, ev.Payload)
	assert.Equal(t, Disconnected, s.State())
}

func TestURL(t *testing.T) {
	assert.Equal(t, "wss://v2.blacket.org/worker/socket", New(Config{Host: "v2.blacket.org"}).URL())
	assert.Equal(t, "ws://localhost:3000/worker/socket", New(Config{Host: "localhost:3000", Insecure: true}).URL())
}

func TestRecognizedFrameEmitsExactlyOneEvent(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)
	joins := collect(s.Events(), EventJoin)
	generics := collect(s.Events(), EventGeneric)

	serverSend(t, conn, `{"type":"joined","data":{"user":"bob"}}`)
	serverSend(t, conn, `{"type":"sentinel"}`)

	ev := recv(t, joins)
	msg := ev.Payload.(Message)
	assert.Equal(t, "joined", msg.Type)
	assert.Equal(t, KindJoined, msg.Kind)
	assert.JSONEq(t, `{"user":"bob"}`, string(msg.Data))

	// первым generic должен прийти sentinel, а не joined
	g := recv(t, generics).Payload.(Message)
	assert.Equal(t, "sentinel", g.Type)
	assert.Len(t, joins, 0)
}

func TestRequestVariants(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)
	requests := collect(s.Events(), EventRequest)
	cancelled := collect(s.Events(), EventCancelled)
	declined := collect(s.Events(), EventDeclined)
	errs := collect(s.Events(), EventError)

	serverSend(t, conn, `{"type":"request","data":{"id":17},"user":{"username":"acai"}}`)
	req := recv(t, requests).Payload.(Message)
	assert.Equal(t, "17", req.TradeID)
	assert.JSONEq(t, `{"username":"acai"}`, string(req.User))

	serverSend(t, conn, `{"type":"request","data":{"cancelled":true}}`)
	recv(t, cancelled)

	serverSend(t, conn, `{"type":"request","data":{"declined":true}}`)
	recv(t, declined)

	serverSend(t, conn, `{"type":"request","error":true,"reason":"User is offline."}`)
	ev := recv(t, errs)
	var remote *RemoteError
	require.True(t, errors.As(ev.Payload.(error), &remote))
	assert.Equal(t, "User is offline.", remote.Reason)
}

func TestMalformedFrameEmitsError(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)
	errs := collect(s.Events(), EventError)

	serverSend(t, conn, `not json`)
	ev := recv(t, errs)
	assert.Contains(t, ev.Payload.(error).Error(), "decode envelope")
	assert.True(t, s.IsConnected())
}

func TestRawSubscriptionSeesWireType(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)
	got := make(chan Message, 1)
	s.On("receive", func(m Message) { got <- m })

	serverSend(t, conn, `{"type":"receive","data":"hi"}`)
	m := recv(t, got)
	assert.Equal(t, KindChat, m.Kind)
}

func TestJoinUpdatesRoomBeforeAck(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)
	assert.Equal(t, DefaultRoom, s.Room())

	result := make(chan Message, 1)
	go func() {
		m, err := s.Join(context.Background(), "lobby")
		if err == nil {
			result <- m
		}
	}()

	fr := recv(t, f.frames)
	assert.Equal(t, "join", fr.Type)
	assert.JSONEq(t, `"lobby"`, string(fr.Data))
	// подтверждения ещё нет, а комната уже новая
	assert.Equal(t, "lobby", s.Room())

	require.NoError(t, s.SendMessage("hi"))
	fr = recv(t, f.frames)
	assert.Equal(t, "chat", fr.Type)
	assert.JSONEq(t, `{"room":"lobby","message":"hi"}`, string(fr.Data))

	serverSend(t, conn, `{"type":"join","data":{"room":"lobby"}}`)
	ack := recv(t, result)
	assert.JSONEq(t, `{"room":"lobby"}`, string(ack.Data))
}

func TestSendMessageToSwitchesRoom(t *testing.T) {
	f := newFakeServer(t)
	s, _ := connect(t, f)

	require.NoError(t, s.SendMessageTo("trading", "wts dog"))
	fr := recv(t, f.frames)
	assert.JSONEq(t, `{"room":"trading","message":"wts dog"}`, string(fr.Data))
	assert.Equal(t, "trading", s.Room())
}

func TestFetchMessagesRoundTrip(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)

	result := make(chan Message, 1)
	go func() {
		m, err := s.FetchMessages(context.Background(), "")
		if err == nil {
			result <- m
		}
	}()

	fr := recv(t, f.frames)
	assert.Equal(t, "join", fr.Type)
	assert.JSONEq(t, `"global"`, string(fr.Data))
	serverSend(t, conn, `{"type":"join"}`)

	fr = recv(t, f.frames)
	assert.Equal(t, "info", fr.Type)
	assert.Empty(t, fr.Data)
	serverSend(t, conn, `{"type":"info","data":{"messages":[{"id":1}]}}`)

	info := recv(t, result)
	assert.Equal(t, KindInfo, info.Kind)
	assert.JSONEq(t, `{"messages":[{"id":1}]}`, string(info.Data))
}

func TestTradeOfferSentInFull(t *testing.T) {
	f := newFakeServer(t)
	s, _ := connect(t, f)

	require.NoError(t, s.TradeBlook("sword", 2))
	fr := recv(t, f.frames)
	assert.Equal(t, "trade", fr.Type)
	assert.JSONEq(t, `{"action":"blooks","blooks":{"sword":2}}`, string(fr.Data))

	require.NoError(t, s.TradeBlook("shield", 1))
	fr = recv(t, f.frames)
	assert.JSONEq(t, `{"action":"blooks","blooks":{"sword":2,"shield":1}}`, string(fr.Data))

	require.NoError(t, s.RemoveBlook("sword"))
	fr = recv(t, f.frames)
	assert.JSONEq(t, `{"action":"blooks","blooks":{"shield":1}}`, string(fr.Data))

	assert.Equal(t, map[string]int{"shield": 1}, s.Offer())

	require.NoError(t, s.RemoveBlook("shield"))
	fr = recv(t, f.frames)
	assert.JSONEq(t, `{"action":"blooks","blooks":{}}`, string(fr.Data))
}

func TestTradeBlookDefaultsToOne(t *testing.T) {
	f := newFakeServer(t)
	s, _ := connect(t, f)

	require.NoError(t, s.TradeBlook("Dog", 0))
	require.NoError(t, s.TradeBlook("Dog", 0))
	recv(t, f.frames)
	fr := recv(t, f.frames)
	assert.JSONEq(t, `{"action":"blooks","blooks":{"Dog":2}}`, string(fr.Data))
}

func TestRequestTradeResetsOffer(t *testing.T) {
	f := newFakeServer(t)
	s, _ := connect(t, f)

	require.NoError(t, s.TradeBlook("Dog", 3))
	recv(t, f.frames)

	require.NoError(t, s.RequestTrade("42"))
	fr := recv(t, f.frames)
	assert.Equal(t, "request", fr.Type)
	assert.JSONEq(t, `"42"`, string(fr.Data))
	assert.Empty(t, s.Offer())
}

func TestControlMessages(t *testing.T) {
	f := newFakeServer(t)
	s, _ := connect(t, f)

	require.NoError(t, s.AcceptTrade())
	fr := recv(t, f.frames)
	assert.Equal(t, "trade", fr.Type)
	assert.JSONEq(t, `{"action":"accept"}`, string(fr.Data))

	require.NoError(t, s.DeclineTrade())
	fr = recv(t, f.frames)
	assert.JSONEq(t, `{"action":"decline"}`, string(fr.Data))

	require.NoError(t, s.Cancel())
	fr = recv(t, f.frames)
	assert.Equal(t, "cancel", fr.Type)
	assert.Empty(t, fr.Data)
}

func TestWaitTrade(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)

	wait := func() chan bool {
		out := make(chan bool, 1)
		go func() {
			ok, err := s.WaitTrade(context.Background())
			if err == nil {
				out <- ok
			}
		}()
		require.Eventually(t, func() bool {
			return s.waiters.ListenerCount("trade") == 1
		}, 2*time.Second, 5*time.Millisecond)
		return out
	}

	accepted := wait()
	serverSend(t, conn, `{"type":"trade","data":{"blooks":{"Cat":1}}}`)
	assert.True(t, recv(t, accepted))

	declined := wait()
	serverSend(t, conn, `{"type":"request","data":{"declined":true}}`)
	assert.False(t, recv(t, declined))

	assert.Equal(t, 0, s.waiters.ListenerCount("trade"))
	assert.Equal(t, 0, s.waiters.ListenerCount("request"))
}

func TestJoinFromConnectedListener(t *testing.T) {
	f := newFakeServer(t)
	s := New(Config{URL: f.url()})
	result := make(chan error, 1)
	s.Events().Once(EventConnected, func(events.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := s.Join(ctx, "lobby")
		result <- err
	})

	start := time.Now()
	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()
	assert.Less(t, time.Since(start), time.Second)

	conn := recv(t, f.conns)
	fr := recv(t, f.frames)
	assert.Equal(t, "join", fr.Type)
	serverSend(t, conn, `{"type":"join"}`)
	assert.NoError(t, recv(t, result))
}

func TestJoinFromMessageListener(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)
	result := make(chan error, 1)
	s.Events().Once(EventMessage, func(events.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := s.Join(ctx, "trading")
		result <- err
	})
	later := collect(s.Events(), EventGeneric)

	serverSend(t, conn, `{"type":"chat","data":{"message":"!join"}}`)
	fr := recv(t, f.frames)
	assert.Equal(t, "join", fr.Type)
	assert.JSONEq(t, `"trading"`, string(fr.Data))

	// кадр после ответа ждёт, пока слушатель не закончит
	serverSend(t, conn, `{"type":"join"}`)
	serverSend(t, conn, `{"type":"sentinel"}`)
	assert.NoError(t, recv(t, result))
	assert.Equal(t, "sentinel", recv(t, later).Payload.(Message).Type)
}

func TestWaitTradeFromRequestListener(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)
	result := make(chan bool, 1)
	s.Events().Once(EventRequest, func(events.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		ok, err := s.WaitTrade(ctx)
		if err == nil {
			result <- ok
		}
	})

	serverSend(t, conn, `{"type":"request","data":{"id":3}}`)
	require.Eventually(t, func() bool {
		return s.waiters.ListenerCount("trade") == 1
	}, 2*time.Second, 5*time.Millisecond)
	serverSend(t, conn, `{"type":"trade","data":{"blooks":{}}}`)
	assert.True(t, recv(t, result))
}

func TestWaitTradeHonoursContext(t *testing.T) {
	f := newFakeServer(t)
	s, _ := connect(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.WaitTrade(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNormalCloseByPeer(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)
	errs := collect(s.Events(), EventError)
	disconnected := collect(s.Events(), EventDisconnected)

	require.NoError(t, conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second)))

	recv(t, disconnected)
	assert.Len(t, errs, 0)
	assert.Equal(t, Disconnected, s.State())
	assert.ErrorIs(t, s.Emit("chat", "x"), ErrNotConnected)
}

func TestAbruptCloseEmitsErrorThenDisconnected(t *testing.T) {
	f := newFakeServer(t)
	s, conn := connect(t, f)
	errs := collect(s.Events(), EventError)
	disconnected := collect(s.Events(), EventDisconnected)

	require.NoError(t, conn.Close())

	recv(t, disconnected)
	assert.Len(t, errs, 1)
}

func TestDisconnectFailsPendingJoin(t *testing.T) {
	f := newFakeServer(t)
	s, _ := connect(t, f)
	disconnected := collect(s.Events(), EventDisconnected)

	result := make(chan error, 1)
	go func() {
		_, err := s.Join(context.Background(), "lobby")
		result <- err
	}()
	recv(t, f.frames)

	s.Disconnect()
	assert.ErrorIs(t, recv(t, result), ErrClosed)
	recv(t, disconnected)
}

func TestOperationsWithoutConnection(t *testing.T) {
	s := New(Config{Host: "v2.blacket.org"})

	_, err := s.Join(context.Background(), "lobby")
	assert.ErrorIs(t, err, ErrNotConnected)
	// комната всё равно последняя запрошенная
	assert.Equal(t, "lobby", s.Room())

	assert.ErrorIs(t, s.SendMessage("hi"), ErrNotConnected)
	_, err = s.WaitTrade(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
	s.Disconnect()
}
