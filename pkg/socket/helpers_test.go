package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/trtl/pkg/events"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// fakeServer — инстанс, который принимает одно соединение на /worker/socket
// и складывает входящие кадры в frames.
type fakeServer struct {
	srv    *httptest.Server
	frames chan frame
	conns  chan *websocket.Conn
	header chan http.Header
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{
		frames: make(chan frame, 32),
		conns:  make(chan *websocket.Conn, 1),
		header: make(chan http.Header, 1),
	}
	up := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/worker/socket" {
			http.NotFound(w, r)
			return
		}
		f.header <- r.Header.Clone()
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- conn
		for {
			var fr frame
			if err := conn.ReadJSON(&fr); err != nil {
				return
			}
			f.frames <- fr
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/worker/socket"
}

func connect(t *testing.T, f *fakeServer) (*Socket, *websocket.Conn) {
	t.Helper()
	s := New(Config{URL: f.url(), Session: "secret"})
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(s.Disconnect)
	return s, recv(t, f.conns)
}

func recv[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting on channel")
	}
	var zero T
	return zero
}

// collect подписывается на события и складывает их в канал
func collect(e *events.Emitter, name string) chan events.Event {
	ch := make(chan events.Event, 16)
	e.On(name, func(ev events.Event) { ch <- ev })
	return ch
}

func serverSend(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}
