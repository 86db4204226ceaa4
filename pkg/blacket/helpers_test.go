package blacket

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type captured struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// stub — инстанс-заглушка: запоминает последний HTTP-запрос и отвечает
// заданным статусом/телом; /worker/socket апгрейдит в websocket.
type stub struct {
	srv   *httptest.Server
	count atomic.Int32

	mu     sync.Mutex
	last   captured
	status int
	body   string
	header http.Header

	frames chan frame
	conns  chan *websocket.Conn
}

func newStub(t *testing.T) *stub {
	t.Helper()
	s := &stub{status: http.StatusOK, body: `{}`, frames: make(chan frame, 32), conns: make(chan *websocket.Conn, 4)}
	up := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/worker/socket" {
			conn, err := up.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			select {
			case s.conns <- conn:
			default:
			}
			for {
				var fr frame
				if err := conn.ReadJSON(&fr); err != nil {
					return
				}
				s.frames <- fr
			}
		}

		body, _ := io.ReadAll(r.Body)
		s.count.Add(1)
		s.mu.Lock()
		s.last = captured{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body}
		status, respBody, header := s.status, s.body, s.header
		s.mu.Unlock()

		for k, vs := range header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *stub) respond(status int, body string, header http.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.body, s.header = status, body, header
}

func (s *stub) lastRequest() captured {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *stub) options() Options {
	return Options{Instance: strings.TrimPrefix(s.srv.URL, "http://"), Insecure: true}
}

func newTestClient(t *testing.T, s *stub) *Client {
	t.Helper()
	c, err := New("sid-123", s.options())
	require.NoError(t, err)
	t.Cleanup(c.Disconnect)
	return c
}

func recvFrame(t *testing.T, ch chan frame) frame {
	t.Helper()
	select {
	case fr := <-ch:
		return fr
	case <-time.After(2 * time.Second):
		t.Fatal("no frame")
	}
	return frame{}
}
