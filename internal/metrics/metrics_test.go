package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/trtl/pkg/request"
)

var _ request.Reporter = (*Reporter)(nil)

func TestReportRequest(t *testing.T) {
	r := New(map[string]string{"instance": "v2.blacket.org"})

	r.ReportRequest("GET", "/worker/user/acai", 200, 20*time.Millisecond)
	r.ReportRequest("GET", "/worker/user/bob", 200, 10*time.Millisecond)
	r.ReportRequest("POST", "/worker/open", 0, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.requests.WithLabelValues("GET", "/worker/user/:name", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("POST", "/worker/open", "0")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.latency))
}

func TestReportEvent(t *testing.T) {
	r := New(nil)

	r.ReportEvent("connected")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.connected))
	r.ReportEvent("msg")
	r.ReportEvent("msg")
	r.ReportEvent("disconnected")

	assert.Equal(t, 0.0, testutil.ToFloat64(r.connected))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("msg")))
}

func TestHandler(t *testing.T) {
	r := New(nil)
	r.ReportEvent("join")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `trtl_socket_events_total{event="join"} 1`))
}

func TestRoute(t *testing.T) {
	assert.Equal(t, "/worker/news", Route("/worker/news"))
	assert.Equal(t, "/worker/user", Route("/worker/user"))
	assert.Equal(t, "/content", Route("/content/blooks/Dog.png"))
	assert.Equal(t, "/content", Route("/images/bg.png"))
}
