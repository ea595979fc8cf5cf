package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveLogin("admin", "ok")
	m.ObserveLogin("member", "denied")
	m.ObserveLogin("member", "denied")
	m.ObserveAction("confirm", "ok")
	m.SetRooms(3)
	m.WSConnected()
	m.WSConnected()
	m.WSDisconnected()
	m.ObserveArchiveWrite(nil)
	m.ObserveArchiveWrite(errors.New("disk full"))

	if got := testutil.ToFloat64(m.logins.WithLabelValues("member", "denied")); got != 2 {
		t.Fatalf("denied logins = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rooms); got != 3 {
		t.Fatalf("rooms = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.wsConnections); got != 1 {
		t.Fatalf("ws connections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.archiveWrites.WithLabelValues("error")); got != 1 {
		t.Fatalf("archive errors = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLogin("admin", "ok")
	m.ObserveAction("confirm", "ok")
	m.SetRooms(1)
	m.WSConnected()
	m.WSDisconnected()
	m.ObserveArchiveWrite(nil)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveAction("setNotes", "forbidden")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `toolboxtalk_actions_total{action="setNotes",result="forbidden"} 1`) {
		t.Fatalf("metric missing from output:\n%s", body)
	}
}
