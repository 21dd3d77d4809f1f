package metrics

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHelpersWithoutGlobal(t *testing.T) {
	SetGlobal(nil)

	// None of these may panic
	ObserveAPICall("GET", "/x", "200", time.Millisecond)
	IncWaitlistFetch("client", nil)
	AddEmails("composer", 1, 1)
	IncSearchSuperseded("waitlist")
	SetActiveSessions(3)
}

func TestObserveAPICall(t *testing.T) {
	m := New()
	SetGlobal(m)
	defer SetGlobal(nil)

	ObserveAPICall("GET", "/api/admin/email-templates/7", "404", 10*time.Millisecond)

	got := testutil.ToFloat64(m.APICallsTotal.WithLabelValues("GET", "/api/admin/email-templates/{id}", "404"))
	if got != 1 {
		t.Errorf("api_calls_total = %v, want 1", got)
	}
}

func TestAddEmails(t *testing.T) {
	m := New()
	SetGlobal(m)
	defer SetGlobal(nil)

	AddEmails("sequential", 2, 1)
	IncWaitlistFetch("server", errors.New("down"))

	if v := testutil.ToFloat64(m.EmailsSentTotal.WithLabelValues("sequential")); v != 2 {
		t.Errorf("emails_sent_total = %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.EmailsFailedTotal.WithLabelValues("sequential")); v != 1 {
		t.Errorf("emails_failed_total = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.WaitlistFetchesTotal.WithLabelValues("server", "error")); v != 1 {
		t.Errorf("waitlist_fetches_total = %v, want 1", v)
	}
}

func TestServerHandlerIPFilter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New()
	s := NewServer(m, "", "", []string{"10.0.0.0/8"}, nil, logger)
	h := s.Handler()

	allowed := httptest.NewRequest("GET", "/metrics", nil)
	allowed.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, allowed)
	if rec.Code != http.StatusOK {
		t.Errorf("allowed status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "backoffice_active_sessions") {
		t.Error("metrics output missing backoffice_active_sessions")
	}

	denied := httptest.NewRequest("GET", "/metrics", nil)
	denied.RemoteAddr = "192.168.1.1:5555"
	denied.Header.Set("X-Forwarded-For", "10.1.2.3")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, denied)
	if rec.Code != http.StatusForbidden {
		t.Errorf("denied status = %d, want 403", rec.Code)
	}

	health := httptest.NewRequest("GET", "/health", nil)
	health.RemoteAddr = "192.168.1.1:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, health)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
