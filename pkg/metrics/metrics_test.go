package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-go/vai-studio/pkg/core/live"
)

func TestMetrics_LiveRecorder(t *testing.T) {
	m := New("")
	m.RecordSessionStart()
	m.RecordSessionStart()
	m.RecordSessionEnd(live.StateClosed, 3*time.Second)

	if got := testutil.ToFloat64(m.LiveSessionsActive); got != 1 {
		t.Fatalf("active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LiveSessionsTotal.WithLabelValues("CLOSED")); got != 1 {
		t.Fatalf("closed sessions = %v, want 1", got)
	}

	m.RecordUplink(live.Sent)
	m.RecordUplink(live.Sent)
	m.RecordUplink(live.DroppedNotOpen)
	if got := testutil.ToFloat64(m.UplinkChunksTotal.WithLabelValues("sent")); got != 2 {
		t.Fatalf("sent = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.UplinkChunksTotal.WithLabelValues("dropped_not_open")); got != 1 {
		t.Fatalf("dropped = %v, want 1", got)
	}

	m.RecordPlaybackScheduled(0.5)
	m.RecordPlaybackScheduled(0.25)
	m.RecordInterruption()
	if got := testutil.ToFloat64(m.PlaybackSecondsTotal); got != 0.75 {
		t.Fatalf("playback seconds = %v, want 0.75", got)
	}
	if got := testutil.ToFloat64(m.LiveInterruptionsTotal); got != 1 {
		t.Fatalf("interruptions = %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New("studio")
	m.RecordGeneration("image", "gemini-2.5-flash-image", "ok", time.Second)
	m.RecordError("search", "permission_denied")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`studio_generations_total{kind="image",model="gemini-2.5-flash-image",status="ok"} 1`,
		`studio_errors_total{component="search",error_type="permission_denied"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
