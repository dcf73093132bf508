package observability

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/IshaanNene/TopicPulse/internal/engine"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// Metrics must satisfy the engine's recorder hook.
var _ engine.Recorder = (*Metrics)(nil)

func TestTaskOutcomes(t *testing.T) {
	m := NewMetrics(testLogger)

	m.TaskStarted()
	m.TaskStarted()
	m.TaskStarted()
	if got := testutil.ToFloat64(m.tasksInFlight); got != 3 {
		t.Errorf("expected 3 tasks in flight, got %v", got)
	}

	m.TaskFinished(engine.OutcomeOK, 2*time.Second, 1024)
	m.TaskFinished(engine.OutcomeOK, time.Second, 512)
	m.TaskFinished(engine.OutcomeFetchError, 10*time.Second, 0)

	if got := testutil.ToFloat64(m.tasksInFlight); got != 0 {
		t.Errorf("expected no tasks in flight, got %v", got)
	}
	if got := testutil.ToFloat64(m.topicsTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("expected 2 ok topics, got %v", got)
	}
	if got := testutil.ToFloat64(m.topicsTotal.WithLabelValues("fetch_error")); got != 1 {
		t.Errorf("expected 1 failed topic, got %v", got)
	}
	if got := testutil.ToFloat64(m.bytesDownloaded); got != 1536 {
		t.Errorf("expected 1536 bytes, got %v", got)
	}
	if got := testutil.CollectAndCount(m.taskDuration); got != 2 {
		t.Errorf("expected histograms for 2 outcomes, got %d", got)
	}
}

func TestRecordStored(t *testing.T) {
	m := NewMetrics(testLogger)
	m.RecordStored("csv", 10)
	m.RecordStored("csv", 5)

	if got := testutil.ToFloat64(m.recordsStored.WithLabelValues("csv")); got != 15 {
		t.Errorf("expected 15 stored records, got %v", got)
	}
}

func TestHandlerExposition(t *testing.T) {
	m := NewMetrics(testLogger)
	m.TaskStarted()
	m.TaskFinished(engine.OutcomeParseError, time.Second, 100)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`topicpulse_topics_total{outcome="parse_error"} 1`,
		"topicpulse_tasks_in_flight 0",
		"topicpulse_bytes_downloaded_total 100",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestSeparateRegistries(t *testing.T) {
	a := NewMetrics(testLogger)
	b := NewMetrics(testLogger)
	a.RecordStored("csv", 1)

	if got := testutil.ToFloat64(b.recordsStored.WithLabelValues("csv")); got != 0 {
		t.Errorf("instances should not share metrics, got %v", got)
	}
}
