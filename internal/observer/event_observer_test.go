package observer

import (
	"context"
	"testing"
	"time"
)

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event ScanEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                      { return "panicking_observer" }

func TestMetricsObserver(t *testing.T) {
	metrics := NewMetricsObserver()
	ctx := context.Background()

	metrics.OnEvent(ctx, ScanEvent{EventType: ScanStarted, ScanID: "a"})
	metrics.OnEvent(ctx, ScanEvent{EventType: ScanStarted, ScanID: "b"})
	metrics.OnEvent(ctx, ScanEvent{EventType: ScanCompleted, ScanID: "a", ProcessingTime: 2 * time.Second, Success: true})
	metrics.OnEvent(ctx, ScanEvent{EventType: ScanFailed, ScanID: "b", ErrorMessage: "OCR failed"})

	got := metrics.GetMetrics()
	if got["total_scans"] != int64(2) {
		t.Errorf("Expected 2 total scans, got %v", got["total_scans"])
	}
	if got["completed_scans"] != int64(1) {
		t.Errorf("Expected 1 completed scan, got %v", got["completed_scans"])
	}
	if got["failed_scans"] != int64(1) {
		t.Errorf("Expected 1 failed scan, got %v", got["failed_scans"])
	}
	if got["avg_processing_time"] != "2s" {
		t.Errorf("Expected avg processing time 2s, got %v", got["avg_processing_time"])
	}
}

func TestEventPublisher_NotifiesAllObservers(t *testing.T) {
	publisher := NewEventPublisher()
	first := NewMetricsObserver()
	second := NewMetricsObserver()
	publisher.Subscribe(first)
	publisher.Subscribe(second)

	publisher.NotifyObservers(context.Background(), ScanEvent{EventType: ScanStarted, ScanID: "a"})

	for i, metrics := range []*MetricsObserver{first, second} {
		if got := metrics.GetMetrics()["total_scans"]; got != int64(1) {
			t.Errorf("Observer %d: expected 1 total scan, got %v", i, got)
		}
	}
}

func TestEventPublisher_SurvivesPanickingObserver(t *testing.T) {
	publisher := NewEventPublisher()
	metrics := NewMetricsObserver()
	publisher.Subscribe(panickingObserver{})
	publisher.Subscribe(metrics)

	publisher.NotifyObservers(context.Background(), ScanEvent{EventType: ScanStarted, ScanID: "a"})

	// The observer after the panic still receives the event
	if got := metrics.GetMetrics()["total_scans"]; got != int64(1) {
		t.Errorf("Expected 1 total scan, got %v", got)
	}
}
