package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go-label-scan/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scans.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleAnalysis() models.AnalysisResult {
	return models.AnalysisResult{
		OverallScore: 90,
		Findings: []models.Finding{
			{Rule: "PALM_OIL", Severity: models.SeverityModerate, EvidenceText: "Palm Oil", ScoreDelta: -10},
		},
	}
}

func sampleExtracted() models.ExtractedData {
	return models.ExtractedData{
		Ingredients:    []string{"Roasted Peanuts"},
		NutritionFacts: map[string]string{"Sodium": "5mg"},
		Confidence:     91.5,
	}
}

func TestCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scan, err := s.Create(ctx, "/uploads/labels/a.jpg", StatusProcessing)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if scan.ID == "" {
		t.Error("Expected generated scan ID")
	}
	if scan.Status != StatusProcessing {
		t.Errorf("Expected status PROCESSING, got %s", scan.Status)
	}
	if scan.ImageURL != "/uploads/labels/a.jpg" {
		t.Errorf("Unexpected image URL %q", scan.ImageURL)
	}
	if scan.OCRText != nil || scan.ExtractedData != nil || scan.HealthScore != nil ||
		scan.AnalysisResult != nil || scan.ErrorMessage != nil {
		t.Error("Expected result fields to be nil on a fresh scan")
	}
	if scan.CreatedAt.IsZero() || scan.UpdatedAt.IsZero() {
		t.Error("Expected timestamps on a fresh scan")
	}
}

func TestCreate_RejectsTerminalInitialStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, status := range []Status{StatusCompleted, StatusFailed} {
		if _, err := s.Create(ctx, "/uploads/labels/a.jpg", status); err == nil {
			t.Errorf("Expected error creating scan with initial status %s", status)
		}
	}
}

func TestGetByID_Missing(t *testing.T) {
	s := newTestStore(t)

	scan, err := s.GetByID(context.Background(), "nonexistent-id")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if scan != nil {
		t.Errorf("Expected nil for missing scan, got %+v", scan)
	}
}

func TestMarkProcessing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scan, err := s.Create(ctx, "/uploads/labels/a.jpg", StatusPending)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.MarkProcessing(ctx, scan.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	// Idempotent for scans already in flight
	if err := s.MarkProcessing(ctx, scan.ID); err != nil {
		t.Fatalf("Second MarkProcessing failed: %v", err)
	}

	got, err := s.GetByID(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != StatusProcessing {
		t.Errorf("Expected status PROCESSING, got %s", got.Status)
	}
}

func TestMarkCompleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scan, err := s.Create(ctx, "/uploads/labels/a.jpg", StatusProcessing)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = s.MarkCompleted(ctx, scan.ID, "Pintola Peanut Butter\nIngredients: Roasted Peanuts",
		"Pintola Peanut Butter", sampleExtracted(), sampleAnalysis())
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	got, err := s.GetByID(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("Expected status COMPLETED, got %s", got.Status)
	}
	if got.OCRText == nil || got.ExtractedData == nil || got.HealthScore == nil || got.AnalysisResult == nil {
		t.Fatal("Expected all result fields populated on a COMPLETED scan")
	}
	if *got.HealthScore != 90 {
		t.Errorf("Expected health score 90, got %d", *got.HealthScore)
	}
	if got.ProductName == nil || *got.ProductName != "Pintola Peanut Butter" {
		t.Errorf("Unexpected product name %v", got.ProductName)
	}
	if got.ExtractedData.Confidence != 91.5 {
		t.Errorf("Expected confidence 91.5, got %f", got.ExtractedData.Confidence)
	}
	if len(got.ExtractedData.Ingredients) != 1 || got.ExtractedData.Ingredients[0] != "Roasted Peanuts" {
		t.Errorf("Unexpected ingredients %v", got.ExtractedData.Ingredients)
	}
	if len(got.AnalysisResult.Findings) != 1 || got.AnalysisResult.Findings[0].Rule != "PALM_OIL" {
		t.Errorf("Unexpected findings %v", got.AnalysisResult.Findings)
	}
	if got.ErrorMessage != nil {
		t.Errorf("Expected nil error message, got %q", *got.ErrorMessage)
	}
}

func TestMarkFailed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scan, err := s.Create(ctx, "/uploads/labels/a.jpg", StatusProcessing)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.MarkFailed(ctx, scan.ID, "text recognition failed"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	got, err := s.GetByID(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("Expected status FAILED, got %s", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "text recognition failed" {
		t.Errorf("Unexpected error message %v", got.ErrorMessage)
	}
	if got.HealthScore != nil || got.ExtractedData != nil {
		t.Error("Expected no results on a FAILED scan")
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	completed, err := s.Create(ctx, "/uploads/labels/a.jpg", StatusProcessing)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.MarkCompleted(ctx, completed.ID, "text", "", sampleExtracted(), sampleAnalysis()); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	failed, err := s.Create(ctx, "/uploads/labels/b.jpg", StatusProcessing)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.MarkFailed(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{name: "fail a completed scan", call: func() error { return s.MarkFailed(ctx, completed.ID, "late") }},
		{name: "complete a failed scan", call: func() error {
			return s.MarkCompleted(ctx, failed.ID, "text", "", sampleExtracted(), sampleAnalysis())
		}},
		{name: "reprocess a completed scan", call: func() error { return s.MarkProcessing(ctx, completed.ID) }},
		{name: "complete a completed scan", call: func() error {
			return s.MarkCompleted(ctx, completed.ID, "text", "", sampleExtracted(), sampleAnalysis())
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, ErrIllegalTransition) {
				t.Errorf("Expected ErrIllegalTransition, got %v", err)
			}
		})
	}
}

func TestPendingCannotComplete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scan, err := s.Create(ctx, "/uploads/labels/a.jpg", StatusPending)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = s.MarkCompleted(ctx, scan.ID, "text", "", sampleExtracted(), sampleAnalysis())
	if !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("Expected ErrIllegalTransition for PENDING -> COMPLETED, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
		ok       bool
	}{
		{input: "PENDING", expected: StatusPending, ok: true},
		{input: "processing", expected: StatusProcessing, ok: true},
		{input: " completed ", expected: StatusCompleted, ok: true},
		{input: "FAILED", expected: StatusFailed, ok: true},
		{input: "UNKNOWN", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			status, ok := ParseStatus(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseStatus(%q) ok = %v, expected %v", tt.input, ok, tt.ok)
			}
			if ok && status != tt.expected {
				t.Errorf("ParseStatus(%q) = %s, expected %s", tt.input, status, tt.expected)
			}
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Errorf("CanTransition(%s -> %s) = %v, expected %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}
