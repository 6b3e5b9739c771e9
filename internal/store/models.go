package store

import (
	"strings"
	"time"

	"go-label-scan/pkg/models"
)

// Status represents the lifecycle of a label scan.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Transitions are monotonic: forward only, one terminal state per scan.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether no further transition may occur.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LabelScan is the durable record of one end-to-end scan attempt.
// Result fields stay nil until the pipeline reaches the matching step;
// ExtractedData and HealthScore are populated together on completion.
type LabelScan struct {
	ID             string                 `json:"id"`
	ImageURL       string                 `json:"imageUrl"`
	Status         Status                 `json:"status"`
	OCRText        *string                `json:"ocrText"`
	ExtractedData  *models.ExtractedData  `json:"extractedData"`
	ProductName    *string                `json:"productName"`
	HealthScore    *int                   `json:"healthScore"`
	AnalysisResult *models.AnalysisResult `json:"analysisResult"`
	ErrorMessage   *string                `json:"errorMessage"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// IsProcessing returns true while the background pipeline owns the scan.
func (s LabelScan) IsProcessing() bool {
	return s.Status == StatusProcessing
}
