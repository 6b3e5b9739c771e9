// Package store persists LabelScan records in SQLite and enforces the
// scan state machine: PENDING → PROCESSING → {COMPLETED, FAILED}, with
// terminal states immutable.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"go-label-scan/pkg/models"
)

// ErrIllegalTransition is returned when an update would move a scan
// backwards or out of a terminal state.
var ErrIllegalTransition = errors.New("illegal scan status transition")

const schema = `
CREATE TABLE IF NOT EXISTS label_scans (
    id              TEXT PRIMARY KEY,
    image_url       TEXT NOT NULL,
    status          TEXT NOT NULL,
    ocr_text        TEXT,
    extracted_data  TEXT,
    product_name    TEXT,
    health_score    INTEGER,
    analysis_result TEXT,
    error_message   TEXT,
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_label_scans_status ON label_scans(status);
`

// Store manages scan persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the scan database and applies the
// schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts a new scan record. Only PENDING (pre-registered) and
// PROCESSING (ingestion flow) are valid initial states.
func (s *Store) Create(ctx context.Context, imageURL string, status Status) (*LabelScan, error) {
	if status != StatusPending && status != StatusProcessing {
		return nil, fmt.Errorf("invalid initial status %q", status)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO label_scans (id, image_url, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		id,
		imageURL,
		status,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}

	return s.GetByID(ctx, id)
}

const scanColumns = `id, image_url, status, ocr_text, extracted_data,
    product_name, health_score, analysis_result, error_message,
    created_at, updated_at`

// GetByID fetches a scan by identifier. A missing scan returns
// (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*LabelScan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM label_scans WHERE id = ?`, id)
	scan, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}
	return scan, nil
}

// MarkProcessing promotes a pre-registered PENDING scan. Scans already
// in PROCESSING are left untouched.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	scan, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if scan == nil {
		return fmt.Errorf("scan %s not found", id)
	}
	if scan.Status == StatusProcessing {
		return nil
	}
	return s.transition(ctx, scan, StatusProcessing, func(next *LabelScan) {})
}

// MarkCompleted records the terminal success state together with all
// pipeline outputs. The fields land in one write so a COMPLETED scan
// always carries extractedData and healthScore together.
func (s *Store) MarkCompleted(ctx context.Context, id, ocrText, productName string, extracted models.ExtractedData, analysis models.AnalysisResult) error {
	scan, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if scan == nil {
		return fmt.Errorf("scan %s not found", id)
	}
	return s.transition(ctx, scan, StatusCompleted, func(next *LabelScan) {
		next.OCRText = &ocrText
		next.ExtractedData = &extracted
		if productName != "" {
			next.ProductName = &productName
		}
		score := analysis.OverallScore
		next.HealthScore = &score
		next.AnalysisResult = &analysis
	})
}

// MarkFailed records the terminal failure state and its reason.
func (s *Store) MarkFailed(ctx context.Context, id, errorMessage string) error {
	scan, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if scan == nil {
		return fmt.Errorf("scan %s not found", id)
	}
	return s.transition(ctx, scan, StatusFailed, func(next *LabelScan) {
		next.ErrorMessage = &errorMessage
	})
}

// transition validates the state change, applies mutate, and replaces
// the whole record. The status guard in the WHERE clause keeps a stale
// reader from clobbering a record another writer already advanced.
func (s *Store) transition(ctx context.Context, scan *LabelScan, next Status, mutate func(*LabelScan)) error {
	if !scan.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s (scan %s)", ErrIllegalTransition, scan.Status, next, scan.ID)
	}

	updated := *scan
	updated.Status = next
	updated.UpdatedAt = time.Now().UTC()
	mutate(&updated)

	extractedJSON, err := marshalNullable(updated.ExtractedData)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}
	analysisJSON, err := marshalNullable(updated.AnalysisResult)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE label_scans SET
            status = ?, ocr_text = ?, extracted_data = ?, product_name = ?,
            health_score = ?, analysis_result = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		updated.Status,
		nullableString(updated.OCRText),
		extractedJSON,
		nullableString(updated.ProductName),
		nullableInt(updated.HealthScore),
		analysisJSON,
		nullableString(updated.ErrorMessage),
		updated.UpdatedAt.Format(time.RFC3339Nano),
		updated.ID,
		scan.Status,
	)
	if err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: scan %s no longer in %s", ErrIllegalTransition, scan.ID, scan.Status)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*LabelScan, error) {
	var (
		scan          LabelScan
		status        string
		ocrText       sql.NullString
		extractedJSON sql.NullString
		productName   sql.NullString
		healthScore   sql.NullInt64
		analysisJSON  sql.NullString
		errorMessage  sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := row.Scan(
		&scan.ID,
		&scan.ImageURL,
		&status,
		&ocrText,
		&extractedJSON,
		&productName,
		&healthScore,
		&analysisJSON,
		&errorMessage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	scan.Status = parsed

	if ocrText.Valid {
		scan.OCRText = &ocrText.String
	}
	if productName.Valid {
		scan.ProductName = &productName.String
	}
	if healthScore.Valid {
		score := int(healthScore.Int64)
		scan.HealthScore = &score
	}
	if errorMessage.Valid {
		scan.ErrorMessage = &errorMessage.String
	}
	if extractedJSON.Valid {
		var extracted models.ExtractedData
		if err := json.Unmarshal([]byte(extractedJSON.String), &extracted); err != nil {
			return nil, fmt.Errorf("unmarshal extracted data: %w", err)
		}
		scan.ExtractedData = &extracted
	}
	if analysisJSON.Valid {
		var analysis models.AnalysisResult
		if err := json.Unmarshal([]byte(analysisJSON.String), &analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis result: %w", err)
		}
		scan.AnalysisResult = &analysis
	}

	scan.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	scan.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &scan, nil
}

func marshalNullable[T any](value *T) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
