package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/domain"
)

const assessmentColumns = "id, analyzer, input_digest, outcome_level, result, correlation_id, created_at"

// AssessmentRepository stores analyzer invocations in PostgreSQL.
type AssessmentRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *pgxpool.Pool, logger *logrus.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: logger,
	}
}

// Record inserts one assessment. Zero ID and CreatedAt are filled in.
func (r *AssessmentRepository) Record(ctx context.Context, record *domain.AssessmentRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := `
		INSERT INTO assessments (
			id, analyzer, input_digest, outcome_level, result, correlation_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		record.ID,
		string(record.Analyzer),
		record.InputDigest,
		record.OutcomeLevel,
		[]byte(record.Result),
		record.CorrelationID,
		record.CreatedAt,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"assessment_id": record.ID,
			"analyzer":      record.Analyzer,
			"error":         err,
		}).Error("Failed to record assessment")
		return fmt.Errorf("recording assessment: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"assessment_id": record.ID,
		"analyzer":      record.Analyzer,
		"outcome_level": record.OutcomeLevel,
	}).Debug("Assessment recorded")

	return nil
}

// GetByID retrieves one assessment.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AssessmentRecord, error) {
	query := "SELECT " + assessmentColumns + " FROM assessments WHERE id = $1"

	record, err := scanAssessment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("assessment not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"assessment_id": id,
			"error":         err,
		}).Error("Failed to get assessment by ID")
		return nil, fmt.Errorf("getting assessment by ID: %w", err)
	}

	return record, nil
}

// ListByDigest returns the most recent assessments of one input, newest first.
func (r *AssessmentRepository) ListByDigest(ctx context.Context, analyzer domain.AnalyzerKind, digest string, limit int) ([]*domain.AssessmentRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := "SELECT " + assessmentColumns + ` FROM assessments
		WHERE analyzer = $1 AND input_digest = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, string(analyzer), digest, limit)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	records := []*domain.AssessmentRecord{}
	for rows.Next() {
		record, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessments: %w", err)
	}

	return records, nil
}

// CountByAnalyzer returns the number of stored assessments per analyzer.
func (r *AssessmentRepository) CountByAnalyzer(ctx context.Context) (map[domain.AnalyzerKind]int64, error) {
	rows, err := r.db.Query(ctx, "SELECT analyzer, COUNT(*) FROM assessments GROUP BY analyzer")
	if err != nil {
		return nil, fmt.Errorf("counting assessments: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.AnalyzerKind]int64)
	for rows.Next() {
		var analyzer string
		var n int64
		if err := rows.Scan(&analyzer, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[domain.AnalyzerKind(analyzer)] = n
	}
	return counts, rows.Err()
}

func scanAssessment(row pgx.Row) (*domain.AssessmentRecord, error) {
	var record domain.AssessmentRecord
	var analyzer string
	var result []byte

	err := row.Scan(
		&record.ID,
		&analyzer,
		&record.InputDigest,
		&record.OutcomeLevel,
		&result,
		&record.CorrelationID,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Analyzer = domain.AnalyzerKind(analyzer)
	record.Result = result
	return &record, nil
}
