package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"motorapi/internal/model"
	"motorapi/internal/repository"
)

const assessmentColumns = `id, patient_id, type, status, recorded_at, video_path, video_filename, video_content_type, video_size, score, duration_seconds, rep_count, reps_per_second, mean_amplitude, amplitude_decay, peak_speed, suggested_severity, keypoints, failure_reason, created_at, updated_at`

// AssessmentPostgres is a PostgreSQL implementation of repository.AssessmentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type AssessmentPostgres struct {
	db *sql.DB
}

// NewAssessmentPostgres creates a new AssessmentPostgres repository.
func NewAssessmentPostgres(db *sql.DB) *AssessmentPostgres {
	return &AssessmentPostgres{db: db}
}

var _ repository.AssessmentRepository = (*AssessmentPostgres)(nil)

// resultColumns mirrors the nullable analysis columns. All of them are NULL
// until an analysis completes.
type resultColumns struct {
	score      sql.NullFloat64
	duration   sql.NullFloat64
	repCount   sql.NullInt64
	repsPerSec sql.NullFloat64
	meanAmp    sql.NullFloat64
	ampDecay   sql.NullFloat64
	peakSpeed  sql.NullFloat64
	suggested  string
}

func toResultColumns(res *model.AssessmentResults) resultColumns {
	var c resultColumns
	if res == nil {
		return c
	}
	c.score = sql.NullFloat64{Float64: res.Score, Valid: true}
	c.duration = sql.NullFloat64{Float64: res.DurationSeconds, Valid: true}
	c.repCount = sql.NullInt64{Int64: int64(res.RepCount), Valid: true}
	c.repsPerSec = sql.NullFloat64{Float64: res.RepsPerSecond, Valid: true}
	c.meanAmp = sql.NullFloat64{Float64: res.MeanAmplitude, Valid: true}
	c.ampDecay = sql.NullFloat64{Float64: res.AmplitudeDecay, Valid: true}
	c.peakSpeed = sql.NullFloat64{Float64: res.PeakSpeed, Valid: true}
	c.suggested = string(res.SuggestedSeverity)
	return c
}

func keypointsArg(k json.RawMessage) any {
	if len(k) == 0 {
		return nil
	}
	return []byte(k)
}

func scanAssessment(row rowScanner) (*model.Assessment, error) {
	var (
		a         model.Assessment
		c         resultColumns
		keypoints []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.Type,
		&a.Status,
		&a.RecordedAt,
		&a.VideoPath,
		&a.VideoFilename,
		&a.VideoContentType,
		&a.VideoSize,
		&c.score,
		&c.duration,
		&c.repCount,
		&c.repsPerSec,
		&c.meanAmp,
		&c.ampDecay,
		&c.peakSpeed,
		&c.suggested,
		&keypoints,
		&a.FailureReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Keypoints = keypoints
	if c.score.Valid {
		a.Results = &model.AssessmentResults{
			Score:             c.score.Float64,
			DurationSeconds:   c.duration.Float64,
			RepCount:          int(c.repCount.Int64),
			RepsPerSecond:     c.repsPerSec.Float64,
			MeanAmplitude:     c.meanAmp.Float64,
			AmplitudeDecay:    c.ampDecay.Float64,
			PeakSpeed:         c.peakSpeed.Float64,
			SuggestedSeverity: model.Severity(c.suggested),
		}
	}
	return &a, nil
}

// Create inserts a new assessment row and returns the stored record.
func (r *AssessmentPostgres) Create(ctx context.Context, a *model.Assessment) (*model.Assessment, error) {
	const q = `
		INSERT INTO assessments (id, patient_id, type, status, recorded_at, video_path, video_filename, video_content_type, video_size, score, duration_seconds, rep_count, reps_per_second, mean_amplitude, amplitude_decay, peak_speed, suggested_severity, keypoints, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING ` + assessmentColumns
	c := toResultColumns(a.Results)
	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		a.PatientID,
		string(a.Type),
		string(a.Status),
		a.RecordedAt,
		a.VideoPath,
		a.VideoFilename,
		a.VideoContentType,
		a.VideoSize,
		c.score,
		c.duration,
		c.repCount,
		c.repsPerSec,
		c.meanAmp,
		c.ampDecay,
		c.peakSpeed,
		c.suggested,
		keypointsArg(a.Keypoints),
		a.FailureReason,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return scanAssessment(row)
}

// FindByID fetches a single assessment by its ID.
func (r *AssessmentPostgres) FindByID(ctx context.Context, id string) (*model.Assessment, error) {
	const q = `
		SELECT ` + assessmentColumns + `
		FROM assessments
		WHERE id = $1
	`
	return scanAssessment(r.db.QueryRowContext(ctx, q, id))
}

// ListByPatient returns a patient's assessments using LIMIT/OFFSET pagination and a total count.
func (r *AssessmentPostgres) ListByPatient(ctx context.Context, patientID string, pq repository.PageQuery) (*repository.PageResult[model.Assessment], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM assessments WHERE patient_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, patientID).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT ` + assessmentColumns + `
		FROM assessments
		WHERE patient_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, patientID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Assessment, 0)
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Assessment]{
		Items: items,
		Total: total,
	}, nil
}

// Update rewrites the mutable columns of an assessment and returns the stored record.
func (r *AssessmentPostgres) Update(ctx context.Context, a *model.Assessment) (*model.Assessment, error) {
	const q = `
		UPDATE assessments
		SET type = $2,
		    status = $3,
		    recorded_at = $4,
		    video_path = $5,
		    video_filename = $6,
		    video_content_type = $7,
		    video_size = $8,
		    score = $9,
		    duration_seconds = $10,
		    rep_count = $11,
		    reps_per_second = $12,
		    mean_amplitude = $13,
		    amplitude_decay = $14,
		    peak_speed = $15,
		    suggested_severity = $16,
		    keypoints = $17,
		    failure_reason = $18,
		    updated_at = $19
		WHERE id = $1
		RETURNING ` + assessmentColumns
	c := toResultColumns(a.Results)
	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		string(a.Type),
		string(a.Status),
		a.RecordedAt,
		a.VideoPath,
		a.VideoFilename,
		a.VideoContentType,
		a.VideoSize,
		c.score,
		c.duration,
		c.repCount,
		c.repsPerSec,
		c.meanAmp,
		c.ampDecay,
		c.peakSpeed,
		c.suggested,
		keypointsArg(a.Keypoints),
		a.FailureReason,
		a.UpdatedAt,
	)
	return scanAssessment(row)
}

// Delete removes an assessment by ID. It does not return an error if the row does not exist.
func (r *AssessmentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM assessments WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Existence is the caller's concern.
	_, _ = res.RowsAffected()
	return nil
}

// VideoPathsByPatient returns the storage paths of every uploaded video for the patient.
func (r *AssessmentPostgres) VideoPathsByPatient(ctx context.Context, patientID string) ([]string, error) {
	const q = `SELECT video_path FROM assessments WHERE patient_id = $1 AND video_path <> ''`
	rows, err := r.db.QueryContext(ctx, q, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *AssessmentPostgres) groupCount(ctx context.Context, q, patientID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, q, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatsByPatient aggregates session counts and scores for a patient.
func (r *AssessmentPostgres) StatsByPatient(ctx context.Context, patientID string) (*model.AssessmentStats, error) {
	stats := &model.AssessmentStats{
		ByStatus: make(map[model.AssessmentStatus]int),
		ByType:   make(map[model.AssessmentType]int),
	}

	const qStatus = `SELECT status, COUNT(*) FROM assessments WHERE patient_id = $1 GROUP BY status`
	byStatus, err := r.groupCount(ctx, qStatus, patientID)
	if err != nil {
		return nil, err
	}
	for k, n := range byStatus {
		stats.ByStatus[model.AssessmentStatus(k)] = n
		stats.Total += n
	}

	const qType = `SELECT type, COUNT(*) FROM assessments WHERE patient_id = $1 GROUP BY type`
	byType, err := r.groupCount(ctx, qType, patientID)
	if err != nil {
		return nil, err
	}
	for k, n := range byType {
		stats.ByType[model.AssessmentType(k)] = n
	}

	const qLatest = `
		SELECT score FROM assessments
		WHERE patient_id = $1 AND status = 'completed' AND score IS NOT NULL
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`
	var latest sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, qLatest, patientID).Scan(&latest); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if latest.Valid {
		stats.LatestScore = &latest.Float64
	}

	const qMean = `SELECT AVG(score) FROM assessments WHERE patient_id = $1 AND score IS NOT NULL`
	var mean sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, qMean, patientID).Scan(&mean); err != nil {
		return nil, err
	}
	if mean.Valid {
		stats.MeanScore = &mean.Float64
	}

	return stats, nil
}

// LatestByPatient returns the most recently recorded completed assessment of a patient.
func (r *AssessmentPostgres) LatestByPatient(ctx context.Context, patientID string) (*model.Assessment, error) {
	const q = `
		SELECT ` + assessmentColumns + `
		FROM assessments
		WHERE patient_id = $1 AND status = 'completed'
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`
	return scanAssessment(r.db.QueryRowContext(ctx, q, patientID))
}
