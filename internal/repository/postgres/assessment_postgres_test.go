package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"motorapi/internal/model"
	"motorapi/internal/repository"
)

var assessmentCols = []string{
	"id", "patient_id", "type", "status", "recorded_at",
	"video_path", "video_filename", "video_content_type", "video_size",
	"score", "duration_seconds", "rep_count", "reps_per_second",
	"mean_amplitude", "amplitude_decay", "peak_speed",
	"suggested_severity", "keypoints", "failure_reason", "created_at", "updated_at",
}

func pendingRow(id, patientID string, at time.Time) []driver.Value {
	return []driver.Value{
		id, patientID, "finger_tapping", "pending", at,
		"", "", "", int64(0),
		nil, nil, nil, nil, nil, nil, nil,
		"", nil, "", at, at,
	}
}

func TestAssessmentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAssessmentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	a := &model.Assessment{
		ID:         "test-uuid",
		PatientID:  "patient-uuid",
		Type:       model.TestFingerTapping,
		Status:     model.StatusPending,
		RecordedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	rows := sqlmock.NewRows(assessmentCols).AddRow(pendingRow(a.ID, a.PatientID, now)...)

	mock.ExpectQuery("INSERT INTO assessments").
		WithArgs(
			a.ID, a.PatientID, "finger_tapping", "pending", now,
			"", "", "", int64(0),
			nil, nil, nil, nil, nil, nil, nil,
			"", nil, "", now, now,
		).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, a)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, a.ID, result.ID)
	assert.Equal(t, model.StatusPending, result.Status)
	assert.Nil(t, result.Results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAssessmentPostgres(db)
	ctx := context.Background()

	t.Run("completed with results", func(t *testing.T) {
		now := time.Now().UTC()
		rows := sqlmock.NewRows(assessmentCols).AddRow(
			"test-id", "patient-uuid", "palm_open", "completed", now,
			"videos/test-id.webm", "rec.webm", "video/webm", int64(2048),
			82.5, 10.0, 21, 2.1, 0.84, 0.12, 3.4,
			"low", []byte(`{"frames":3}`), "", now, now,
		)

		mock.ExpectQuery("SELECT (.+) FROM assessments WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(rows)

		a, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, a)
		assert.Equal(t, model.StatusCompleted, a.Status)
		assert.NotNil(t, a.Results)
		assert.Equal(t, 82.5, a.Results.Score)
		assert.Equal(t, 21, a.Results.RepCount)
		assert.Equal(t, model.SeverityLow, a.Results.SuggestedSeverity)
		assert.JSONEq(t, `{"frames":3}`, string(a.Keypoints))
		assert.True(t, a.HasVideo())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM assessments WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		a, err := repo.FindByID(ctx, "missing")

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, a)
	})
}

func TestAssessmentPostgres_ListByPatient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAssessmentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM assessments WHERE patient_id = ").
		WithArgs("patient-uuid").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows(assessmentCols).AddRow(pendingRow("test-id", "patient-uuid", time.Now())...)

	mock.ExpectQuery("SELECT (.+) FROM assessments WHERE patient_id = (.+) ORDER BY").
		WithArgs("patient-uuid", 10, 0).
		WillReturnRows(rows)

	res, err := repo.ListByPatient(ctx, "patient-uuid", repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAssessmentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	a := &model.Assessment{
		ID:         "test-id",
		PatientID:  "patient-uuid",
		Type:       model.TestStandSit,
		Status:     model.StatusCompleted,
		RecordedAt: now,
		Keypoints:  []byte(`{"frames":3}`),
		Results: &model.AssessmentResults{
			Score:             64.2,
			DurationSeconds:   10,
			RepCount:          5,
			RepsPerSecond:     0.5,
			MeanAmplitude:     0.7,
			AmplitudeDecay:    0.2,
			PeakSpeed:         1.9,
			SuggestedSeverity: model.SeverityMedium,
		},
		UpdatedAt: now,
	}

	rows := sqlmock.NewRows(assessmentCols).AddRow(
		a.ID, a.PatientID, "stand_sit", "completed", now,
		"", "", "", int64(0),
		64.2, 10.0, 5, 0.5, 0.7, 0.2, 1.9,
		"medium", []byte(`{"frames":3}`), "", now, now,
	)

	mock.ExpectQuery("UPDATE assessments").
		WithArgs(
			a.ID, "stand_sit", "completed", now,
			"", "", "", int64(0),
			64.2, 10.0, int64(5), 0.5, 0.7, 0.2, 1.9,
			"medium", []byte(`{"frames":3}`), "", now,
		).
		WillReturnRows(rows)

	result, err := repo.Update(ctx, a)

	assert.NoError(t, err)
	assert.NotNil(t, result.Results)
	assert.Equal(t, 64.2, result.Results.Score)
	assert.Equal(t, model.SeverityMedium, result.Results.SuggestedSeverity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAssessmentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM assessments WHERE id = ?").
		WithArgs("test-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "test-id")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentPostgres_VideoPathsByPatient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAssessmentPostgres(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"video_path"}).
		AddRow("videos/a.webm").
		AddRow("videos/b.webm")

	mock.ExpectQuery("SELECT video_path FROM assessments WHERE patient_id = ").
		WithArgs("patient-uuid").
		WillReturnRows(rows)

	paths, err := repo.VideoPathsByPatient(ctx, "patient-uuid")

	assert.NoError(t, err)
	assert.Equal(t, []string{"videos/a.webm", "videos/b.webm"}, paths)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentPostgres_StatsByPatient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAssessmentPostgres(db)
	ctx := context.Background()

	t.Run("with sessions", func(t *testing.T) {
		mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM assessments").
			WithArgs("patient-uuid").
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
				AddRow("completed", 2).
				AddRow("failed", 1))

		mock.ExpectQuery("SELECT type, COUNT\\(\\*\\) FROM assessments").
			WithArgs("patient-uuid").
			WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).
				AddRow("finger_tapping", 3))

		mock.ExpectQuery("SELECT score FROM assessments").
			WithArgs("patient-uuid").
			WillReturnRows(sqlmock.NewRows([]string{"score"}).AddRow(82.5))

		mock.ExpectQuery("SELECT AVG\\(score\\) FROM assessments").
			WithArgs("patient-uuid").
			WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(75.25))

		stats, err := repo.StatsByPatient(ctx, "patient-uuid")

		assert.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.ByStatus[model.StatusCompleted])
		assert.Equal(t, 3, stats.ByType[model.TestFingerTapping])
		if assert.NotNil(t, stats.LatestScore) {
			assert.Equal(t, 82.5, *stats.LatestScore)
		}
		if assert.NotNil(t, stats.MeanScore) {
			assert.Equal(t, 75.25, *stats.MeanScore)
		}
	})

	t.Run("no sessions", func(t *testing.T) {
		mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM assessments").
			WithArgs("empty-uuid").
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

		mock.ExpectQuery("SELECT type, COUNT\\(\\*\\) FROM assessments").
			WithArgs("empty-uuid").
			WillReturnRows(sqlmock.NewRows([]string{"type", "count"}))

		mock.ExpectQuery("SELECT score FROM assessments").
			WithArgs("empty-uuid").
			WillReturnError(sql.ErrNoRows)

		mock.ExpectQuery("SELECT AVG\\(score\\) FROM assessments").
			WithArgs("empty-uuid").
			WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

		stats, err := repo.StatsByPatient(ctx, "empty-uuid")

		assert.NoError(t, err)
		assert.Equal(t, 0, stats.Total)
		assert.Nil(t, stats.LatestScore)
		assert.Nil(t, stats.MeanScore)
	})
}

func TestAssessmentPostgres_LatestByPatient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAssessmentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(assessmentCols).AddRow(
		"latest-id", "patient-uuid", "finger_tapping", "completed", now,
		"", "", "", int64(0),
		90.0, 10.0, 40, 4.0, 0.9, 0.05, 5.2,
		"low", nil, "", now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM assessments WHERE patient_id = (.+) AND status = 'completed'").
		WithArgs("patient-uuid").
		WillReturnRows(rows)

	a, err := repo.LatestByPatient(ctx, "patient-uuid")

	assert.NoError(t, err)
	assert.Equal(t, "latest-id", a.ID)
	assert.NotNil(t, a.Results)
	assert.Equal(t, 90.0, a.Results.Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
