package repository

import (
	"context"

	"motorapi/internal/model"
)

// AssessmentRepository defines data access for motor-test sessions using SQL queries only.
// No business logic here, strictly persistence operations.
type AssessmentRepository interface {
	// Create inserts a new assessment record.
	Create(ctx context.Context, a *model.Assessment) (*model.Assessment, error)

	// FindByID returns an assessment by its ID.
	FindByID(ctx context.Context, id string) (*model.Assessment, error)

	// ListByPatient returns a paginated list of a patient's assessments and total rows count.
	ListByPatient(ctx context.Context, patientID string, pq PageQuery) (*PageResult[model.Assessment], error)

	// Update rewrites the mutable columns of an existing assessment.
	Update(ctx context.Context, a *model.Assessment) (*model.Assessment, error)

	// Delete removes an assessment by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// VideoPathsByPatient returns the storage path of every video uploaded
	// for the patient, for cleanup when the patient is removed.
	VideoPathsByPatient(ctx context.Context, patientID string) ([]string, error)

	// StatsByPatient aggregates session counts and scores for a patient.
	StatsByPatient(ctx context.Context, patientID string) (*model.AssessmentStats, error)

	// LatestByPatient returns the most recently recorded completed assessment of a patient.
	LatestByPatient(ctx context.Context, patientID string) (*model.Assessment, error)
}
