package repository

import (
	"context"

	"motorapi/internal/model"
)

// PatientRepository defines data access for patient records using SQL queries only.
// No business logic here, strictly persistence operations.
type PatientRepository interface {
	// Create inserts a new patient record.
	// The caller should provide required fields (e.g., ID, CreatedAt) according to the database schema defaults.
	// Returns the stored patient (may include values set by the DB).
	Create(ctx context.Context, p *model.Patient) (*model.Patient, error)

	// FindByID returns a patient by its ID.
	FindByID(ctx context.Context, id string) (*model.Patient, error)

	// List returns a paginated list of patients and total rows count for the given filter.
	List(ctx context.Context, f PatientFilter, pq PageQuery) (*PageResult[model.Patient], error)

	// ListAll returns every patient matching the filter without pagination, for exports.
	ListAll(ctx context.Context, f PatientFilter) ([]model.Patient, error)

	// Update rewrites the mutable columns of an existing patient.
	Update(ctx context.Context, p *model.Patient) (*model.Patient, error)

	// Delete removes a patient by ID. It returns nil if the row was deleted or did not exist.
	// Assessment rows cascade at the database level.
	Delete(ctx context.Context, id string) error
}
