package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"motorapi/internal/model"
	"motorapi/internal/repository"
	"motorapi/internal/storage"
)

// PatientListResult is the service-level DTO for paginated patients.
type PatientListResult struct {
	Items []model.Patient `json:"data"`
	Total int             `json:"total"`
}

// PatientService defines the use cases for managing patient records.
type PatientService interface {
	// Create validates and stores a new patient. A missing severity defaults
	// to low and a missing record number is derived from the name.
	Create(ctx context.Context, p *model.Patient) (*model.Patient, error)

	// CreateBulk stores several patients at once. All records are validated
	// before the first insert.
	CreateBulk(ctx context.Context, in []model.Patient) ([]model.Patient, error)

	// Get returns a single patient by its ID.
	Get(ctx context.Context, id string) (*model.Patient, error)

	// List returns patients matching the filter using limit/offset and a total count.
	List(ctx context.Context, f repository.PatientFilter, limit, offset int) (*PatientListResult, error)

	// ListAll returns every patient matching the filter, for exports.
	ListAll(ctx context.Context, f repository.PatientFilter) ([]model.Patient, error)

	// Update applies a partial update to an existing patient and revalidates it.
	Update(ctx context.Context, id string, patch model.PatientPatch) (*model.Patient, error)

	// Delete removes a patient, their sessions and their stored recordings.
	Delete(ctx context.Context, id string) error

	// Summary returns the patient together with aggregated session stats and
	// the latest completed session.
	Summary(ctx context.Context, id string) (*model.PatientSummary, error)
}

// patientService is a concrete implementation of PatientService.
type patientService struct {
	store       storage.Storage
	patients    repository.PatientRepository
	assessments repository.AssessmentRepository
}

// NewPatientService constructs a new PatientService.
func NewPatientService(store storage.Storage, patients repository.PatientRepository, assessments repository.AssessmentRepository) PatientService {
	return &patientService{store: store, patients: patients, assessments: assessments}
}

// prepare fills generated fields and validates the record in place.
func (s *patientService) prepare(p *model.Patient, now time.Time) error {
	if p.Severity == "" {
		p.Severity = model.SeverityLow
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p.ID = uuid.New().String()
	if p.RecordNumber == "" {
		p.RecordNumber = model.NewRecordNumber(p.Name, now)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *patientService) Create(ctx context.Context, p *model.Patient) (*model.Patient, error) {
	if err := s.prepare(p, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.patients.Create(ctx, p)
}

func (s *patientService) CreateBulk(ctx context.Context, in []model.Patient) ([]model.Patient, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: no patients in request", ErrInvalidInput)
	}
	now := time.Now().UTC()
	seen := make(map[string]bool, len(in))
	for i := range in {
		if err := s.prepare(&in[i], now); err != nil {
			return nil, fmt.Errorf("patient %d: %w", i, err)
		}
		if seen[in[i].RecordNumber] {
			// Same-second intakes with identical name prefixes derive the
			// same record number; disambiguate with the batch index.
			in[i].RecordNumber = fmt.Sprintf("%s%d", in[i].RecordNumber, i)
		}
		seen[in[i].RecordNumber] = true
	}

	out := make([]model.Patient, 0, len(in))
	for i := range in {
		stored, err := s.patients.Create(ctx, &in[i])
		if err != nil {
			return nil, fmt.Errorf("patient %d: %w", i, err)
		}
		out = append(out, *stored)
	}
	return out, nil
}

// Get returns a patient by ID.
func (s *patientService) Get(ctx context.Context, id string) (*model.Patient, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.patients.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns paginated patients without exposing repository types.
func (s *patientService) List(ctx context.Context, f repository.PatientFilter, limit, offset int) (*PatientListResult, error) {
	limit, offset = ClampPage(limit, offset)

	res, err := s.patients.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &PatientListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *patientService) ListAll(ctx context.Context, f repository.PatientFilter) ([]model.Patient, error) {
	return s.patients.ListAll(ctx, f)
}

// Update loads the record, applies the patch and revalidates before storing.
func (s *patientService) Update(ctx context.Context, id string, patch model.PatientPatch) (*model.Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Apply(patch)
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p.UpdatedAt = time.Now().UTC()
	return s.patients.Update(ctx, p)
}

// Delete removes the stored recordings of every session, then the patient row.
// Session rows cascade in the database.
func (s *patientService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	paths, err := s.assessments.VideoPathsByPatient(ctx, id)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := s.store.Delete(ctx, path); err != nil {
			return fmt.Errorf("delete recording %s: %w", path, err)
		}
	}
	return s.patients.Delete(ctx, id)
}

// Summary composes the dashboard payload for one patient.
func (s *patientService) Summary(ctx context.Context, id string) (*model.PatientSummary, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.assessments.StatsByPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &model.PatientSummary{Patient: *p, Stats: *stats}

	latest, err := s.assessments.LatestByPatient(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	out.Latest = latest
	return out, nil
}
