package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"motorapi/internal/model"
	"motorapi/internal/repository"
)

const patientColumns = `id, record_number, name, age, height_cm, weight_kg, lab_results, doctors_notes, severity, created_at, updated_at`

// PatientPostgres is a PostgreSQL implementation of repository.PatientRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PatientPostgres struct {
	db *sql.DB
}

// NewPatientPostgres creates a new PatientPostgres repository.
func NewPatientPostgres(db *sql.DB) *PatientPostgres {
	return &PatientPostgres{db: db}
}

var _ repository.PatientRepository = (*PatientPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*model.Patient, error) {
	var (
		p       model.Patient
		labsRaw []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.RecordNumber,
		&p.Name,
		&p.Age,
		&p.HeightCM,
		&p.WeightKG,
		&labsRaw,
		&p.DoctorsNotes,
		&p.Severity,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(labsRaw) > 0 {
		if err := json.Unmarshal(labsRaw, &p.LabResults); err != nil {
			return nil, fmt.Errorf("decode lab_results: %w", err)
		}
	}
	return &p, nil
}

func marshalLabResults(labs map[string]any) ([]byte, error) {
	if labs == nil {
		return []byte(`{}`), nil
	}
	b, err := json.Marshal(labs)
	if err != nil {
		return nil, fmt.Errorf("encode lab_results: %w", err)
	}
	return b, nil
}

// patientWhere builds the WHERE clause and argument list for a filter.
// An empty filter yields an empty clause.
func patientWhere(f repository.PatientFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR record_number ILIKE $%d)", len(args), len(args)))
	}
	if f.Severity != "" {
		args = append(args, string(f.Severity))
		conds = append(conds, fmt.Sprintf("severity = $%d", len(args)))
	}
	if f.MinAge != nil {
		args = append(args, *f.MinAge)
		conds = append(conds, fmt.Sprintf("age >= $%d", len(args)))
	}
	if f.MaxAge != nil {
		args = append(args, *f.MaxAge)
		conds = append(conds, fmt.Sprintf("age <= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Create inserts a new patient row and returns the stored record.
func (r *PatientPostgres) Create(ctx context.Context, p *model.Patient) (*model.Patient, error) {
	const q = `
		INSERT INTO patients (id, record_number, name, age, height_cm, weight_kg, lab_results, doctors_notes, severity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + patientColumns
	labs, err := marshalLabResults(p.LabResults)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.RecordNumber,
		p.Name,
		p.Age,
		p.HeightCM,
		p.WeightKG,
		labs,
		p.DoctorsNotes,
		string(p.Severity),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return scanPatient(row)
}

// FindByID fetches a single patient by its ID.
func (r *PatientPostgres) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	const q = `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE id = $1
	`
	return scanPatient(r.db.QueryRowContext(ctx, q, id))
}

// List returns patients using LIMIT/OFFSET pagination and a total count.
func (r *PatientPostgres) List(ctx context.Context, f repository.PatientFilter, pq repository.PageQuery) (*repository.PageResult[model.Patient], error) {
	where, args := patientWhere(f)

	// Count total rows
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	q := `SELECT ` + patientColumns + ` FROM patients` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Patient]{
		Items: items,
		Total: total,
	}, nil
}

// ListAll returns every patient matching the filter, newest first.
func (r *PatientPostgres) ListAll(ctx context.Context, f repository.PatientFilter) ([]model.Patient, error) {
	where, args := patientWhere(f)
	q := `SELECT ` + patientColumns + ` FROM patients` + where + ` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites the mutable columns of a patient and returns the stored record.
func (r *PatientPostgres) Update(ctx context.Context, p *model.Patient) (*model.Patient, error) {
	const q = `
		UPDATE patients
		SET record_number = $2,
		    name = $3,
		    age = $4,
		    height_cm = $5,
		    weight_kg = $6,
		    lab_results = $7,
		    doctors_notes = $8,
		    severity = $9,
		    updated_at = $10
		WHERE id = $1
		RETURNING ` + patientColumns
	labs, err := marshalLabResults(p.LabResults)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.RecordNumber,
		p.Name,
		p.Age,
		p.HeightCM,
		p.WeightKG,
		labs,
		p.DoctorsNotes,
		string(p.Severity),
		p.UpdatedAt,
	)
	return scanPatient(row)
}

// Delete removes a patient by ID. It does not return an error if the row does not exist.
func (r *PatientPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM patients WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Existence is the caller's concern.
	_, _ = res.RowsAffected()
	return nil
}
