package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"motorapi/internal/model"
	"motorapi/internal/repository"
)

type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) Create(ctx context.Context, a *model.Assessment) (*model.Assessment, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

func (m *MockAssessmentRepository) FindByID(ctx context.Context, id string) (*model.Assessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

func (m *MockAssessmentRepository) ListByPatient(ctx context.Context, patientID string, pq repository.PageQuery) (*repository.PageResult[model.Assessment], error) {
	args := m.Called(ctx, patientID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Assessment]), args.Error(1)
}

func (m *MockAssessmentRepository) Update(ctx context.Context, a *model.Assessment) (*model.Assessment, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

func (m *MockAssessmentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAssessmentRepository) VideoPathsByPatient(ctx context.Context, patientID string) ([]string, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAssessmentRepository) StatsByPatient(ctx context.Context, patientID string) (*model.AssessmentStats, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AssessmentStats), args.Error(1)
}

func (m *MockAssessmentRepository) LatestByPatient(ctx context.Context, patientID string) (*model.Assessment, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}
