package mocks

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/stretchr/testify/mock"
	"motorapi/internal/model"
	"motorapi/internal/service"
)

type MockAssessmentService struct {
	mock.Mock
}

func (m *MockAssessmentService) Create(ctx context.Context, patientID, testType string, recordedAt time.Time, keypoints json.RawMessage) (*model.Assessment, error) {
	args := m.Called(ctx, patientID, testType, recordedAt, keypoints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

func (m *MockAssessmentService) Get(ctx context.Context, patientID, id string) (*model.Assessment, error) {
	args := m.Called(ctx, patientID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

func (m *MockAssessmentService) ListByPatient(ctx context.Context, patientID string, limit, offset int) (*service.AssessmentListResult, error) {
	args := m.Called(ctx, patientID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AssessmentListResult), args.Error(1)
}

func (m *MockAssessmentService) Delete(ctx context.Context, patientID, id string) error {
	args := m.Called(ctx, patientID, id)
	return args.Error(0)
}

func (m *MockAssessmentService) UploadVideo(ctx context.Context, patientID, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Assessment, error) {
	args := m.Called(ctx, patientID, id, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

func (m *MockAssessmentService) VideoURL(ctx context.Context, patientID, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, patientID, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockAssessmentService) Reanalyze(ctx context.Context, patientID, id string) (*model.Assessment, error) {
	args := m.Called(ctx, patientID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

func (m *MockAssessmentService) Compare(ctx context.Context, patientID, id, otherID string) (*model.TestComparison, error) {
	args := m.Called(ctx, patientID, id, otherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TestComparison), args.Error(1)
}
