package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"motorapi/internal/analysis"
	"motorapi/internal/analyzer"
	"motorapi/internal/model"
	"motorapi/internal/repository"
	"motorapi/internal/storage"
)

// Score thresholds for the suggested severity shown to the clinician.
const (
	severityLowMin    = 70.0
	severityMediumMin = 40.0
)

// allowedVideoTypes maps accepted upload content types to their canonical
// file extension.
var allowedVideoTypes = map[string]string{
	"video/webm":      ".webm",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/x-msvideo": ".avi",
}

// AssessmentListResult is the service-level DTO for paginated sessions.
type AssessmentListResult struct {
	Items []model.Assessment `json:"data"`
	Total int                `json:"total"`
}

// AssessmentService defines the use cases for motor-test sessions.
// Operations taking a patientID treat the session as that patient's
// sub-resource; a blank patientID skips the ownership check.
type AssessmentService interface {
	// Create records a new session for a patient. When keypoints are supplied
	// inline they are validated and analyzed synchronously, so the returned
	// session is already completed.
	Create(ctx context.Context, patientID, testType string, recordedAt time.Time, keypoints json.RawMessage) (*model.Assessment, error)

	// Get returns a single session by its ID.
	Get(ctx context.Context, patientID, id string) (*model.Assessment, error)

	// ListByPatient returns a patient's sessions using limit/offset and a total count.
	ListByPatient(ctx context.Context, patientID string, limit, offset int) (*AssessmentListResult, error)

	// Delete removes a session and its stored recording.
	Delete(ctx context.Context, patientID, id string) error

	// UploadVideo stores a recording for the session, then runs keypoint
	// extraction and analysis when an extractor is configured. Extraction or
	// analysis failures mark the session failed but keep the upload.
	UploadVideo(ctx context.Context, patientID, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Assessment, error)

	// VideoURL returns a presigned download link for the session recording.
	VideoURL(ctx context.Context, patientID, id string, expiry time.Duration) (string, error)

	// Reanalyze reruns the analysis from stored keypoints, or from the stored
	// recording when keypoints are missing and an extractor is configured.
	Reanalyze(ctx context.Context, patientID, id string) (*model.Assessment, error)

	// Compare reports the DTW similarity between two completed sessions of
	// the same patient.
	Compare(ctx context.Context, patientID, id, otherID string) (*model.TestComparison, error)
}

// assessmentService is a concrete implementation of AssessmentService.
type assessmentService struct {
	store       storage.Storage
	patients    repository.PatientRepository
	assessments repository.AssessmentRepository
	extractor   *analyzer.Client
}

// NewAssessmentService constructs a new AssessmentService.
func NewAssessmentService(store storage.Storage, patients repository.PatientRepository, assessments repository.AssessmentRepository, extractor *analyzer.Client) AssessmentService {
	return &assessmentService{store: store, patients: patients, assessments: assessments, extractor: extractor}
}

func suggestSeverity(score float64) model.Severity {
	switch {
	case score >= severityLowMin:
		return model.SeverityLow
	case score >= severityMediumMin:
		return model.SeverityMedium
	default:
		return model.SeverityHigh
	}
}

func resultsFrom(sum analysis.Summary) *model.AssessmentResults {
	return &model.AssessmentResults{
		Score:             sum.Score,
		DurationSeconds:   sum.DurationSeconds,
		RepCount:          sum.RepCount,
		RepsPerSecond:     sum.RepsPerSecond,
		MeanAmplitude:     sum.MeanAmplitude,
		AmplitudeDecay:    sum.AmplitudeDecay,
		PeakSpeed:         sum.PeakSpeed,
		SuggestedSeverity: suggestSeverity(sum.Score),
	}
}

// applyAnalysis runs the metric pipeline on the stored keypoints and writes
// the outcome onto the session: completed with results, or failed with the
// reason.
func applyAnalysis(a *model.Assessment) {
	m, err := analysis.ParseMotion(a.Keypoints)
	var sum analysis.Summary
	if err == nil {
		sum, err = analysis.Analyze(m, analysis.Kind(a.Type))
	}
	if err != nil {
		a.Status = model.StatusFailed
		a.FailureReason = err.Error()
		a.Results = nil
		return
	}
	a.Status = model.StatusCompleted
	a.FailureReason = ""
	a.Results = resultsFrom(sum)
}

func (s *assessmentService) requirePatient(ctx context.Context, patientID string) error {
	if patientID == "" {
		return ErrIDRequired
	}
	if _, err := s.patients.FindByID(ctx, patientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPatientNotFound
		}
		return err
	}
	return nil
}

// find loads a session and, when patientID is non-empty, enforces ownership.
func (s *assessmentService) find(ctx context.Context, patientID, id string) (*model.Assessment, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	a, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	if patientID != "" && a.PatientID != patientID {
		return nil, ErrAssessmentNotFound
	}
	return a, nil
}

func (s *assessmentService) Create(ctx context.Context, patientID, testType string, recordedAt time.Time, keypoints json.RawMessage) (*model.Assessment, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	typ, err := model.ParseAssessmentType(testType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	if recordedAt.IsZero() {
		recordedAt = now
	}
	a := &model.Assessment{
		ID:         uuid.New().String(),
		PatientID:  patientID,
		Type:       typ,
		Status:     model.StatusPending,
		RecordedAt: recordedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if len(keypoints) > 0 {
		if err := analysis.ValidateMotion(keypoints); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		a.Keypoints = keypoints
		applyAnalysis(a)
		if a.Status == model.StatusFailed {
			// Inline keypoints that cannot be analyzed are a client error,
			// not a session outcome.
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, a.FailureReason)
		}
	}

	return s.assessments.Create(ctx, a)
}

func (s *assessmentService) Get(ctx context.Context, patientID, id string) (*model.Assessment, error) {
	return s.find(ctx, patientID, id)
}

func (s *assessmentService) ListByPatient(ctx context.Context, patientID string, limit, offset int) (*AssessmentListResult, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	limit, offset = ClampPage(limit, offset)

	res, err := s.assessments.ListByPatient(ctx, patientID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &AssessmentListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes the stored recording first, then the session row.
func (s *assessmentService) Delete(ctx context.Context, patientID, id string) error {
	a, err := s.find(ctx, patientID, id)
	if err != nil {
		return err
	}
	if a.HasVideo() {
		if err := s.store.Delete(ctx, a.VideoPath); err != nil {
			return fmt.Errorf("delete recording: %w", err)
		}
	}
	return s.assessments.Delete(ctx, id)
}

// videoExtension resolves the stored extension, preferring the declared
// content type over the client-supplied filename.
func videoExtension(originalFilename, contentType string) (string, error) {
	if contentType != "" {
		ext, ok := allowedVideoTypes[contentType]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
		}
		return ext, nil
	}
	ext := strings.ToLower(filepath.Ext(originalFilename))
	for _, allowed := range allowedVideoTypes {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, originalFilename)
}

func (s *assessmentService) UploadVideo(ctx context.Context, patientID, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Assessment, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	a, err := s.find(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	ext, err := videoExtension(originalFilename, contentType)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		for ct, e := range allowedVideoTypes {
			if e == ext {
				contentType = ct
			}
		}
	}

	genName := uuid.New().String() + ext
	key := filepath.ToSlash(filepath.Join("videos", genName))

	// Upload to object storage
	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
			"session-id":        a.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	runExtraction := s.extractor != nil && s.extractor.Enabled()

	previous := a.VideoPath
	a.VideoPath = objInfo.Key
	a.VideoFilename = genName
	a.VideoContentType = objInfo.ContentType
	a.VideoSize = objInfo.Size
	if runExtraction {
		a.Status = model.StatusProcessing
	} else if a.Status != model.StatusCompleted {
		a.Status = model.StatusPending
	}
	a.UpdatedAt = time.Now().UTC()

	stored, err := s.assessments.Update(ctx, a)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	// A replaced recording is no longer referenced.
	if previous != "" && previous != key {
		_ = s.store.Delete(ctx, previous)
	}

	if !runExtraction {
		return stored, nil
	}
	return s.analyzeRecording(ctx, stored)
}

// analyzeRecording streams the stored recording through the keypoint
// extractor and analyzes the result. Pipeline errors mark the session failed;
// the recording stays stored either way.
func (s *assessmentService) analyzeRecording(ctx context.Context, a *model.Assessment) (*model.Assessment, error) {
	keypoints, err := s.extractKeypoints(ctx, a)
	if err != nil {
		a.Status = model.StatusFailed
		a.FailureReason = err.Error()
		a.Results = nil
	} else {
		a.Keypoints = keypoints
		applyAnalysis(a)
	}
	a.UpdatedAt = time.Now().UTC()
	return s.assessments.Update(ctx, a)
}

func (s *assessmentService) extractKeypoints(ctx context.Context, a *model.Assessment) (json.RawMessage, error) {
	video, _, err := s.store.Get(ctx, a.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("fetch recording: %w", err)
	}
	defer video.Close()
	return s.extractor.ExtractMotion(ctx, a.VideoFilename, a.VideoContentType, video)
}

func (s *assessmentService) VideoURL(ctx context.Context, patientID, id string, expiry time.Duration) (string, error) {
	a, err := s.find(ctx, patientID, id)
	if err != nil {
		return "", err
	}
	if !a.HasVideo() {
		return "", ErrNoVideo
	}
	return s.store.PresignGet(ctx, a.VideoPath, expiry, a.VideoFilename)
}

func (s *assessmentService) Reanalyze(ctx context.Context, patientID, id string) (*model.Assessment, error) {
	a, err := s.find(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if len(a.Keypoints) > 0 {
		applyAnalysis(a)
		a.UpdatedAt = time.Now().UTC()
		return s.assessments.Update(ctx, a)
	}
	if a.HasVideo() && s.extractor != nil && s.extractor.Enabled() {
		return s.analyzeRecording(ctx, a)
	}
	return nil, ErrNoKeypoints
}

func (s *assessmentService) Compare(ctx context.Context, patientID, id, otherID string) (*model.TestComparison, error) {
	a, err := s.find(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	b, err := s.find(ctx, patientID, otherID)
	if err != nil {
		return nil, err
	}
	if a.PatientID != b.PatientID {
		return nil, fmt.Errorf("%w: sessions belong to different patients", ErrInvalidInput)
	}
	if len(a.Keypoints) == 0 || len(b.Keypoints) == 0 {
		return nil, ErrNoKeypoints
	}

	ma, err := analysis.ParseMotion(a.Keypoints)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", a.ID, err)
	}
	mb, err := analysis.ParseMotion(b.Keypoints)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", b.ID, err)
	}
	sim, err := analysis.Compare(ma, mb)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &model.TestComparison{
		PatientID:   a.PatientID,
		TestID:      a.ID,
		OtherTestID: b.ID,
		Similarity:  sim,
	}, nil
}
