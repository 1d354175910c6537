package service

import "errors"

// Sentinel errors the handlers translate into HTTP status codes.
var (
	ErrIDRequired         = errors.New("id is required")
	ErrPatientNotFound    = errors.New("patient not found")
	ErrAssessmentNotFound = errors.New("test session not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrReaderNil          = errors.New("reader is nil")
	ErrUnsupportedMedia   = errors.New("unsupported video content type")
	ErrNoVideo            = errors.New("no video stored for session")
	ErrNoKeypoints        = errors.New("no keypoints available for session")
)

// Pagination bounds applied by the list operations.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ClampPage applies the default and maximum page size. Handlers use it to
// echo the effective limit and offset back to the client.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
