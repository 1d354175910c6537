package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"motorapi/internal/mailer"
	"motorapi/internal/model"
	"motorapi/internal/report"
	"motorapi/internal/service"
)

// videoURLExpiry bounds how long a presigned playback link stays valid.
const videoURLExpiry = 15 * time.Minute

type createTestRequest struct {
	Type       string          `json:"type"`
	RecordedAt time.Time       `json:"recorded_at"`
	Keypoints  json.RawMessage `json:"keypoints"`
}

type shareReportRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// pathIDs validates the patient and session route parameters.
func pathIDs(c *fiber.Ctx) (patientID, testID string, err error) {
	patientID = c.Params("id")
	if _, err := uuid.Parse(patientID); err != nil {
		return "", "", writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	testID = c.Params("testID")
	if _, err := uuid.Parse(testID); err != nil {
		return "", "", writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid test id format")
	}
	return patientID, testID, nil
}

// ListTests returns a patient's sessions, newest first.
func ListTests(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID := c.Params("id")
		if _, err := uuid.Parse(patientID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		limit, offset = service.ClampPage(limit, offset)
		res, err := svc.ListByPatient(c.UserContext(), patientID, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"data":   res.Items,
			"total":  res.Total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// CreateTest opens a session. An inline keypoints payload is analyzed
// synchronously, so the response may already carry results.
func CreateTest(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID := c.Params("id")
		if _, err := uuid.Parse(patientID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req createTestRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		a, err := svc.Create(c.UserContext(), patientID, req.Type, req.RecordedAt, req.Keypoints)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

// GetTest fetches one session of the patient.
func GetTest(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID, testID, err := pathIDs(c)
		if err != nil {
			return err
		}
		a, err := svc.Get(c.UserContext(), patientID, testID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(a)
	}
}

// DeleteTest removes a session and its stored recording.
func DeleteTest(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID, testID, err := pathIDs(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), patientID, testID); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// uploadError keeps the sentinel mapping but brands pipeline failures so
// clients can distinguish a broken upload from a broken request.
func uploadError(c *fiber.Ctx, err error) error {
	for _, known := range []error{
		service.ErrPatientNotFound,
		service.ErrAssessmentNotFound,
		service.ErrInvalidInput,
		service.ErrUnsupportedMedia,
		service.ErrReaderNil,
		service.ErrIDRequired,
	} {
		if errors.Is(err, known) {
			return serviceError(c, err)
		}
	}
	return writeError(c, fiber.StatusInternalServerError, "UPLOAD_FAILED", "could not store the recording")
}

// UploadVideo accepts a webcam recording as multipart form data. The form
// names an existing session via test_id, or a type to open one implicitly.
func UploadVideo(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		patientID := c.FormValue("patient_id")
		if _, err := uuid.Parse(patientID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid patient_id")
		}

		testID := c.FormValue("test_id")
		if testID == "" {
			a, err := svc.Create(c.UserContext(), patientID, c.FormValue("type"), time.Time{}, nil)
			if err != nil {
				return serviceError(c, err)
			}
			testID = a.ID
		} else if _, err := uuid.Parse(testID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid test_id")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		a, err := svc.UploadVideo(c.UserContext(), patientID, testID, f, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
		if err != nil {
			return uploadError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

// GetTestVideoURL returns a short-lived presigned playback link.
func GetTestVideoURL(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID, testID, err := pathIDs(c)
		if err != nil {
			return err
		}
		url, err := svc.VideoURL(c.UserContext(), patientID, testID, videoURLExpiry)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"url":        url,
			"expires_in": int(videoURLExpiry.Seconds()),
		})
	}
}

// ReanalyzeTest reruns the analysis from stored keypoints or the recording.
func ReanalyzeTest(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID, testID, err := pathIDs(c)
		if err != nil {
			return err
		}
		a, err := svc.Reanalyze(c.UserContext(), patientID, testID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(a)
	}
}

// CompareTests reports the DTW similarity against the session named by the
// with query parameter.
func CompareTests(svc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID, testID, err := pathIDs(c)
		if err != nil {
			return err
		}
		otherID := c.Query("with")
		if _, err := uuid.Parse(otherID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "with must name a test session")
		}
		cmp, err := svc.Compare(c.UserContext(), patientID, testID, otherID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(cmp)
	}
}

// sessionReport bundles everything the report endpoints serve or mail.
type sessionReport struct {
	pdf      bytes.Buffer
	filename string
	patient  *model.Patient
}

// renderReport loads both records and renders the session PDF. On failure
// the response is already written and the returned error carries it.
func renderReport(c *fiber.Ctx, patients service.PatientService, tests service.AssessmentService) (*sessionReport, error) {
	patientID, testID, err := pathIDs(c)
	if err != nil {
		return nil, err
	}
	a, err := tests.Get(c.UserContext(), patientID, testID)
	if err != nil {
		return nil, serviceError(c, err)
	}
	p, err := patients.Get(c.UserContext(), patientID)
	if err != nil {
		return nil, serviceError(c, err)
	}

	out := &sessionReport{filename: report.Filename(a), patient: p}
	if err := report.Assessment(&out.pdf, p, a); err != nil {
		return nil, writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "could not render report")
	}
	return out, nil
}

// GetTestReport serves the session report as a PDF download.
func GetTestReport(patients service.PatientService, tests service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, errResp := renderReport(c, patients, tests)
		if rep == nil {
			return errResp
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rep.filename))
		return c.Send(rep.pdf.Bytes())
	}
}

// ShareTestReport emails the session report to a recipient.
func ShareTestReport(patients service.PatientService, tests service.AssessmentService, mail mailer.Mailer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req shareReportRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if req.To == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "to is required")
		}

		rep, errResp := renderReport(c, patients, tests)
		if rep == nil {
			return errResp
		}

		subject := fmt.Sprintf("Motor assessment report - %s", rep.patient.Name)
		body := fmt.Sprintf("<p>Motor assessment report for %s, attached.</p>", html.EscapeString(rep.patient.Name))
		if req.Message != "" {
			body = fmt.Sprintf("<p>%s</p>%s", html.EscapeString(req.Message), body)
		}

		if err := mail.SendReport(req.To, subject, body, rep.filename, rep.pdf.Bytes()); err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "sent", "to": req.To})
	}
}
