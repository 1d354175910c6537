package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"motorapi/internal/model"
	"motorapi/internal/repository"
	"motorapi/internal/service"
	serviceMocks "motorapi/internal/service/mocks"
)

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestListPatients(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Get("/patients", ListPatients(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.PatientListResult{
			Items: []model.Patient{{ID: uuid.New().String(), Name: "Jane Doe", Severity: model.SeverityLow}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, repository.PatientFilter{}, 10, 0).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data  []model.Patient `json:"data"`
			Total int             `json:"total"`
			Limit int             `json:"limit"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Data, 1)
		assert.Equal(t, 1, result.Total)
		assert.Equal(t, 10, result.Limit)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing paging gets the default", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, repository.PatientFilter{}, service.DefaultPageLimit, 0).
			Return(&service.PatientListResult{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("severity and age filter", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.MatchedBy(func(f repository.PatientFilter) bool {
			return f.Severity == model.SeverityHigh && f.MinAge != nil && *f.MinAge == 60
		}), service.DefaultPageLimit, 0).Return(&service.PatientListResult{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients?severity=Severe&min_age=60", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/patients?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("invalid severity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/patients?severity=bananas", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, repository.PatientFilter{}, service.DefaultPageLimit, 0).
			Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCreatePatient(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Post("/patients", CreatePatient(mockSvc))

	t.Run("success", func(t *testing.T) {
		created := &model.Patient{ID: uuid.New().String(), Name: "Jane Doe", Severity: model.SeverityLow}
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Patient) bool {
			// "Mild" in the request body parses to the stored code.
			return p.Name == "Jane Doe" && p.Severity == model.SeverityLow
		})).Return(created, nil).Once()

		req := jsonRequest(http.MethodPost, "/patients", fiber.Map{
			"name": "Jane Doe", "age": 64, "severity": "Mild",
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, created.ID, result["id"])
		assert.Equal(t, "Mild", result["severity_label"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/patients", bytes.NewReader([]byte("{")))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_BODY", body.Error.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: name is required", service.ErrInvalidInput)).Once()

		req := jsonRequest(http.MethodPost, "/patients", fiber.Map{"age": 64})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
		assert.Contains(t, body.Error.Message, "name is required")
		mockSvc.AssertExpectations(t)
	})
}

func TestBulkCreatePatients(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Post("/patients/bulk", BulkCreatePatients(mockSvc))

	t.Run("success", func(t *testing.T) {
		created := []model.Patient{
			{ID: uuid.New().String(), Name: "Jane Doe"},
			{ID: uuid.New().String(), Name: "John Roe"},
		}
		mockSvc.On("CreateBulk", mock.Anything, mock.MatchedBy(func(in []model.Patient) bool {
			return len(in) == 2
		})).Return(created, nil).Once()

		req := jsonRequest(http.MethodPost, "/patients/bulk", []fiber.Map{
			{"name": "Jane Doe", "age": 64},
			{"name": "John Roe", "age": 71},
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result struct {
			Data  []model.Patient `json:"data"`
			Total int             `json:"total"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, 2, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty batch", func(t *testing.T) {
		mockSvc.On("CreateBulk", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: no patients in request", service.ErrInvalidInput)).Once()

		req := jsonRequest(http.MethodPost, "/patients/bulk", []fiber.Map{})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestExportPatients(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Get("/patients/export", ExportPatients(mockSvc))

	patients := []model.Patient{
		{RecordNumber: "jane1", Name: "Jane Doe", Severity: model.SeverityLow},
		{RecordNumber: "john1", Name: "John Roe", Severity: model.SeverityHigh},
	}

	t.Run("csv by default", func(t *testing.T) {
		mockSvc.On("ListAll", mock.Anything, repository.PatientFilter{}).Return(patients, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/export", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "patients-")

		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "Record Number")
		assert.Contains(t, string(body), "Jane Doe")
		mockSvc.AssertExpectations(t)
	})

	t.Run("xlsx", func(t *testing.T) {
		mockSvc.On("ListAll", mock.Anything, repository.PatientFilter{}).Return(patients, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/export?format=xlsx", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "spreadsheetml")
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown format", func(t *testing.T) {
		mockSvc.On("ListAll", mock.Anything, repository.PatientFilter{}).Return(patients, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/export?format=pdf", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	})
}

func TestGetPatient(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Get("/patients/:id", GetPatient(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).
			Return(&model.Patient{ID: id, Name: "Jane Doe"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result["id"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrPatientNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/patients/invalid-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUpdatePatient(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Put("/patients/:id", UpdatePatient(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		updated := &model.Patient{ID: id, Name: "New Name", Severity: model.SeverityLow}
		mockSvc.On("Update", mock.Anything, id, mock.MatchedBy(func(patch model.PatientPatch) bool {
			return patch.Name != nil && *patch.Name == "New Name" && patch.Age == nil
		})).Return(updated, nil).Once()

		req := jsonRequest(http.MethodPut, "/patients/"+id, fiber.Map{"name": "New Name"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "New Name", result["name"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Update", mock.Anything, id, mock.Anything).
			Return(nil, service.ErrPatientNotFound).Once()

		req := jsonRequest(http.MethodPut, "/patients/"+id, fiber.Map{"name": "New Name"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodPut, "/patients/"+id, bytes.NewReader([]byte("not json")))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeletePatient(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Delete("/patients/:id", DeletePatient(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/patients/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrPatientNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/patients/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetPatientSummary(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Get("/patients/:id/summary", GetPatientSummary(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		latestScore := 82.5
		mockSvc.On("Summary", mock.Anything, id).Return(&model.PatientSummary{
			Patient: model.Patient{ID: id, Name: "Jane Doe", Severity: model.SeverityLow},
			Stats: model.AssessmentStats{
				Total:       3,
				ByStatus:    map[model.AssessmentStatus]int{model.StatusCompleted: 2, model.StatusFailed: 1},
				LatestScore: &latestScore,
			},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/"+id+"/summary", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.PatientSummary
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "Jane Doe", result.Patient.Name)
		assert.Equal(t, 3, result.Stats.Total)
		assert.Equal(t, 82.5, *result.Stats.LatestScore)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Summary", mock.Anything, id).Return(nil, service.ErrPatientNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/"+id+"/summary", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}
