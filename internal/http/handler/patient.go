package handler

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"motorapi/internal/export"
	"motorapi/internal/model"
	"motorapi/internal/repository"
	"motorapi/internal/service"
)

// patientFilter reads the list/export query parameters. The returned error
// names the offending parameter.
func patientFilter(c *fiber.Ctx) (repository.PatientFilter, error) {
	f := repository.PatientFilter{Query: c.Query("q")}
	if raw := c.Query("severity"); raw != "" {
		sev, err := model.ParseSeverity(raw)
		if err != nil {
			return f, err
		}
		f.Severity = sev
	}
	if raw := c.Query("min_age"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, errors.New("min_age must be an integer")
		}
		f.MinAge = &n
	}
	if raw := c.Query("max_age"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, errors.New("max_age must be an integer")
		}
		f.MaxAge = &n
	}
	return f, nil
}

// ListPatients serves the dashboard table: paged, searchable, filterable.
func ListPatients(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		f, err := patientFilter(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		}

		limit, offset = service.ClampPage(limit, offset)
		res, err := svc.List(c.UserContext(), f, limit, offset)
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

// CreatePatient registers a new patient record.
func CreatePatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p model.Patient
		if err := c.BodyParser(&p); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		created, err := svc.Create(c.UserContext(), &p)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// BulkCreatePatients registers several patients in one request.
func BulkCreatePatients(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in []model.Patient
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		created, err := svc.CreateBulk(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"data":  created,
			"total": len(created),
		})
	}
}

// ExportPatients streams the current filter set as CSV or XLSX.
func ExportPatients(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format := c.Query("format", export.FormatCSV)
		f, err := patientFilter(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		}

		patients, err := svc.ListAll(c.UserContext(), f)
		if err != nil {
			return serviceError(c, err)
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, format, patients); err != nil {
			if errors.Is(err, export.ErrUnknownFormat) {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "format must be csv or xlsx")
			}
			return serviceError(c, err)
		}

		c.Set(fiber.HeaderContentType, export.ContentType(format))
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%q", export.Filename(format, time.Now().UTC())))
		return c.Send(buf.Bytes())
	}
}

// GetPatient fetches one patient by ID.
func GetPatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		p, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(p)
	}
}

// UpdatePatient applies a partial update; absent fields stay unchanged.
func UpdatePatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var patch model.PatientPatch
		if err := c.BodyParser(&patch); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		updated, err := svc.Update(c.UserContext(), id, patch)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(updated)
	}
}

// DeletePatient removes a patient with their sessions and recordings.
func DeletePatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetPatientSummary serves the per-patient dashboard aggregates.
func GetPatientSummary(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		sum, err := svc.Summary(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(sum)
	}
}
