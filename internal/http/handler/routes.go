package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"motorapi/internal/mailer"
	"motorapi/internal/service"
)

// RegisterRoutes attaches the HTTP API to the provided Fiber app. Static
// patient paths come before the :id routes so /patients/export and
// /patients/bulk never match as record IDs.
func RegisterRoutes(app *fiber.App, db *sql.DB, patients service.PatientService, tests service.AssessmentService, mail mailer.Mailer) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/patients", ListPatients(patients))
	app.Post("/patients", CreatePatient(patients))
	app.Post("/patients/bulk", BulkCreatePatients(patients))
	app.Get("/patients/export", ExportPatients(patients))
	app.Get("/patients/:id", GetPatient(patients))
	app.Put("/patients/:id", UpdatePatient(patients))
	app.Delete("/patients/:id", DeletePatient(patients))
	app.Get("/patients/:id/summary", GetPatientSummary(patients))

	app.Get("/patients/:id/tests", ListTests(tests))
	app.Post("/patients/:id/tests", CreateTest(tests))
	app.Get("/patients/:id/tests/:testID", GetTest(tests))
	app.Delete("/patients/:id/tests/:testID", DeleteTest(tests))
	app.Get("/patients/:id/tests/:testID/video", GetTestVideoURL(tests))
	app.Post("/patients/:id/tests/:testID/analyze", ReanalyzeTest(tests))
	app.Get("/patients/:id/tests/:testID/compare", CompareTests(tests))
	app.Get("/patients/:id/tests/:testID/report", GetTestReport(patients, tests))
	app.Post("/patients/:id/tests/:testID/report/share", ShareTestReport(patients, tests, mail))

	// The recorder widget posts here; test_id is optional and a type opens
	// a session implicitly.
	app.Post("/upload-video", UploadVideo(tests))
}
