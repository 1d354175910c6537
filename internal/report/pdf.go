package report

// Server-side PDF rendering of a motor-test session, shared by the report
// download endpoint and the mailer.

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"motorapi/internal/model"
)

// Assessment writes a one-page summary of a session and its results.
func Assessment(w io.Writer, p *model.Patient, a *model.Assessment) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s - generated %s", p.Name, time.Now().Format("02/01/2006 15:04")), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "Motor Assessment Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	row := func(label, value string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}
	section := func(title string) {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	}

	section("Patient")
	row("Name", p.Name)
	row("Record number", p.RecordNumber)
	row("Age", strconv.Itoa(p.Age))
	row("Severity", p.Severity.Label())

	section("Session")
	row("Test", a.Type.Label())
	row("Recorded", a.RecordedAt.Format("02/01/2006"))
	row("Status", string(a.Status))
	if a.FailureReason != "" {
		row("Failure reason", a.FailureReason)
	}

	if r := a.Results; r != nil {
		section("Results")
		row("Score", fmt.Sprintf("%.1f / 100", r.Score))
		row("Repetitions", fmt.Sprintf("%d (%.2f per second)", r.RepCount, r.RepsPerSecond))
		row("Duration", fmt.Sprintf("%.1f s", r.DurationSeconds))
		row("Mean amplitude", fmt.Sprintf("%.3f", r.MeanAmplitude))
		row("Amplitude decay", fmt.Sprintf("%.3f", r.AmplitudeDecay))
		row("Peak speed", fmt.Sprintf("%.3f", r.PeakSpeed))
		row("Suggested severity", r.SuggestedSeverity.Label())
	}

	if p.DoctorsNotes != "" {
		section("Doctor's notes")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, p.DoctorsNotes, "", "L", false)
	}

	return pdf.Output(w)
}

// Filename returns the download name for a session report.
func Filename(a *model.Assessment) string {
	return fmt.Sprintf("report-%s-%s.pdf", a.Type, a.RecordedAt.Format("20060102"))
}
