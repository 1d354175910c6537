package export

// Patient table export behind GET /patients/export: CSV for script
// pipelines, XLSX for clinicians. Both carry the same columns so the two
// formats stay interchangeable.

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"

	"motorapi/internal/model"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrUnknownFormat is returned for formats other than csv and xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

const sheetName = "Patients"

var header = []string{
	"Record Number",
	"Name",
	"Age",
	"Height (cm)",
	"Weight (kg)",
	"Severity",
	"Lab Results",
	"Doctor's Notes",
	"Created At",
}

// columnRef turns a zero-based column index into the A1-style reference
// excelize addresses cells with.
func columnRef(col, row int) string {
	return fmt.Sprintf("%s%d", excelize.ToAlphaString(col), row)
}

func patientRow(p model.Patient) []string {
	labs := ""
	if len(p.LabResults) > 0 {
		if b, err := json.Marshal(p.LabResults); err == nil {
			labs = string(b)
		}
	}
	return []string{
		p.RecordNumber,
		p.Name,
		strconv.Itoa(p.Age),
		strconv.FormatFloat(p.HeightCM, 'f', -1, 64),
		strconv.FormatFloat(p.WeightKG, 'f', -1, 64),
		p.Severity.Label(),
		labs,
		p.DoctorsNotes,
		p.CreatedAt.Format(time.RFC3339),
	}
}

// WriteCSV writes the header row plus one row per patient.
func WriteCSV(w io.Writer, patients []model.Patient) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range patients {
		if err := cw.Write(patientRow(p)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same table as a single-sheet workbook.
func WriteXLSX(w io.Writer, patients []model.Patient) error {
	file := excelize.NewFile()
	file.NewSheet(sheetName)
	file.DeleteSheet("Sheet1")

	for col, name := range header {
		file.SetCellValue(sheetName, columnRef(col, 1), name)
	}
	for i, p := range patients {
		row := i + 2
		for col, v := range patientRow(p) {
			file.SetCellValue(sheetName, columnRef(col, row), v)
		}
	}
	return file.Write(w)
}

// Write renders patients in the requested format.
func Write(w io.Writer, format string, patients []model.Patient) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, patients)
	case FormatXLSX:
		return WriteXLSX(w, patients)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type served with the given format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Filename returns a dated download name, e.g. patients-20260102.csv.
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("patients-%s.%s", now.Format("20060102"), format)
}
