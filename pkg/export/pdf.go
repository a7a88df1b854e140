package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
)

// PDFRenderer renders a full incident aggregate into a printable document.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render produces the incident report PDF.
func (r *PDFRenderer) Render(agg *dto.IncidentAggregate) ([]byte, error) {
	if agg == nil {
		return nil, fmt.Errorf("pdf requires an aggregate")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 15, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 10, fmt.Sprintf("INCIDENT REPORT #%d", agg.Incident.ID), "", 1, "C", false, 0, "")
	if agg.Incident.IsConfidential {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(180, 0, 0)
		pdf.CellFormat(0, 6, "CONFIDENTIAL", "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	r.section(pdf, "Details")
	r.row(pdf, "Category", agg.Incident.CategoryName)
	r.row(pdf, "Location", agg.Incident.LocationName)
	r.row(pdf, "Date", agg.Incident.IncidentDate.Format("2006-01-02"))
	r.row(pdf, "Time", agg.Incident.IncidentTime)
	r.row(pdf, "Status", agg.Incident.StatusName)
	r.row(pdf, "Reported by", agg.Incident.CreatedByName)
	if agg.Incident.WitnessName != nil {
		r.row(pdf, "Witness", *agg.Incident.WitnessName)
	}
	r.row(pdf, "Urgent", yesNo(agg.Incident.Urgent))
	r.row(pdf, "Follow-up required", yesNo(agg.Incident.FollowUpRequired))
	pdf.Ln(2)
	r.paragraph(pdf, "What happened", agg.Incident.Details)
	r.paragraph(pdf, "Actions taken", agg.Incident.ActionsTaken)

	if len(agg.Students) > 0 {
		r.section(pdf, "Students involved")
		for _, s := range agg.Students {
			label := fmt.Sprintf("%s %s", s.FirstName, s.LastName)
			r.row(pdf, strings.ToUpper(s.Role), fmt.Sprintf("%s (%s, %s)", label, s.StudentID, s.YearGroup))
		}
	}

	if len(agg.BodyMap) > 0 {
		r.section(pdf, "Body map")
		for _, m := range agg.BodyMap {
			r.row(pdf, m.View, fmt.Sprintf("x=%.1f%% y=%.1f%% %s", m.X, m.Y, m.Note))
		}
	}

	if len(agg.Attachments) > 0 {
		r.section(pdf, "Attachments")
		for _, a := range agg.Attachments {
			r.row(pdf, a.FileName, fmt.Sprintf("%s, uploaded by %s", a.MimeType, a.UploadedByName))
		}
	}

	if len(agg.Notifications) > 0 {
		r.section(pdf, "Staff notified")
		for _, n := range agg.Notifications {
			viewed := "not yet viewed"
			if n.ViewedAt != nil {
				viewed = "viewed " + n.ViewedAt.Format("2006-01-02 15:04")
			}
			r.row(pdf, n.UserName, viewed)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, title, "B", 1, "", false, 0, "")
	pdf.Ln(1)
}

func (r *PDFRenderer) row(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(45, 6, label, "", 0, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 6, value, "", "", false)
}

func (r *PDFRenderer) paragraph(pdf *gofpdf.Fpdf, label, text string) {
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(0, 6, label, "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if text == "" {
		text = "-"
	}
	pdf.MultiCell(0, 5, text, "", "", false)
	pdf.Ln(2)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
