package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
)

// CSVRenderer flattens an incident aggregate into CSV rows, one section per
// record group. Used when an export job requests the csv format.
type CSVRenderer struct{}

// NewCSVRenderer constructs a CSV renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render produces the CSV export body.
func (r *CSVRenderer) Render(agg *dto.IncidentAggregate) ([]byte, error) {
	if agg == nil {
		return nil, fmt.Errorf("csv requires an aggregate")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	records := [][]string{
		{"section", "field", "value"},
		{"incident", "id", fmt.Sprintf("%d", agg.Incident.ID)},
		{"incident", "category", agg.Incident.CategoryName},
		{"incident", "location", agg.Incident.LocationName},
		{"incident", "date", agg.Incident.IncidentDate.Format("2006-01-02")},
		{"incident", "time", agg.Incident.IncidentTime},
		{"incident", "status", agg.Incident.StatusName},
		{"incident", "details", agg.Incident.Details},
		{"incident", "actions_taken", agg.Incident.ActionsTaken},
		{"incident", "urgent", yesNo(agg.Incident.Urgent)},
		{"incident", "confidential", yesNo(agg.Incident.IsConfidential)},
		{"incident", "follow_up_required", yesNo(agg.Incident.FollowUpRequired)},
	}
	for _, s := range agg.Students {
		records = append(records, []string{"student", s.Role, fmt.Sprintf("%s %s (%s)", s.FirstName, s.LastName, s.StudentID)})
	}
	for _, m := range agg.BodyMap {
		records = append(records, []string{"body_map", m.View, fmt.Sprintf("x=%.1f y=%.1f %s", m.X, m.Y, m.Note)})
	}
	for _, a := range agg.Attachments {
		records = append(records, []string{"attachment", a.FileName, a.MimeType})
	}
	for _, n := range agg.Notifications {
		records = append(records, []string{"notification", n.UserName, n.CreatedAt.Format("2006-01-02 15:04")})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}
