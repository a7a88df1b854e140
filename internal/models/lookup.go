package models

// ReferenceItem is a row from one of the reference tables
// (incident_categories, incident_locations, incident_statuses) that back the
// incident form dropdowns.
type ReferenceItem struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
