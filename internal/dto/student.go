package dto

import "github.com/oakwood-trust/safeguard-api/internal/models"

// StudentDetail bundles a student with their emergency contacts.
type StudentDetail struct {
	Student  models.Student            `json:"student"`
	Contacts []models.EmergencyContact `json:"contacts"`
}
