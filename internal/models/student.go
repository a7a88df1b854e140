package models

import "time"

// Student represents a learner on the school roll. Identifiers follow the
// school MIS convention (e.g. "S1024") rather than a database sequence.
type Student struct {
	ID          string    `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	YearGroup   string    `db:"year_group" json:"year_group"`
	TutorGroup  string    `db:"tutor_group" json:"tutor_group"`
}

// EmergencyContact is a guardian or relative reachable for a student.
type EmergencyContact struct {
	ID           int64  `db:"id" json:"id"`
	StudentID    string `db:"student_id" json:"student_id"`
	Name         string `db:"name" json:"name"`
	Relationship string `db:"relationship" json:"relationship"`
	Phone        string `db:"phone" json:"phone"`
	Email        string `db:"email" json:"email"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	YearGroup string
	Page      int
	PageSize  int
}
