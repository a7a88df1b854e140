package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/oakwood-trust/safeguard-api/internal/models"
)

// StudentRepository provides read access to the school roll.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, first_name, last_name, date_of_birth, year_group, tutor_group FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns students matching the filter with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := `FROM students WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(id) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.YearGroup != "" {
		conditions = append(conditions, fmt.Sprintf("year_group = $%d", len(args)+1))
		args = append(args, filter.YearGroup)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, first_name, last_name, date_of_birth, year_group, tutor_group
%s ORDER BY last_name, first_name LIMIT %d OFFSET %d`, base, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListEmergencyContacts returns the contacts for one student.
func (r *StudentRepository) ListEmergencyContacts(ctx context.Context, studentID string) ([]models.EmergencyContact, error) {
	const query = `SELECT id, student_id, name, relationship, phone, email FROM emergency_contacts WHERE student_id = $1 ORDER BY id`
	var contacts []models.EmergencyContact
	if err := r.db.SelectContext(ctx, &contacts, query, studentID); err != nil {
		return nil, fmt.Errorf("list student contacts: %w", err)
	}
	return contacts, nil
}
