package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
	"github.com/oakwood-trust/safeguard-api/internal/models"
)

// IncidentRepository manages persistence for incident reports and their
// child records.
type IncidentRepository struct {
	db *sqlx.DB
}

// NewIncidentRepository constructs a new repository.
func NewIncidentRepository(db *sqlx.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// BodyMapMarkerParams is one body-map annotation to persist.
type BodyMapMarkerParams struct {
	View string
	X    float64
	Y    float64
	Note string
}

// CreateIncidentParams carries fully-resolved column values for the incident
// row; default substitution for omitted fields happens in the service before
// this struct is built.
type CreateIncidentParams struct {
	ID               *int64 // nil lets the sequence assign the identifier
	CategoryID       int
	LocationID       int
	IncidentDate     time.Time
	IncidentTime     string
	Details          string
	WitnessID        *int64
	ActionsTaken     string
	FollowUpRequired bool
	IsConfidential   bool
	Urgent           bool
	CreatedBy        int64
	StatusID         int

	StudentID      string
	PrimaryStudent string
	LinkedStudents []string
	BodyMapMarkers []BodyMapMarkerParams
	NotifyStaff    []int64
}

const insertIncidentWithID = `INSERT INTO incidents
	(id, category_id, location_id, incident_date, incident_time, details, witness_id, actions_taken,
	 follow_up_required, is_confidential, urgent, created_by, status_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	RETURNING id`

const insertIncident = `INSERT INTO incidents
	(category_id, location_id, incident_date, incident_time, details, witness_id, actions_taken,
	 follow_up_required, is_confidential, urgent, created_by, status_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING id`

// Create persists the incident row and all child records as one transaction.
// Either every insert is visible afterwards or none is.
func (r *IncidentRepository) Create(ctx context.Context, params CreateIncidentParams) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin incident transaction: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var incidentID int64
	if params.ID != nil {
		err = tx.QueryRowxContext(ctx, insertIncidentWithID,
			*params.ID, params.CategoryID, params.LocationID, params.IncidentDate, params.IncidentTime,
			params.Details, params.WitnessID, params.ActionsTaken, params.FollowUpRequired,
			params.IsConfidential, params.Urgent, params.CreatedBy, params.StatusID, now,
		).Scan(&incidentID)
	} else {
		err = tx.QueryRowxContext(ctx, insertIncident,
			params.CategoryID, params.LocationID, params.IncidentDate, params.IncidentTime,
			params.Details, params.WitnessID, params.ActionsTaken, params.FollowUpRequired,
			params.IsConfidential, params.Urgent, params.CreatedBy, params.StatusID, now,
		).Scan(&incidentID)
	}
	if err != nil {
		return 0, fmt.Errorf("insert incident: %w", err)
	}

	// The top-level student link is inserted regardless of the primary link
	// below, so a student named in both ends up with two rows under two roles.
	// The dashboard client relies on both rows being present.
	const insertLink = `INSERT INTO incident_students (incident_id, student_id, role) VALUES ($1, $2, $3)`
	if _, err = tx.ExecContext(ctx, insertLink, incidentID, params.StudentID, models.StudentRoleInvolved); err != nil {
		return 0, fmt.Errorf("insert involved student link: %w", err)
	}

	if params.PrimaryStudent != "" {
		if _, err = tx.ExecContext(ctx, insertLink, incidentID, params.PrimaryStudent, models.StudentRolePrimary); err != nil {
			return 0, fmt.Errorf("insert primary student link: %w", err)
		}
	}

	if len(params.LinkedStudents) > 0 {
		values := make([]string, 0, len(params.LinkedStudents))
		args := make([]interface{}, 0, len(params.LinkedStudents)+1)
		args = append(args, incidentID)
		for _, studentID := range params.LinkedStudents {
			args = append(args, studentID)
			values = append(values, fmt.Sprintf("($1, $%d, 'involved')", len(args)))
		}
		query := "INSERT INTO incident_students (incident_id, student_id, role) VALUES " + strings.Join(values, ", ")
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert linked students: %w", err)
		}
	}

	if len(params.BodyMapMarkers) > 0 {
		values := make([]string, 0, len(params.BodyMapMarkers))
		args := make([]interface{}, 0, len(params.BodyMapMarkers)*4+1)
		args = append(args, incidentID)
		for _, marker := range params.BodyMapMarkers {
			view := marker.View
			if view == "" {
				view = "front"
			}
			args = append(args, view, marker.X, marker.Y, marker.Note)
			base := len(args) - 3
			values = append(values, fmt.Sprintf("($1, $%d, $%d, $%d, $%d)", base, base+1, base+2, base+3))
		}
		query := "INSERT INTO body_maps (incident_id, view, x, y, note) VALUES " + strings.Join(values, ", ")
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert body map markers: %w", err)
		}
	}

	if len(params.NotifyStaff) > 0 {
		values := make([]string, 0, len(params.NotifyStaff))
		args := make([]interface{}, 0, len(params.NotifyStaff)+2)
		args = append(args, incidentID, now)
		for _, userID := range params.NotifyStaff {
			args = append(args, userID)
			values = append(values, fmt.Sprintf("($1, $%d, $2)", len(args)))
		}
		query := "INSERT INTO incident_notifications (incident_id, user_id, created_at) VALUES " + strings.Join(values, ", ")
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert staff notifications: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit incident: %w", err)
	}
	commit = true
	return incidentID, nil
}

// GetDetail fetches the incident row joined with reference display names.
// Returns sql.ErrNoRows unchanged when the incident does not exist.
func (r *IncidentRepository) GetDetail(ctx context.Context, id int64) (*dto.IncidentDetail, error) {
	const query = `SELECT i.id, i.category_id, i.location_id, i.incident_date, i.incident_time, i.details,
       i.witness_id, i.actions_taken, i.follow_up_required, i.is_confidential, i.urgent,
       i.created_by, i.status_id, i.created_at,
       c.name AS category_name, l.name AS location_name, w.full_name AS witness_name,
       u.full_name AS created_by_name, s.name AS status_name
	FROM incidents i
	JOIN incident_categories c ON c.id = i.category_id
	JOIN incident_locations l ON l.id = i.location_id
	LEFT JOIN users w ON w.id = i.witness_id
	JOIN users u ON u.id = i.created_by
	JOIN incident_statuses s ON s.id = i.status_id
	WHERE i.id = $1`
	var detail dto.IncidentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListStudents returns the student links joined with demographics.
func (r *IncidentRepository) ListStudents(ctx context.Context, incidentID int64) ([]dto.LinkedStudent, error) {
	const query = `SELECT ls.student_id, ls.role, st.first_name, st.last_name, st.date_of_birth, st.year_group, st.tutor_group
	FROM incident_students ls
	JOIN students st ON st.id = ls.student_id
	WHERE ls.incident_id = $1
	ORDER BY ls.role, ls.student_id`
	var students []dto.LinkedStudent
	if err := r.db.SelectContext(ctx, &students, query, incidentID); err != nil {
		return nil, fmt.Errorf("list incident students: %w", err)
	}
	return students, nil
}

// ListEmergencyContacts returns contacts for the given students.
func (r *IncidentRepository) ListEmergencyContacts(ctx context.Context, studentIDs []string) ([]models.EmergencyContact, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, student_id, name, relationship, phone, email
	FROM emergency_contacts WHERE student_id = ANY($1) ORDER BY student_id, id`
	var contacts []models.EmergencyContact
	if err := r.db.SelectContext(ctx, &contacts, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list emergency contacts: %w", err)
	}
	return contacts, nil
}

// ListAttachments returns attachment metadata joined with uploader names.
func (r *IncidentRepository) ListAttachments(ctx context.Context, incidentID int64) ([]dto.AttachmentDetail, error) {
	const query = `SELECT a.id, a.incident_id, a.file_name, a.file_path, a.mime_type, a.size_bytes,
       a.uploaded_by, a.created_at, u.full_name AS uploaded_by_name
	FROM attachments a
	JOIN users u ON u.id = a.uploaded_by
	WHERE a.incident_id = $1
	ORDER BY a.created_at`
	var attachments []dto.AttachmentDetail
	if err := r.db.SelectContext(ctx, &attachments, query, incidentID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return attachments, nil
}

// ListBodyMap returns all body-map marks for an incident.
func (r *IncidentRepository) ListBodyMap(ctx context.Context, incidentID int64) ([]models.BodyMapMark, error) {
	const query = `SELECT id, incident_id, view, x, y, note FROM body_maps WHERE incident_id = $1 ORDER BY id`
	var marks []models.BodyMapMark
	if err := r.db.SelectContext(ctx, &marks, query, incidentID); err != nil {
		return nil, fmt.Errorf("list body map: %w", err)
	}
	return marks, nil
}

// ListNotifications returns notification records joined with user display data.
func (r *IncidentRepository) ListNotifications(ctx context.Context, incidentID int64) ([]dto.NotificationDetail, error) {
	const query = `SELECT n.id, n.incident_id, n.user_id, n.created_at, n.viewed_at,
       u.full_name AS user_name, u.email AS user_email
	FROM incident_notifications n
	JOIN users u ON u.id = n.user_id
	WHERE n.incident_id = $1
	ORDER BY n.id`
	var notifications []dto.NotificationDetail
	if err := r.db.SelectContext(ctx, &notifications, query, incidentID); err != nil {
		return nil, fmt.Errorf("list incident notifications: %w", err)
	}
	return notifications, nil
}

// List returns incidents matching the filter, newest first, with total count.
func (r *IncidentRepository) List(ctx context.Context, filter models.IncidentFilter) ([]dto.IncidentDetail, int, error) {
	base := `FROM incidents i
	JOIN incident_categories c ON c.id = i.category_id
	JOIN incident_locations l ON l.id = i.location_id
	LEFT JOIN users w ON w.id = i.witness_id
	JOIN users u ON u.id = i.created_by
	JOIN incident_statuses s ON s.id = i.status_id`

	where := []string{"1=1"}
	args := []interface{}{}
	if filter.CategoryID != nil {
		where = append(where, fmt.Sprintf("i.category_id = $%d", len(args)+1))
		args = append(args, *filter.CategoryID)
	}
	if filter.StatusID != nil {
		where = append(where, fmt.Sprintf("i.status_id = $%d", len(args)+1))
		args = append(args, *filter.StatusID)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM incident_students ls WHERE ls.incident_id = i.id AND ls.student_id = $%d)", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("i.incident_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("i.incident_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Urgent != nil {
		where = append(where, fmt.Sprintf("i.urgent = $%d", len(args)+1))
		args = append(args, *filter.Urgent)
	}
	if filter.IsConfidential != nil {
		where = append(where, fmt.Sprintf("i.is_confidential = $%d", len(args)+1))
		args = append(args, *filter.IsConfidential)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT i.id, i.category_id, i.location_id, i.incident_date, i.incident_time, i.details,
       i.witness_id, i.actions_taken, i.follow_up_required, i.is_confidential, i.urgent,
       i.created_by, i.status_id, i.created_at,
       c.name AS category_name, l.name AS location_name, w.full_name AS witness_name,
       u.full_name AS created_by_name, s.name AS status_name
%s WHERE %s ORDER BY i.incident_date DESC, i.created_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var incidents []dto.IncidentDetail
	if err := r.db.SelectContext(ctx, &incidents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list incidents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count incidents: %w", err)
	}
	return incidents, total, nil
}
