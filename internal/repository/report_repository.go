package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/anonreport/incident-api/internal/models"
)

// ErrDuplicateReportID is returned when the reportId is already taken.
var ErrDuplicateReportID = errors.New("report id already exists")

const uniqueViolation = "23505"

const reportColumns = `id, report_id, type, report_type, title, description, location, latitude, longitude, image, status, created_at, updated_at`

// QueryObserver receives timings for each statement.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// ReportRepository persists incident reports.
type ReportRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewReportRepository constructs the repository. observer may be nil.
func NewReportRepository(db *sqlx.DB, observer QueryObserver) *ReportRepository {
	return &ReportRepository{db: db, observer: observer}
}

func (r *ReportRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// Create inserts a report. The store fills in created_at and updated_at.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	defer r.observe("reports.create", time.Now())

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = models.ReportStatusPending
	}
	const query = `INSERT INTO reports (id, report_id, type, report_type, title, description, location, latitude, longitude, image, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		report.ID,
		report.ReportID,
		report.Type,
		report.SpecificType,
		report.Title,
		report.Description,
		report.Location,
		report.Latitude,
		report.Longitude,
		report.Image,
		report.Status,
	)
	if err := row.Scan(&report.CreatedAt, &report.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create report %s: %w", report.ReportID, ErrDuplicateReportID)
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// FindByReportID returns the report with the given client-facing identifier.
// sql.ErrNoRows is wrapped when nothing matches.
func (r *ReportRepository) FindByReportID(ctx context.Context, reportID string) (*models.Report, error) {
	defer r.observe("reports.find", time.Now())

	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_id = $1`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, reportID); err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}

// UpdateStatus sets the status in a single statement and returns the updated
// row. Concurrent updates are last-write-wins.
func (r *ReportRepository) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) (*models.Report, error) {
	defer r.observe("reports.update_status", time.Now())

	query := `UPDATE reports SET status = $1, updated_at = NOW() WHERE report_id = $2 RETURNING ` + reportColumns
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, status, reportID); err != nil {
		return nil, fmt.Errorf("update report status: %w", err)
	}
	return &report, nil
}

// List returns reports matching the filter, newest first, and the total count.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	defer r.observe("reports.list", time.Now())

	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM reports WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, reportColumns, where, size, offset)
	reports := []models.Report{}
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM reports WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}
	return reports, total, nil
}

// Ping checks store connectivity for the readiness check.
func (r *ReportRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
