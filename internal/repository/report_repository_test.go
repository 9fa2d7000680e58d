package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonreport/incident-api/internal/models"
)

var reportRowColumns = []string{"id", "report_id", "type", "report_type", "title", "description", "location", "latitude", "longitude", "image", "status", "created_at", "updated_at"}

func newReportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type observerStub struct {
	labels []string
}

func (o *observerStub) ObserveDBQuery(label string, duration time.Duration) {
	o.labels = append(o.labels, label)
}

func TestReportRepositoryCreateDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	observer := &observerStub{}
	repo := NewReportRepository(db, observer)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reports (id, report_id, type, report_type, title, description, location, latitude, longitude, image, status)")).
		WithArgs(sqlmock.AnyArg(), "r-1", "Theft", nil, "Stolen bike", "Taken from rack", nil, nil, nil, nil, "PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	report := &models.Report{ReportID: "r-1", Type: models.ReportTypeTheft, Title: "Stolen bike", Description: "Taken from rack"}
	require.NoError(t, repo.Create(context.Background(), report))

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Equal(t, now, report.CreatedAt)
	assert.Equal(t, []string{"reports.create"}, observer.labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reports")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.Report{ReportID: "r-1", Type: models.ReportTypeOther, Title: "t", Description: "d"})
	assert.ErrorIs(t, err, ErrDuplicateReportID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFindByReportID(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db, nil)

	now := time.Now()
	rows := sqlmock.NewRows(reportRowColumns).
		AddRow("id-1", "r-1", "Fire Outbreak", "Kitchen fire", "Smoke", "Heavy smoke", "Main St", 6.5, 3.3, nil, "PENDING", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + reportColumns + " FROM reports WHERE report_id = $1")).
		WithArgs("r-1").
		WillReturnRows(rows)

	report, err := repo.FindByReportID(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportTypeFireOutbreak, report.Type)
	require.NotNil(t, report.SpecificType)
	assert.Equal(t, "Kitchen fire", *report.SpecificType)
	require.NotNil(t, report.Latitude)
	assert.Equal(t, 6.5, *report.Latitude)
	assert.Nil(t, report.Image)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFindByReportIDNotFound(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE report_id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(reportRowColumns))

	_, err := repo.FindByReportID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db, nil)

	now := time.Now()
	rows := sqlmock.NewRows(reportRowColumns).
		AddRow("id-1", "r-1", "Violence", nil, "Fight", "Fight outside bar", nil, nil, nil, nil, "RESOLVED", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reports SET status = $1, updated_at = NOW() WHERE report_id = $2 RETURNING "+reportColumns)).
		WithArgs("RESOLVED", "r-1").
		WillReturnRows(rows)

	report, err := repo.UpdateStatus(context.Background(), "r-1", models.ReportStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, report.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryList(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db, nil)

	now := time.Now()
	rows := sqlmock.NewRows(reportRowColumns).
		AddRow("id-1", "r-1", "Theft", nil, "Bike", "Stolen", nil, nil, nil, nil, "PENDING", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+reportColumns+" FROM reports WHERE 1=1 AND status = $1 AND type = $2 ORDER BY created_at DESC LIMIT 10 OFFSET 10")).
		WithArgs("PENDING", "Theft").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports WHERE 1=1 AND status = $1 AND type = $2")).
		WithArgs("PENDING", "Theft").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	reports, total, err := repo.List(context.Background(), models.ReportFilter{
		Status:   models.ReportStatusPending,
		Type:     models.ReportTypeTheft,
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListDefaults(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(reportRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	reports, total, err := repo.List(context.Background(), models.ReportFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
