package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anonreport/incident-api/internal/dto"
	"github.com/anonreport/incident-api/internal/models"
	"github.com/anonreport/incident-api/internal/repository"
	appErrors "github.com/anonreport/incident-api/pkg/errors"
	"github.com/anonreport/incident-api/pkg/storage"
)

type reportRepoStub struct {
	reports   map[string]*models.Report
	createErr error
	findErr   error
	updateErr error
	listErr   error
	findCalls int
	filters   []models.ReportFilter
	onUpdate  func()
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{reports: map[string]*models.Report{}}
}

func (s *reportRepoStub) Create(ctx context.Context, report *models.Report) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.reports[report.ReportID]; ok {
		return fmt.Errorf("create report %s: %w", report.ReportID, repository.ErrDuplicateReportID)
	}
	if report.ID == "" {
		report.ID = "id-" + report.ReportID
	}
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	clone := *report
	s.reports[report.ReportID] = &clone
	return nil
}

func (s *reportRepoStub) FindByReportID(ctx context.Context, reportID string) (*models.Report, error) {
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	r, ok := s.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("get report: %w", sql.ErrNoRows)
	}
	clone := *r
	return &clone, nil
}

func (s *reportRepoStub) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) (*models.Report, error) {
	if s.onUpdate != nil {
		s.onUpdate()
	}
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	r, ok := s.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("update report status: %w", sql.ErrNoRows)
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	clone := *r
	return &clone, nil
}

func (s *reportRepoStub) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	s.filters = append(s.filters, filter)
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	var matched []models.Report
	for _, r := range s.reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		matched = append(matched, *r)
	}
	start := (filter.Page - 1) * filter.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

type memoryCacheRepo struct {
	items   map[string]models.Report
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string]models.Report{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	item, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*models.Report)) = item
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.items[key] = *(value.(*models.Report))
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.items, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

type imageStoreStub struct {
	keys    []string
	types   []string
	deleted []string
	err     error
}

func (s *imageStoreStub) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	s.types = append(s.types, contentType)
	return "/uploads/" + key, nil
}

func (s *imageStoreStub) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func validCreateRequest() dto.CreateReportRequest {
	return dto.CreateReportRequest{
		ReportID:    "RPT-001",
		Type:        "Fire Outbreak",
		Title:       "Warehouse fire",
		Description: "Smoke coming from the roof",
	}
}

func assertAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected app error, got %v", err)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, message, appErr.Message)
}

func TestReportServiceCreateDefaults(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, nil, nil, zap.NewNop())

	report, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Nil(t, report.Location)
	assert.Nil(t, report.SpecificType)
	assert.Nil(t, report.Latitude)
	assert.Nil(t, report.Image)
	assert.Contains(t, repo.reports, "RPT-001")
}

func TestReportServiceCreateKeepsZeroCoordinates(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, nil, nil, nil)

	zero := 0.0
	req := validCreateRequest()
	req.Latitude = &zero
	req.Longitude = &zero
	report, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, report.Latitude)
	assert.Equal(t, 0.0, *report.Latitude)
}

func TestReportServiceCreateValidation(t *testing.T) {
	lat := 123.0
	cases := []struct {
		name    string
		mutate  func(*dto.CreateReportRequest)
		message string
	}{
		{"missing report id", func(r *dto.CreateReportRequest) { r.ReportID = "" }, "Missing required fields"},
		{"blank title", func(r *dto.CreateReportRequest) { r.Title = "   " }, "Missing required fields"},
		{"missing type", func(r *dto.CreateReportRequest) { r.Type = "" }, "Missing required fields"},
		{"missing description", func(r *dto.CreateReportRequest) { r.Description = "" }, "Missing required fields"},
		{"unknown type", func(r *dto.CreateReportRequest) { r.Type = "Flood" }, "Invalid report type"},
		{"unknown status", func(r *dto.CreateReportRequest) { r.Status = "CLOSED" }, "Invalid status. Allowed: PENDING, IN_PROGRESS, RESOLVED, DISMISSED"},
		{"latitude out of range", func(r *dto.CreateReportRequest) { r.Latitude = &lat }, "Invalid coordinates"},
		{"reserved report id", func(r *dto.CreateReportRequest) { r.ReportID = "export" }, "Invalid report ID"},
		{"report id with slash", func(r *dto.CreateReportRequest) { r.ReportID = "RPT/../7" }, "Invalid report ID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newReportRepoStub()
			svc := NewReportService(repo, nil, nil, nil, nil)
			req := validCreateRequest()
			tc.mutate(&req)

			_, err := svc.Create(context.Background(), req)
			assertAppError(t, err, 400, tc.message)
			assert.Empty(t, repo.reports)
		})
	}
}

func TestReportServiceCreateDuplicate(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCreateRequest())
	assertAppError(t, err, 409, "Report already exists")
}

func TestReportServiceCreateStoreFailure(t *testing.T) {
	repo := newReportRepoStub()
	repo.createErr = errors.New("connection refused")
	svc := NewReportService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), validCreateRequest())
	assertAppError(t, err, 500, "Failed to submit report")
	assert.ErrorContains(t, err, "connection refused")
}

func TestReportServiceCreateStoresImage(t *testing.T) {
	repo := newReportRepoStub()
	images := &imageStoreStub{}
	svc := NewReportService(repo, nil, images, nil, nil)

	req := validCreateRequest()
	req.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	report, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, images.keys, 1)
	assert.Equal(t, "reports/"+report.ID+".png", images.keys[0])
	assert.NotContains(t, images.keys[0], "RPT-001")
	assert.Equal(t, "image/png", images.types[0])
	require.NotNil(t, report.Image)
	assert.Equal(t, "/uploads/reports/"+report.ID+".png", *report.Image)
	assert.Empty(t, images.deleted)
}

func pngDataURL(content string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func readStoredImage(t *testing.T, dir string, ref *string) string {
	t.Helper()
	require.NotNil(t, ref)
	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(*ref, "/uploads/")))
	require.NoError(t, err)
	return string(data)
}

func TestReportServiceDuplicateCreateKeepsOriginalImage(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, store, nil, nil)

	req := validCreateRequest()
	req.Image = pngDataURL("original")
	first, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	req.Image = pngDataURL("attacker")
	_, err = svc.Create(context.Background(), req)
	assertAppError(t, err, 409, "Report already exists")

	assert.Equal(t, "original", readStoredImage(t, dir, first.Image))
	entries, err := os.ReadDir(filepath.Join(dir, "reports"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReportServiceCreateDiscardsImageOnStoreFailure(t *testing.T) {
	repo := newReportRepoStub()
	repo.createErr = errors.New("connection refused")
	images := &imageStoreStub{}
	svc := NewReportService(repo, nil, images, nil, zap.NewNop())

	req := validCreateRequest()
	req.Image = pngDataURL("png-bytes")
	_, err := svc.Create(context.Background(), req)
	assertAppError(t, err, 500, "Failed to submit report")
	require.Len(t, images.keys, 1)
	assert.Equal(t, images.keys, images.deleted)
}

func TestReportServiceImageKeysDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)
	svc := NewReportService(newReportRepoStub(), nil, store, nil, nil)

	a := validCreateRequest()
	a.ReportID = "RPT+001"
	a.Image = pngDataURL("first")
	b := validCreateRequest()
	b.ReportID = "RPT 001"
	b.Image = pngDataURL("second")

	first, err := svc.Create(context.Background(), a)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), b)
	require.NoError(t, err)

	assert.NotEqual(t, *first.Image, *second.Image)
	assert.Equal(t, "first", readStoredImage(t, dir, first.Image))
	assert.Equal(t, "second", readStoredImage(t, dir, second.Image))
}

func TestReportServiceCreateInlineImageWithoutStore(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, nil, nil, nil)

	req := validCreateRequest()
	req.Image = "data:image/jpeg;base64,AAAA"
	report, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.Image, *report.Image)
}

func TestReportServiceCreateRejectsBadImage(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, &imageStoreStub{}, nil, nil)

	req := validCreateRequest()
	req.Image = "data:image/png;base64,%%%"
	_, err := svc.Create(context.Background(), req)
	assertAppError(t, err, 400, "Invalid image data")
}

func TestReportServiceGetByReportID(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	report, err := svc.GetByReportID(context.Background(), "RPT-001")
	require.NoError(t, err)
	assert.Equal(t, "Warehouse fire", report.Title)

	_, err = svc.GetByReportID(context.Background(), "missing")
	assertAppError(t, err, 404, "Report not found")

	repo.findErr = errors.New("timeout")
	_, err = svc.GetByReportID(context.Background(), "RPT-001")
	assertAppError(t, err, 500, "Failed to fetch report details")
}

func TestReportServiceCacheReadThroughAndInvalidate(t *testing.T) {
	repo := newReportRepoStub()
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil)
	svc := NewReportService(repo, cache, nil, nil, nil)
	_, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	_, err = svc.GetByReportID(context.Background(), "RPT-001")
	require.NoError(t, err)
	cached, err := svc.GetByReportID(context.Background(), "RPT-001")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, models.ReportStatusPending, cached.Status)

	_, err = svc.UpdateStatus(context.Background(), "RPT-001", "RESOLVED", "officer@example.org")
	require.NoError(t, err)
	assert.Equal(t, []string{"report:RPT-001", "report:RPT-001"}, cacheRepo.deleted)

	fresh, err := svc.GetByReportID(context.Background(), "RPT-001")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.findCalls)
	assert.Equal(t, models.ReportStatusResolved, fresh.Status)
}

func TestReportServiceUpdateStatusDropsEntryRefilledDuringWrite(t *testing.T) {
	repo := newReportRepoStub()
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil)
	svc := NewReportService(repo, cache, nil, nil, nil)
	_, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	repo.onUpdate = func() {
		stale, err := svc.GetByReportID(context.Background(), "RPT-001")
		require.NoError(t, err)
		require.Equal(t, models.ReportStatusPending, stale.Status)
	}
	_, err = svc.UpdateStatus(context.Background(), "RPT-001", "RESOLVED", "staff")
	require.NoError(t, err)
	repo.onUpdate = nil

	fresh, err := svc.GetByReportID(context.Background(), "RPT-001")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, fresh.Status)
}

func TestReportServiceUpdateStatus(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	report, err := svc.UpdateStatus(context.Background(), "RPT-001", "IN_PROGRESS", "staff")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusInProgress, report.Status)
	assert.Equal(t, "Warehouse fire", report.Title)
}

func TestReportServiceUpdateStatusErrors(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), "RPT-001", nil, "")
	assertAppError(t, err, 400, "Invalid or missing 'status' in request body")

	_, err = svc.UpdateStatus(context.Background(), "RPT-001", 42.0, "")
	assertAppError(t, err, 400, "Invalid or missing 'status' in request body")

	_, err = svc.UpdateStatus(context.Background(), "RPT-001", "CLOSED", "")
	assertAppError(t, err, 400, "Invalid status. Allowed: PENDING, IN_PROGRESS, RESOLVED, DISMISSED")
	assert.Equal(t, models.ReportStatusPending, repo.reports["RPT-001"].Status)

	_, err = svc.UpdateStatus(context.Background(), "missing", "RESOLVED", "")
	assertAppError(t, err, 404, "Report not found")

	repo.updateErr = errors.New("deadlock")
	_, err = svc.UpdateStatus(context.Background(), "RPT-001", "RESOLVED", "")
	assertAppError(t, err, 500, "Error updating report")
}

func TestReportServiceList(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	reports, pagination, err := svc.List(context.Background(), dto.ReportListRequest{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.Equal(t, models.Pagination{Page: 1, PageSize: 100, TotalCount: 1}, *pagination)

	_, _, err = svc.List(context.Background(), dto.ReportListRequest{Status: "OPEN"})
	assertAppError(t, err, 400, "Invalid status. Allowed: PENDING, IN_PROGRESS, RESOLVED, DISMISSED")

	_, _, err = svc.List(context.Background(), dto.ReportListRequest{Type: "Flood"})
	assertAppError(t, err, 400, "Invalid report type")
}

func TestReportServiceExportCSV(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	for i := 0; i < 3; i++ {
		req := validCreateRequest()
		req.ReportID = fmt.Sprintf("RPT-%d", i)
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	file, err := svc.Export(context.Background(), dto.ReportListRequest{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "reports-20240501-100000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Report ID,Type"))
}

func TestReportServiceExportUnsupportedFormat(t *testing.T) {
	svc := NewReportService(newReportRepoStub(), nil, nil, nil, nil)
	_, err := svc.Export(context.Background(), dto.ReportListRequest{Format: "xlsx"})
	assertAppError(t, err, 400, "Unsupported export format")
}
