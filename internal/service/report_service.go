package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anonreport/incident-api/internal/dto"
	"github.com/anonreport/incident-api/internal/models"
	"github.com/anonreport/incident-api/internal/repository"
	appErrors "github.com/anonreport/incident-api/pkg/errors"
	"github.com/anonreport/incident-api/pkg/export"
	"github.com/anonreport/incident-api/pkg/storage"
	"github.com/anonreport/incident-api/pkg/vision"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	exportRowLimit  = 5000
)

var (
	errMissingFields  = appErrors.Clone(appErrors.ErrValidation, "Missing required fields")
	errInvalidType    = appErrors.Clone(appErrors.ErrValidation, "Invalid report type")
	errInvalidStatus  = appErrors.Clone(appErrors.ErrValidation, "Invalid status. Allowed: "+models.AllowedStatuses())
	errInvalidCoords  = appErrors.Clone(appErrors.ErrValidation, "Invalid coordinates")
	errBadImage       = appErrors.Clone(appErrors.ErrValidation, "Invalid image data")
	errBadReportID    = appErrors.Clone(appErrors.ErrValidation, "Invalid report ID")
	errMissingStatus  = appErrors.Clone(appErrors.ErrValidation, "Invalid or missing 'status' in request body")
	errBadFormat      = appErrors.Clone(appErrors.ErrValidation, "Unsupported export format")
	errReportExists   = appErrors.Clone(appErrors.ErrConflict, "Report already exists")
	errReportNotFound = appErrors.Clone(appErrors.ErrNotFound, "Report not found")
	errSubmitFailed   = appErrors.Clone(appErrors.ErrInternal, "Failed to submit report")
	errFetchFailed    = appErrors.Clone(appErrors.ErrInternal, "Failed to fetch report details")
	errUpdateFailed   = appErrors.Clone(appErrors.ErrInternal, "Error updating report")
	errListFailed     = appErrors.Clone(appErrors.ErrInternal, "Failed to fetch reports")
	errExportFailed   = appErrors.Clone(appErrors.ErrInternal, "Failed to export reports")
)

// reservedReportIDs collide with static routes under /reports.
var reservedReportIDs = map[string]bool{"create": true, "export": true}

// ReportRepository is the persistence contract used by ReportService.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	FindByReportID(ctx context.Context, reportID string) (*models.Report, error)
	UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error)
}

// ExportFile is a rendered report listing ready to be downloaded.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService applies the report lifecycle rules.
type ReportService struct {
	repo      ReportRepository
	cache     *CacheService
	images    storage.ImageStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService wires the service. cache, images and metrics may be nil.
func NewReportService(repo ReportRepository, cache *CacheService, images storage.ImageStore, metrics *MetricsService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:      repo,
		cache:     cache,
		images:    images,
		metrics:   metrics,
		validator: NewReportValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// NewReportValidator returns a validator with the report tags registered.
func NewReportValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("report_type", func(fl validator.FieldLevel) bool {
		return models.ReportType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("report_status", func(fl validator.FieldLevel) bool {
		return models.ReportStatus(fl.Field().String()).Valid()
	})
	return v
}

func reportCacheKey(reportID string) string {
	return "report:" + reportID
}

// Create validates and stores a new report.
func (s *ReportService) Create(ctx context.Context, req dto.CreateReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, createValidationError(err)
	}
	if reservedReportIDs[req.ReportID] || strings.ContainsAny(req.ReportID, "/?#") {
		return nil, errBadReportID
	}

	report := &models.Report{
		ID:           uuid.NewString(),
		ReportID:     req.ReportID,
		Type:         models.ReportType(req.Type),
		SpecificType: optional(req.SpecificType),
		Title:        req.Title,
		Description:  req.Description,
		Location:     optional(req.Location),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Image:        optional(req.Image),
		Status:       models.ReportStatus(req.Status),
	}
	if report.Status == "" {
		report.Status = models.ReportStatusPending
	}

	var imageKey string
	if report.Image != nil && s.images != nil && vision.IsDataURL(*report.Image) {
		key, ref, err := s.storeImage(ctx, report, *report.Image)
		if err != nil {
			return nil, err
		}
		imageKey = key
		report.Image = &ref
	}

	if err := s.repo.Create(ctx, report); err != nil {
		if imageKey != "" {
			s.discardImage(context.WithoutCancel(ctx), imageKey)
		}
		if errors.Is(err, repository.ErrDuplicateReportID) {
			return nil, appErrors.WrapAs(errReportExists, err, "")
		}
		s.logger.Error("create report failed", zap.String("report_id", report.ReportID), zap.Error(err))
		return nil, appErrors.WrapAs(errSubmitFailed, err, "")
	}

	s.metrics.ReportCreated(string(report.Type))
	s.logger.Info("report submitted",
		zap.String("report_id", report.ReportID),
		zap.String("type", string(report.Type)),
	)
	return report, nil
}

// storeImage saves the decoded image under a key derived from the internal
// report id, so no client-chosen reportId can address another report's file.
func (s *ReportService) storeImage(ctx context.Context, report *models.Report, dataURL string) (string, string, error) {
	img, err := vision.DecodeDataURL(dataURL)
	if err != nil {
		return "", "", appErrors.WrapAs(errBadImage, err, "")
	}
	key := fmt.Sprintf("reports/%s.%s", report.ID, img.Extension())
	ref, err := s.images.Save(ctx, key, img.Data, img.MIMEType)
	if err != nil {
		s.logger.Error("store report image failed", zap.String("report_id", report.ReportID), zap.Error(err))
		return "", "", appErrors.WrapAs(errSubmitFailed, err, "")
	}
	return key, ref, nil
}

func (s *ReportService) discardImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("discard orphaned report image failed", zap.String("key", key), zap.Error(err))
	}
}

func createValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.WrapAs(errMissingFields, err, "")
	}
	var typeErr, statusErr, coordErr bool
	for _, fe := range verrs {
		switch {
		case fe.Tag() == "notblank":
			return appErrors.WrapAs(errMissingFields, err, "")
		case fe.Field() == "Type":
			typeErr = true
		case fe.Field() == "Status":
			statusErr = true
		case fe.Field() == "Latitude" || fe.Field() == "Longitude":
			coordErr = true
		}
	}
	switch {
	case typeErr:
		return appErrors.WrapAs(errInvalidType, err, "")
	case statusErr:
		return appErrors.WrapAs(errInvalidStatus, err, "")
	case coordErr:
		return appErrors.WrapAs(errInvalidCoords, err, "")
	}
	return appErrors.WrapAs(errMissingFields, err, "")
}

// GetByReportID returns a report by its client-facing identifier, serving
// from the cache when possible.
func (s *ReportService) GetByReportID(ctx context.Context, reportID string) (*models.Report, error) {
	if strings.TrimSpace(reportID) == "" {
		return nil, errReportNotFound
	}
	key := reportCacheKey(reportID)

	var cached models.Report
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	report, err := s.repo.FindByReportID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WrapAs(errReportNotFound, err, "")
		}
		return nil, appErrors.WrapAs(errFetchFailed, err, "")
	}
	_ = s.cache.Set(ctx, key, report, 0)
	return report, nil
}

// UpdateStatus changes the status of a report. rawStatus is the undecoded
// request value so a non-string can be told apart from an unknown status.
func (s *ReportService) UpdateStatus(ctx context.Context, reportID string, rawStatus interface{}, actor string) (*models.Report, error) {
	value, ok := rawStatus.(string)
	if !ok || value == "" {
		return nil, errMissingStatus
	}
	status := models.ReportStatus(value)
	if !status.Valid() {
		return nil, errInvalidStatus
	}

	key := reportCacheKey(reportID)
	_ = s.cache.Invalidate(ctx, key)
	report, err := s.repo.UpdateStatus(ctx, reportID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WrapAs(errReportNotFound, err, "")
		}
		s.logger.Error("update report status failed", zap.String("report_id", reportID), zap.Error(err))
		return nil, appErrors.WrapAs(errUpdateFailed, err, "")
	}

	// A read that started before the update may have re-filled the entry.
	_ = s.cache.Invalidate(ctx, key)
	s.metrics.StatusUpdated(string(status))
	s.logger.Info("report status updated",
		zap.String("report_id", reportID),
		zap.String("status", string(status)),
		zap.String("actor", actor),
	)
	return report, nil
}

// List returns one page of reports for the staff dashboard.
func (s *ReportService) List(ctx context.Context, req dto.ReportListRequest) ([]models.Report, *models.Pagination, error) {
	filter, err := listFilter(req)
	if err != nil {
		return nil, nil, err
	}
	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.WrapAs(errListFailed, err, "")
	}
	return reports, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func listFilter(req dto.ReportListRequest) (models.ReportFilter, error) {
	if req.Status != "" && !req.Status.Valid() {
		return models.ReportFilter{}, errInvalidStatus
	}
	if req.Type != "" && !req.Type.Valid() {
		return models.ReportFilter{}, errInvalidType
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.Limit
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return models.ReportFilter{Status: req.Status, Type: req.Type, Page: page, PageSize: size}, nil
}

// Export renders every report matching the filter as CSV or PDF.
func (s *ReportService) Export(ctx context.Context, req dto.ReportListRequest) (*ExportFile, error) {
	exporter, err := export.ForFormat(req.Format)
	if err != nil {
		return nil, appErrors.WrapAs(errBadFormat, err, "")
	}
	filter, err := listFilter(dto.ReportListRequest{Status: req.Status, Type: req.Type})
	if err != nil {
		return nil, err
	}
	filter.PageSize = maxPageSize

	var all []models.Report
	for len(all) < exportRowLimit {
		batch, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.WrapAs(errExportFailed, err, "")
		}
		all = append(all, batch...)
		if len(batch) == 0 || len(all) >= total {
			break
		}
		filter.Page++
	}

	data, err := exporter.Render(reportDataset(all))
	if err != nil {
		return nil, appErrors.WrapAs(errExportFailed, err, "")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("reports-%s.%s", s.now().UTC().Format("20060102-150405"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        data,
	}, nil
}

func reportDataset(reports []models.Report) export.Dataset {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.ReportID,
			string(r.Type),
			deref(r.SpecificType),
			r.Title,
			string(r.Status),
			deref(r.Location),
			formatCoord(r.Latitude),
			formatCoord(r.Longitude),
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Title:   "Incident Reports",
		Headers: []string{"Report ID", "Type", "Specific Type", "Title", "Status", "Location", "Latitude", "Longitude", "Created At"},
		Rows:    rows,
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
