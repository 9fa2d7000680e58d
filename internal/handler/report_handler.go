package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anonreport/incident-api/internal/dto"
	"github.com/anonreport/incident-api/internal/models"
	"github.com/anonreport/incident-api/internal/service"
	appErrors "github.com/anonreport/incident-api/pkg/errors"
	"github.com/anonreport/incident-api/pkg/response"
)

const reportSubmittedMessage = "Report submitted successfully"

type reportService interface {
	Create(ctx context.Context, req dto.CreateReportRequest) (*models.Report, error)
	GetByReportID(ctx context.Context, reportID string) (*models.Report, error)
	UpdateStatus(ctx context.Context, reportID string, rawStatus interface{}, actor string) (*models.Report, error)
	List(ctx context.Context, req dto.ReportListRequest) ([]models.Report, *models.Pagination, error)
	Export(ctx context.Context, req dto.ReportListRequest) (*service.ExportFile, error)
}

// ReportHandler exposes the report lifecycle endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Create godoc
// @Summary Submit an incident report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} dto.CreateReportResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /reports/create [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Failure(c, appErrors.WrapAs(appErrors.ErrValidation, err, "Invalid request body"))
		return
	}
	report, err := h.reports.Create(c.Request.Context(), req)
	if err != nil {
		response.Failure(c, err)
		return
	}
	response.Created(c, dto.CreateReportResponse{
		Success:  true,
		ReportID: report.ReportID,
		Message:  reportSubmittedMessage,
	})
}

// Get godoc
// @Summary Get report details
// @Tags Reports
// @Produce json
// @Param reportId path string true "Report ID"
// @Success 200 {object} models.Report
// @Failure 404 {object} response.ErrorBody
// @Router /reports/{reportId} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.GetByReportID(c.Request.Context(), c.Param("reportId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// UpdateStatus godoc
// @Summary Update report status
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reportId path string true "Report ID"
// @Param payload body dto.UpdateReportStatusRequest true "New status"
// @Success 200 {object} models.Report
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /reports/{reportId} [patch]
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Status = nil
	}
	report, err := h.reports.UpdateStatus(c.Request.Context(), c.Param("reportId"), req.Status, sessionFromContext(c).Actor())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// List godoc
// @Summary List reports
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.ListEnvelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	req, err := listRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	reports, pagination, err := h.reports.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, reports, pagination)
}

// Export godoc
// @Summary Export reports
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Success 200 {file} file
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	req, err := listRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.reports.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func listRequest(c *gin.Context) (dto.ReportListRequest, error) {
	req := dto.ReportListRequest{
		Status: models.ReportStatus(c.Query("status")),
		Type:   models.ReportType(c.Query("type")),
		Format: c.Query("format"),
	}
	var err error
	if req.Page, err = intQuery(c, "page"); err != nil {
		return req, err
	}
	if req.Limit, err = intQuery(c, "limit"); err != nil {
		return req, err
	}
	return req, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.WrapAs(appErrors.ErrValidation, err, fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}
