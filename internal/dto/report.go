package dto

import "github.com/anonreport/incident-api/internal/models"

// CreateReportRequest captures POST /reports/create payload.
type CreateReportRequest struct {
	ReportID     string   `json:"reportId" validate:"notblank"`
	Type         string   `json:"type" validate:"notblank,report_type"`
	SpecificType string   `json:"specificType"`
	Title        string   `json:"title" validate:"notblank"`
	Description  string   `json:"description" validate:"notblank"`
	Location     string   `json:"location"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`
	Image        string   `json:"image"`
	Status       string   `json:"status" validate:"omitempty,report_status"`
}

// CreateReportResponse is returned once a report is stored.
type CreateReportResponse struct {
	Success  bool   `json:"success"`
	ReportID string `json:"reportId"`
	Message  string `json:"message"`
}

// UpdateReportStatusRequest captures PATCH /reports/{reportId}. Status is
// decoded loosely so a non-string value can be rejected with a clear message.
type UpdateReportStatusRequest struct {
	Status interface{} `json:"status"`
}

// ReportListRequest carries staff listing filters.
type ReportListRequest struct {
	Status models.ReportStatus
	Type   models.ReportType
	Page   int
	Limit  int
	Format string
}

// AnalyzeImageRequest captures POST /analyze-image payload.
type AnalyzeImageRequest struct {
	Image string `json:"image"`
}

// ImageAnalysis is the structured reading of a classifier reply. Fields the
// model omitted are empty strings.
type ImageAnalysis struct {
	Title       string `json:"title"`
	ReportType  string `json:"reportType"`
	Description string `json:"description"`
}
