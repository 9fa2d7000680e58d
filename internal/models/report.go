package models

import (
	"strings"
	"time"
)

// ReportType is the incident category chosen at submission.
type ReportType string

const (
	ReportTypeTheft            ReportType = "Theft"
	ReportTypeFireOutbreak     ReportType = "Fire Outbreak"
	ReportTypeMedicalEmergency ReportType = "Medical Emergency"
	ReportTypeNaturalDisaster  ReportType = "Natural Disaster"
	ReportTypeViolence         ReportType = "Violence"
	ReportTypeOther            ReportType = "Other"
)

// ReportTypes lists every accepted report type in display order.
var ReportTypes = []ReportType{
	ReportTypeTheft,
	ReportTypeFireOutbreak,
	ReportTypeMedicalEmergency,
	ReportTypeNaturalDisaster,
	ReportTypeViolence,
	ReportTypeOther,
}

// Valid reports whether t is a declared report type.
func (t ReportType) Valid() bool {
	for _, known := range ReportTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ReportStatus is the staff-managed lifecycle state. Any status may follow any other.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "PENDING"
	ReportStatusInProgress ReportStatus = "IN_PROGRESS"
	ReportStatusResolved   ReportStatus = "RESOLVED"
	ReportStatusDismissed  ReportStatus = "DISMISSED"
)

// ReportStatuses lists every accepted status.
var ReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusInProgress,
	ReportStatusResolved,
	ReportStatusDismissed,
}

// Valid reports whether s is a declared status.
func (s ReportStatus) Valid() bool {
	for _, known := range ReportStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// AllowedStatuses renders the status set for error messages.
func AllowedStatuses() string {
	names := make([]string, len(ReportStatuses))
	for i, s := range ReportStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Report is a submitted incident. ReportID is the client-facing identifier;
// ID is the internal primary key.
type Report struct {
	ID           string       `db:"id" json:"id"`
	ReportID     string       `db:"report_id" json:"reportId"`
	Type         ReportType   `db:"type" json:"type"`
	SpecificType *string      `db:"report_type" json:"reportType"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	Location     *string      `db:"location" json:"location"`
	Latitude     *float64     `db:"latitude" json:"latitude"`
	Longitude    *float64     `db:"longitude" json:"longitude"`
	Image        *string      `db:"image" json:"image"`
	Status       ReportStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}

// ReportFilter narrows staff listings.
type ReportFilter struct {
	Status   ReportStatus
	Type     ReportType
	Page     int
	PageSize int
}

// Pagination describes the page returned by list endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
