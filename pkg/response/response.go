package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anonreport/incident-api/internal/models"
	appErrors "github.com/anonreport/incident-api/pkg/errors"
)

// ErrorBody is the error contract shared by all endpoints.
type ErrorBody struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
}

// ListEnvelope wraps paginated collections.
type ListEnvelope struct {
	Data       interface{}        `json:"data"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON writes data as the response body without an envelope.
func JSON(c *gin.Context, status int, data interface{}) {
	noStore(c)
	c.JSON(status, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// List writes a collection together with its pagination metadata.
func List(c *gin.Context, data interface{}, pagination *models.Pagination) {
	JSON(c, http.StatusOK, ListEnvelope{Data: data, Pagination: pagination})
}

// Error writes {"error": message}. Wrapped causes are never exposed and are
// attached to the gin context so the request logger can record them.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	attach(c, appErr)
	noStore(c)
	c.JSON(appErr.Status, ErrorBody{Error: appErr.Message})
}

// Failure writes {"success": false, "error": message} for endpoints whose
// success body carries a success flag.
func Failure(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	attach(c, appErr)
	noStore(c)
	success := false
	c.JSON(appErr.Status, ErrorBody{Success: &success, Error: appErr.Message})
}

func attach(c *gin.Context, appErr *appErrors.Error) {
	if appErr.Status >= http.StatusInternalServerError && appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
