package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/anonreport/incident-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestErrorHidesCause(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.WrapAs(appErrors.ErrInternal, errors.New("pq: connection refused"), "Failed to fetch report details"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"error": "Failed to fetch report details"}, body)
	assert.Len(t, c.Errors, 1)
}

func TestFailureIncludesSuccessFlag(t *testing.T) {
	c, w := newContext()
	Failure(c, appErrors.Clone(appErrors.ErrValidation, "Missing required fields"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Missing required fields"}`, w.Body.String())
	assert.Empty(t, c.Errors)
}

func TestPlainErrorDefaultsToInternal(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("unexpected"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
