package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anonreport/incident-api/internal/dto"
	"github.com/anonreport/incident-api/pkg/response"
)

type imageAnalyzer interface {
	Analyze(ctx context.Context, dataURL string) (*dto.ImageAnalysis, error)
}

// AnalysisHandler suggests report fields from an image.
type AnalysisHandler struct {
	analyzer imageAnalyzer
}

// NewAnalysisHandler constructs handler.
func NewAnalysisHandler(analyzer imageAnalyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// AnalyzeImage godoc
// @Summary Classify an incident image
// @Tags Analysis
// @Accept json
// @Produce json
// @Param payload body dto.AnalyzeImageRequest true "Image as a data URL"
// @Success 200 {object} dto.ImageAnalysis
// @Failure 400 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /analyze-image [post]
func (h *AnalysisHandler) AnalyzeImage(c *gin.Context) {
	var req dto.AnalyzeImageRequest
	_ = c.ShouldBindJSON(&req)

	analysis, err := h.analyzer.Analyze(c.Request.Context(), req.Image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis)
}
