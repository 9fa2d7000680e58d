package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anonreport/incident-api/internal/dto"
	appErrors "github.com/anonreport/incident-api/pkg/errors"
	"github.com/anonreport/incident-api/pkg/vision"
)

const (
	// ClassifierAttempts is the total number of calls made per analysis.
	ClassifierAttempts = 3
	// ClassifierRetryDelay is the fixed wait after a rate-limited call.
	ClassifierRetryDelay = 30 * time.Second

	classifierOutcomeSuccess     = "success"
	classifierOutcomeRateLimited = "rate_limited"
	classifierOutcomeError       = "error"
)

const analysisPrompt = `Analyze this emergency situation image and respond in this exact format without any asterisks or bullet points:
TITLE: Write a clear, brief title
TYPE: Choose one (Theft, Fire Outbreak, Medical Emergency, Natural Disaster, Violence, or Other)
DESCRIPTION: Write a clear, concise description`

var (
	titlePattern       = regexp.MustCompile(`TITLE:\s*(.+)`)
	typePattern        = regexp.MustCompile(`TYPE:\s*(.+)`)
	descriptionPattern = regexp.MustCompile(`DESCRIPTION:\s*(.+)`)
)

var (
	errAnalysisFailed = appErrors.Clone(appErrors.ErrInternal, "Failed to analyze image")
	errInvalidImage   = appErrors.Clone(appErrors.ErrValidation, "Invalid or missing 'image' in request body")
)

// ImageGenerator produces free text for a prompt and an image.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, img vision.Image) (string, error)
}

// ClassifierService turns an image into a suggested title, type and
// description using a generative model.
type ClassifierService struct {
	generator ImageGenerator
	metrics   *MetricsService
	logger    *zap.Logger
	attempts  int
	delay     time.Duration
}

// NewClassifierService constructs the service with the production retry policy.
func NewClassifierService(generator ImageGenerator, metrics *MetricsService, logger *zap.Logger) *ClassifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifierService{
		generator: generator,
		metrics:   metrics,
		logger:    logger,
		attempts:  ClassifierAttempts,
		delay:     ClassifierRetryDelay,
	}
}

// Analyze decodes the data URL, asks the model to describe the image and
// parses the reply. Malformed input is a validation error; any upstream
// failure is reported as "Failed to analyze image".
func (s *ClassifierService) Analyze(ctx context.Context, dataURL string) (*dto.ImageAnalysis, error) {
	if strings.TrimSpace(dataURL) == "" {
		return nil, errInvalidImage
	}
	img, err := vision.DecodeDataURL(dataURL)
	if err != nil {
		return nil, appErrors.WrapAs(errInvalidImage, err, "")
	}
	if s.generator == nil {
		return nil, appErrors.WrapAs(errAnalysisFailed, errors.New("image classifier not configured"), "")
	}

	text, err := s.generate(ctx, img)
	if err != nil {
		s.logger.Error("image analysis failed", zap.Error(err))
		return nil, appErrors.WrapAs(errAnalysisFailed, err, "")
	}
	analysis := ParseAnalysis(text)
	return &analysis, nil
}

// generate calls the model, retrying only when it reports a rate limit.
func (s *ClassifierService) generate(ctx context.Context, img vision.Image) (string, error) {
	attempts := s.attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := s.generator.Generate(ctx, analysisPrompt, img)
		if err == nil {
			s.metrics.ClassifierAttempt(classifierOutcomeSuccess)
			return text, nil
		}
		lastErr = err
		if !errors.Is(err, vision.ErrRateLimited) {
			s.metrics.ClassifierAttempt(classifierOutcomeError)
			return "", err
		}
		s.metrics.ClassifierAttempt(classifierOutcomeRateLimited)
		if attempt == attempts {
			break
		}
		s.logger.Warn("classifier rate limited, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", s.delay),
		)
		if err := wait(ctx, s.delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseAnalysis extracts the labelled fields from a model reply. Each field
// is the trimmed remainder of the first line carrying its label; a missing
// label yields an empty string.
func ParseAnalysis(text string) dto.ImageAnalysis {
	return dto.ImageAnalysis{
		Title:       firstMatch(titlePattern, text),
		ReportType:  firstMatch(typePattern, text),
		Description: firstMatch(descriptionPattern, text),
	}
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
