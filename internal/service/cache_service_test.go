package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonreport/incident-api/internal/models"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("redis down")
}

func (failingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("redis down")
}

func (failingCacheRepo) Delete(ctx context.Context, keys ...string) error {
	return errors.New("redis down")
}

func TestCacheServiceDisabled(t *testing.T) {
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	hit, err := nilSvc.Get(context.Background(), "k", &models.Report{})
	assert.False(t, hit)
	assert.NoError(t, err)
	assert.NoError(t, nilSvc.Set(context.Background(), "k", &models.Report{}, 0))
	assert.NoError(t, nilSvc.Invalidate(context.Background(), "k"))

	svc := NewCacheService(nil, nil, 0, nil)
	assert.False(t, svc.Enabled())
}

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, nil)
	ctx := context.Background()

	var dest models.Report
	hit, err := svc.Get(ctx, "report:1", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "report:1", &models.Report{ReportID: "1"}, 0))
	hit, err = svc.Get(ctx, "report:1", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "1", dest.ReportID)

	body := scrape(t, metrics)
	assert.Contains(t, body, "cache_hits_total 1")
	assert.Contains(t, body, "cache_misses_total 1")
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	svc := NewCacheService(failingCacheRepo{}, nil, time.Minute, nil)
	ctx := context.Background()

	hit, err := svc.Get(ctx, "k", &models.Report{})
	assert.False(t, hit)
	assert.Error(t, err)
	assert.Error(t, svc.Set(ctx, "k", &models.Report{}, 0))
	assert.Error(t, svc.Invalidate(ctx, "k"))
}
