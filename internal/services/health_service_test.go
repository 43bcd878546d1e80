package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"margincli/internal/config"
	"margincli/internal/costs"
)

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.3", "", config.PathsConfig{}, nil, nil, nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	costSvc := NewCostService(costs.NewMemoryStore(costs.Mapping{"Widget": 1}), nil)
	require.NoError(t, costSvc.Reload(context.Background()))

	paths := config.PathsConfig{DataDir: t.TempDir()}
	hs := NewHealthService("1.0.0", "", paths, costSvc, nil, nil)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)

	costHealth, ok := status.Services["costs"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", costHealth.Status)
}

func TestHealthService_ReadinessCheckMissingDataDir(t *testing.T) {
	costSvc := NewCostService(costs.NewMemoryStore(nil), nil)
	paths := config.PathsConfig{DataDir: "/nonexistent/margin-pulse-data"}
	hs := NewHealthService("1.0.0", "", paths, costSvc, nil, nil)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("1.0.0", "2026-01-01T00:00:00Z", config.PathsConfig{}, nil, nil, nil)

	liveness := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", liveness.Status)
	assert.Contains(t, liveness.Runtime, "go_version")

	version := hs.Version()
	assert.Equal(t, "1.0.0", version["version"])
	assert.Equal(t, "2026-01-01T00:00:00Z", version["build_time"])
}
