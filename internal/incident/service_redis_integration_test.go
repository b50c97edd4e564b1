//go:build integration

package incident_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"talenttrack/internal/incident"
	"talenttrack/pkg/testutil/containers"
)

func TestOpenCounts_RedisCacheLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rds := containers.NewRedisContainer(t)

	store := incident.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := incident.NewService(store, rds.Client, time.Minute, logger)

	require.NoError(t, store.Append(ctx, incident.New(incident.SeverityWarning, "possible duplicate", nil, nil)))

	counts, err := svc.OpenCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, incident.OpenCounts{Warnings: 1}, counts)

	// Append behind the service's back: the cached badge is served stale
	// until something invalidates it.
	require.NoError(t, store.Append(ctx, incident.New(incident.SeverityError, "no email found", nil, nil)))

	counts, err = svc.OpenCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, incident.OpenCounts{Warnings: 1}, counts)

	svc.InvalidateCounts(ctx)

	counts, err = svc.OpenCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, incident.OpenCounts{Errors: 1, Warnings: 1}, counts)
}

func TestResolve_InvalidatesCachedCounts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rds := containers.NewRedisContainer(t)

	store := incident.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := incident.NewService(store, rds.Client, time.Minute, logger)

	inc := incident.New(incident.SeverityWarning, "possible duplicate", nil, nil)
	require.NoError(t, store.Append(ctx, inc))

	counts, err := svc.OpenCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, incident.OpenCounts{Warnings: 1}, counts)

	require.NoError(t, svc.Resolve(ctx, inc.ID))

	counts, err = svc.OpenCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, incident.OpenCounts{}, counts)
}
