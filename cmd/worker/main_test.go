package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workerPkg "newscrawl/internal/infra/worker"
	"newscrawl/internal/usecase/crawl"
)

type stubRunner struct {
	err error
}

func (r stubRunner) RunCycle(context.Context) (*crawl.CycleStats, error) {
	return &crawl.CycleStats{CycleID: "c-1", Start: time.Now()}, r.err
}

func newOnceScheduler(t *testing.T, runner workerPkg.CycleRunner) *workerPkg.Scheduler {
	t.Helper()
	cfg := workerPkg.DefaultConfig()
	cfg.RunOnStart = false
	metrics := workerPkg.NewWorkerMetricsWith(prometheus.NewRegistry())
	s, err := workerPkg.NewScheduler(runner, cfg, metrics, discardLogger())
	require.NoError(t, err)
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_ExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "cycle succeeded", want: 0},
		{name: "run log not written", err: errors.New("append run log: connection refused"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newOnceScheduler(t, stubRunner{err: tt.err})
			assert.Equal(t, tt.want, runOnce(context.Background(), discardLogger(), s))
		})
	}
}

func TestLoadCrawlConfig_MissingExplicitFileIsAnError(t *testing.T) {
	t.Setenv("CRAWL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := loadCrawlConfig(discardLogger())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
