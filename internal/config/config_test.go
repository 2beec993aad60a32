package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcraw4d/loadgen/internal/observability"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.validate())
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ParsesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
execution:
  drainTimeout: 5s
  forceTimeout: 1s
  defaultThreadPool: platform
  platformThreadPoolSize: 8
observability:
  tracingEnabled: true
  metricsEnabled: true
  structuredLogging: true
  tracingSampleRate: 0.5
  logLevel: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Execution.DrainTimeout)
	assert.Equal(t, ThreadPoolPlatform, cfg.Execution.DefaultThreadPool)
	assert.Equal(t, 8, cfg.Execution.PlatformThreadPoolSize)
	assert.Equal(t, 0.5, cfg.Observability.TracingSampleRate)
}

func TestLoad_RejectsInvalidSampleRate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("observability:\n  tracingSampleRate: 1.5\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsUnknownThreadPoolMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("execution:\n  defaultThreadPool: quantum\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestResolvedPlatformPoolSize_AutoUsesNumCPU(t *testing.T) {
	cfg := Default()
	cfg.Execution.PlatformThreadPoolSize = -1
	assert.Greater(t, cfg.ResolvedPlatformPoolSize(), 0)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("observability:\n  logLevel: info\n"), 0o644))

	w := NewWatcher(path, observability.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("observability:\n  logLevel: debug\n"), 0o644))

	select {
	case cfg := <-w.Updates:
		assert.Equal(t, "debug", cfg.Observability.LogLevel)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
