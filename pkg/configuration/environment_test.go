package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "PROVIDER_PORTAL_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "provider")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(sub))

	_ = os.Unsetenv("PROVIDER_PORTAL_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("PROVIDER_PORTAL_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("PROVIDER_PORTAL_TEST_ENV_LOAD"))
}

func TestLoad_SyncDefaults(t *testing.T) {
	conf, err := Load()
	require.NoError(t, err)
	t.Cleanup(conf.Unload)

	require.False(t, conf.Sync.SchedulerEnabled)
	require.Equal(t, "0 0 7 * * *", conf.Sync.Cron)
	require.False(t, conf.Sync.RunOnStartup)
	require.False(t, conf.Sync.ApplyDeactivations)
	require.Equal(t, "pda-sync", conf.Lane.Name)
	require.Equal(t, 2, conf.Lane.QueueCapacity)
	require.Equal(t, 30*time.Second, conf.Lane.ShutdownTimeout)
	require.Equal(t, 30*time.Second, conf.Registry.ReadTimeout)
	require.Equal(t, 6, conf.RateLimit.TriggerPerMinute)
	require.NotNil(t, conf.Logger())
}

func TestLoad_SchedulerRequiresRegistry(t *testing.T) {
	t.Setenv("SYNC_SCHEDULER_ENABLED", "true")
	t.Setenv("PDA_BASE_URL", "")
	t.Setenv("PDA_USE_LOCAL_FILE", "false")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "SYNC_SCHEDULER_ENABLED")
}

func TestRegistryOptions_Validate(t *testing.T) {
	opts := RegistryOptions{BaseURL: "ftp://registry"}
	require.Error(t, opts.Validate())

	opts = RegistryOptions{BaseURL: "https://pda.example"}
	require.NoError(t, opts.Validate())
	require.True(t, opts.Configured())

	opts = RegistryOptions{UseLocalFile: true}
	require.Error(t, opts.Validate())
}

func TestLogrusLogLevel(t *testing.T) {
	c := &Configuration{LogLevel: "info"}
	require.Equal(t, logrus.InfoLevel, c.LogrusLogLevel())
	c.LogLevel = "bogus"
	require.Equal(t, logrus.ErrorLevel, c.LogrusLogLevel())
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_RejectsEmptyLaneQueue(t *testing.T) {
	t.Setenv("LANE_QUEUE_CAPACITY", "0")

	_, err := Load()
	require.ErrorContains(t, err, "LANE_QUEUE_CAPACITY=0")
}

func TestRateLimitOptions_Validate(t *testing.T) {
	opts := RateLimitOptions{Storage: "memory", TriggerPerMinute: 6}
	require.NoError(t, opts.Validate())

	opts.TriggerPerMinute = -1
	require.ErrorContains(t, opts.Validate(), "TriggerPerMinute")

	opts = RateLimitOptions{Storage: "redis"}
	require.ErrorContains(t, opts.Validate(), "RedisURL")

	opts = RateLimitOptions{Storage: "disk"}
	require.Error(t, opts.Validate())
}
