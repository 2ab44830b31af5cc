package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvPrefersLoadedMap(t *testing.T) {
	Env = map[string]string{"FYLE_API_URL": "https://from-file"}
	t.Setenv("FYLE_API_URL", "https://from-os")
	defer func() { Env = nil }()

	assert.Equal(t, "https://from-file", GetEnv("FYLE_API_URL", "default"))
}

func TestGetEnvFallsBackToOSAndDefault(t *testing.T) {
	Env = map[string]string{}
	defer func() { Env = nil }()

	t.Setenv("APP_PORT", "4100")
	assert.Equal(t, "4100", GetEnv("APP_PORT", "4000"))
	assert.Equal(t, "fallback", GetEnv("SOME_UNSET_KEY_FOR_TEST", "fallback"))
}

func TestGetEnvIntAndDuration(t *testing.T) {
	Env = map[string]string{
		"JOBQUEUE_WORKERS":    "7",
		"BROKEN_INT":          "seven",
		"DASHBOARD_CACHE_TTL": "90s",
		"BROKEN_DURATION":     "soon",
	}
	defer func() { Env = nil }()

	assert.Equal(t, 7, GetEnvInt("JOBQUEUE_WORKERS", 3))
	assert.Equal(t, 3, GetEnvInt("BROKEN_INT", 3))
	assert.Equal(t, 90*time.Second, GetEnvDuration("DASHBOARD_CACHE_TTL", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("BROKEN_DURATION", time.Minute))
}

func TestIsDev(t *testing.T) {
	Env = map[string]string{"APP_ENV": "dev"}
	assert.True(t, IsDev())
	Env = map[string]string{"APP_ENV": "prod"}
	assert.False(t, IsDev())
	Env = nil
}
