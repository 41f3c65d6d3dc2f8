package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "HTTP_ADDR", "APP_PASSWORD", "SECRET_KEY", "LOG_FILE", "LOG_LEVEL",
		"SEEDR_BASE_URL", "SEEDR_EMAIL", "SEEDR_PASSWORD",
		"STORAGE_BUCKET", "STORAGE_ENDPOINT", "STORAGE_PUBLIC_BASE_URL",
		"POLL_INTERVAL", "INITIAL_POLL_DELAY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":3000", c.HTTPAddr)
	assert.Equal(t, "admin123", c.AppPassword)
	assert.Empty(t, c.SecretKey)
	assert.Equal(t, 12*time.Hour, c.SessionTokenTTL)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "public", c.PublicDir)
	assert.Equal(t, "https://www.seedr.cc", c.SeedboxBaseURL)
	assert.Equal(t, "us-east-1", c.StorageRegion)
	assert.Equal(t, "seedpipe", c.StorageBucket)
	assert.Equal(t, int64(8<<20), c.StoragePartSize)
	assert.Equal(t, 3*time.Second, c.InitialPollDelay)
	assert.Equal(t, 4*time.Second, c.PollInterval)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-env", "does-not-exist.env"}
	clearEnv(t)

	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, ":3000", c.HTTPAddr)
	assert.Equal(t, "https://www.seedr.cc", c.SeedboxBaseURL)
	assert.Equal(t, 3*time.Second, c.InitialPollDelay)
	assert.Equal(t, 4*time.Second, c.PollInterval)
	assert.Equal(t, 12*time.Hour, c.SessionTokenTTL)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.LoadDefaults()
		c.SeedboxEmail = "me@example.org"
		c.SeedboxPassword = "pw"
		return c
	}

	t.Run("ok", func(t *testing.T) {
		c := valid()
		assert.NoError(t, c.Validate())
	})

	t.Run("missing email", func(t *testing.T) {
		c := valid()
		c.SeedboxEmail = ""
		assert.ErrorContains(t, c.Validate(), "seedbox email")
	})

	t.Run("placeholder email", func(t *testing.T) {
		c := valid()
		c.SeedboxEmail = "your_seedr_email@example.com"
		assert.ErrorContains(t, c.Validate(), "seedbox email")
	})

	t.Run("missing password and bucket", func(t *testing.T) {
		c := valid()
		c.SeedboxPassword = ""
		c.StorageBucket = ""
		err := c.Validate()
		assert.ErrorContains(t, err, "seedbox password")
		assert.ErrorContains(t, err, "storage bucket")
	})

	t.Run("non-positive interval", func(t *testing.T) {
		c := valid()
		c.PollInterval = 0
		assert.ErrorContains(t, c.Validate(), "poll interval")
	})
}
