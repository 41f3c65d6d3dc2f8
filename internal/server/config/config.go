// Package config handles configuration for the seedpipe server, including
// defaults, a dotenv/environment layer, a JSON overlay and command-line flags.
package config

import (
	"errors"
	"strings"
	"time"
)

// placeholderEmail is the value shipped in the sample .env file.
const placeholderEmail = "your_seedr_email@example.com"

// Config holds runtime settings for the seedpipe server.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP/websocket endpoint.
//   - AppPassword: shared password that unlocks the session channel.
//   - SecretKey / SessionTokenTTL: HMAC secret and lifetime of session tokens.
//   - LogFile / LogLevel: optional rotated log file and minimum level.
//   - PublicDir: directory with the static web UI.
//   - Seedbox*: seedbox account and API base URL.
//   - Storage*: S3-compatible storage settings. Empty keys fall back to the
//     STORAGE_* environment variables and then to the AWS default chain.
//   - InitialPollDelay / PollInterval: seedbox polling schedule.
type Config struct {
	HTTPAddr        string
	AppPassword     string
	SecretKey       string
	SessionTokenTTL time.Duration
	LogFile         string
	LogLevel        string
	PublicDir       string

	SeedboxBaseURL  string
	SeedboxEmail    string
	SeedboxPassword string

	StorageAccessKey     string
	StorageSecretKey     string
	StorageRegion        string
	StorageBucket        string
	StorageEndpoint      string
	StoragePublicBaseURL string
	StoragePartSize      int64

	InitialPollDelay time.Duration
	PollInterval     time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: AppPassword must be overridden in production. An empty SecretKey
// makes the server generate one per process.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.AppPassword = "admin123"
	c.SessionTokenTTL = 12 * time.Hour
	c.LogLevel = "info"
	c.PublicDir = "public"
	c.SeedboxBaseURL = "https://www.seedr.cc"
	c.StorageRegion = "us-east-1"
	c.StorageBucket = "seedpipe"
	c.StoragePartSize = 8 << 20
	c.InitialPollDelay = 3 * time.Second
	c.PollInterval = 4 * time.Second
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SeedboxEmail) == "" || c.SeedboxEmail == placeholderEmail {
		errs = append(errs, errors.New("seedbox email is not set"))
	}
	if c.SeedboxPassword == "" {
		errs = append(errs, errors.New("seedbox password is not set"))
	}
	if c.StorageBucket == "" {
		errs = append(errs, errors.New("storage bucket is not set"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the dotenv file and environment, an optional JSON file and finally
// command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
