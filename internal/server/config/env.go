package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/seedpipe/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv loads the dotenv file named by -env (".env" by default) into the
// process environment and copies recognised variables into config. A missing
// dotenv file is not an error; variables already set in the environment win
// over the file.
//
// Recognised variables:
//
//	PORT, HTTP_ADDR, APP_PASSWORD, SECRET_KEY, LOG_FILE, LOG_LEVEL,
//	SEEDR_BASE_URL, SEEDR_EMAIL, SEEDR_PASSWORD,
//	STORAGE_BUCKET, STORAGE_ENDPOINT, STORAGE_PUBLIC_BASE_URL,
//	POLL_INTERVAL, INITIAL_POLL_DELAY
func parseEnv(config *Config) {
	_ = godotenv.Load(flagx.EnvFileFlags())

	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		config.HTTPAddr = ":" + port
	}
	setFromEnv(&config.HTTPAddr, "HTTP_ADDR")
	setFromEnv(&config.AppPassword, "APP_PASSWORD")
	setFromEnv(&config.SecretKey, "SECRET_KEY")
	setFromEnv(&config.LogFile, "LOG_FILE")
	setFromEnv(&config.LogLevel, "LOG_LEVEL")

	setFromEnv(&config.SeedboxBaseURL, "SEEDR_BASE_URL")
	setFromEnv(&config.SeedboxEmail, "SEEDR_EMAIL")
	setFromEnv(&config.SeedboxPassword, "SEEDR_PASSWORD")

	setFromEnv(&config.StorageBucket, "STORAGE_BUCKET")
	setFromEnv(&config.StorageEndpoint, "STORAGE_ENDPOINT")
	setFromEnv(&config.StoragePublicBaseURL, "STORAGE_PUBLIC_BASE_URL")

	setDurationFromEnv(&config.PollInterval, "POLL_INTERVAL")
	setDurationFromEnv(&config.InitialPollDelay, "INITIAL_POLL_DELAY")
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// setDurationFromEnv accepts Go durations ("4s") or whole seconds ("4").
func setDurationFromEnv(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
	}
}
