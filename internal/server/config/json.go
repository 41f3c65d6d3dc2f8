package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/seedpipe/internal/flagx"
	"github.com/dmitrijs2005/seedpipe/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "4s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. Fields left out of the file keep their previous values.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	AppPassword     string         `json:"app_password"`
	SecretKey       string         `json:"secret_key"`
	SessionTokenTTL timex.Duration `json:"session_token_ttl"`
	LogFile         string         `json:"log_file"`
	LogLevel        string         `json:"log_level"`
	PublicDir       string         `json:"public_dir"`

	SeedboxBaseURL  string `json:"seedbox_base_url"`
	SeedboxEmail    string `json:"seedbox_email"`
	SeedboxPassword string `json:"seedbox_password"`

	StorageAccessKey     string `json:"storage_access_key"`
	StorageSecretKey     string `json:"storage_secret_key"`
	StorageRegion        string `json:"storage_region"`
	StorageBucket        string `json:"storage_bucket"`
	StorageEndpoint      string `json:"storage_endpoint"`
	StoragePublicBaseURL string `json:"storage_public_base_url"`
	StoragePartSize      int64  `json:"storage_part_size"`

	InitialPollDelay timex.Duration `json:"initial_poll_delay"`
	PollInterval     timex.Duration `json:"poll_interval"`
}

// parseJson loads configuration values from the JSON file given via the -c
// or -config flags. Without the flag nothing is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	overlay(&config.HTTPAddr, c.HTTPAddr)
	overlay(&config.AppPassword, c.AppPassword)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.SessionTokenTTL, c.SessionTokenTTL.Duration)
	overlay(&config.LogFile, c.LogFile)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.PublicDir, c.PublicDir)

	overlay(&config.SeedboxBaseURL, c.SeedboxBaseURL)
	overlay(&config.SeedboxEmail, c.SeedboxEmail)
	overlay(&config.SeedboxPassword, c.SeedboxPassword)

	overlay(&config.StorageAccessKey, c.StorageAccessKey)
	overlay(&config.StorageSecretKey, c.StorageSecretKey)
	overlay(&config.StorageRegion, c.StorageRegion)
	overlay(&config.StorageBucket, c.StorageBucket)
	overlay(&config.StorageEndpoint, c.StorageEndpoint)
	overlay(&config.StoragePublicBaseURL, c.StoragePublicBaseURL)
	overlay(&config.StoragePartSize, c.StoragePartSize)

	overlay(&config.InitialPollDelay, c.InitialPollDelay.Duration)
	overlay(&config.PollInterval, c.PollInterval.Duration)
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
