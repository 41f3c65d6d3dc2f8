package config

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/seedpipe/internal/flagx"
)

// Config holds runtime settings for the seedpipe CLI.
//
// Fields:
//   - ServerURL: base URL of the seedpipe server, e.g. http://127.0.0.1:3000.
//   - RequestTimeout: limit for the password check and the websocket dial.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// MagnetArg returns the first positional argument, skipping the values of
// the CLI's own flags. An empty result means the magnet must be prompted for.
func MagnetArg(args []string) string {
	pos := flagx.Positional(args, []string{"-a", "-i", "-c", "-config"})
	if len(pos) == 0 {
		return ""
	}
	return strings.TrimSpace(pos[0])
}
