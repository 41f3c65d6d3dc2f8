package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/seedpipe/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-p string   application password
//	-s string   session token HMAC secret
//	-t int      session token validity, minutes
//	-l string   log file path
//	-v string   log level
//	-w string   static UI directory
//	-r string   seedbox base URL
//	-m string   seedbox account email
//	-k string   seedbox account password
//	-u string   storage access key
//	-x string   storage secret key
//	-g string   storage region
//	-b string   storage bucket
//	-e string   storage endpoint (e.g., "http://127.0.0.1:9000/")
//	-o string   storage public base URL
//	-i int      poll interval, seconds
//	-d int      initial poll delay, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with -c and -env.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-p", "-s", "-t", "-l", "-v", "-w",
		"-r", "-m", "-k",
		"-u", "-x", "-g", "-b", "-e", "-o",
		"-i", "-d",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.AppPassword, "p", config.AppPassword, "application password")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionTokenTTL := fs.Int("t", int(config.SessionTokenTTL.Minutes()), "session token validity (in minutes)")
	fs.StringVar(&config.LogFile, "l", config.LogFile, "log file")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.PublicDir, "w", config.PublicDir, "static UI directory")

	fs.StringVar(&config.SeedboxBaseURL, "r", config.SeedboxBaseURL, "seedbox base URL")
	fs.StringVar(&config.SeedboxEmail, "m", config.SeedboxEmail, "seedbox email")
	fs.StringVar(&config.SeedboxPassword, "k", config.SeedboxPassword, "seedbox password")

	fs.StringVar(&config.StorageAccessKey, "u", config.StorageAccessKey, "storage access key")
	fs.StringVar(&config.StorageSecretKey, "x", config.StorageSecretKey, "storage secret key")
	fs.StringVar(&config.StorageRegion, "g", config.StorageRegion, "storage region")
	fs.StringVar(&config.StorageBucket, "b", config.StorageBucket, "storage bucket")
	fs.StringVar(&config.StorageEndpoint, "e", config.StorageEndpoint, "storage endpoint")
	fs.StringVar(&config.StoragePublicBaseURL, "o", config.StoragePublicBaseURL, "storage public base URL")

	pollInterval := fs.Int("i", int(config.PollInterval.Seconds()), "poll interval (in seconds)")
	initialPollDelay := fs.Int("d", int(config.InitialPollDelay.Seconds()), "initial poll delay (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Durations are only touched when given, so sub-second values from JSON survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionTokenTTL = time.Duration(*sessionTokenTTL) * time.Minute
		case "i":
			config.PollInterval = time.Duration(*pollInterval) * time.Second
		case "d":
			config.InitialPollDelay = time.Duration(*initialPollDelay) * time.Second
		}
	})
}
