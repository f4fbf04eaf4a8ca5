package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/draped/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   API origin, e.g. http://localhost:8081
//	-i int      job polling interval in milliseconds
//	-db string  session database file
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-db"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIOrigin, "a", cfg.APIOrigin, "API origin")
	fs.StringVar(&cfg.SessionDBPath, "db", cfg.SessionDBPath, "session database file")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Milliseconds()), "job polling interval (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *pollInterval > 0 {
		cfg.PollInterval = time.Duration(*pollInterval) * time.Millisecond
	}
}
