package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets the global logrus level and formatter
func ConfigureLogging(level, format string) error {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(parsed)
	log.SetOutput(os.Stdout)

	switch format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}
