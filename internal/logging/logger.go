package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the kiosk's structured logger. Development gets a colored
// console writer; production writes plain JSON lines.
func New(appName, env string) zerolog.Logger {
	var logger zerolog.Logger
	if env == "production" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
	return logger.With().
		Timestamp().
		Str("app", appName).
		Str("env", env).
		Logger()
}
