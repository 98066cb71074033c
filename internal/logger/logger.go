package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. LOG_LEVEL selects the level (default info);
// LOG_FORMAT=pretty switches to the console writer.
func New() zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if os.Getenv("LOG_FORMAT") == "pretty" {
		log = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	}
	return log
}
