package logging

import (
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Source tags attached to every logger.
const (
	SourceApp        = "app"
	SourceWebRequest = "web_request"
	SourceDB         = "db"
	SourceEngine     = "engine"
	SourceCatalog    = "catalog"
)

var (
	initOnce   sync.Once
	baseLogger *log.Logger
)

// Init configures the base logger and routes the stdlib logger through it.
// LOG_LEVEL (debug, info, warn, error) is read once.
func Init() {
	initOnce.Do(func() {
		baseLogger = log.NewWithOptions(os.Stdout, log.Options{
			TimeFunction:    log.NowUTC,
			TimeFormat:      time.RFC3339Nano,
			Level:           levelFromEnv(os.Getenv("LOG_LEVEL")),
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})

		stdLogger := baseLogger.With("source", SourceApp).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})

		stdlog.SetFlags(0)
		stdlog.SetOutput(stdLogger.Writer())
	})
}

// Logger returns a logfmt logger tagged with source.
func Logger(source string) *log.Logger {
	Init()
	return baseLogger.With("source", source)
}

func levelFromEnv(v string) log.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}
