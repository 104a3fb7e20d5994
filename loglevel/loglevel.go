package loglevel

import (
	"strings"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// NewLevelFilterFromString filters logger to the level named by s,
// DEBUG|INFO|WARN|ERROR, unknown values fall back to INFO
func NewLevelFilterFromString(logger log.Logger, s string) log.Logger {
	return level.NewFilter(logger, Option(s))
}

// Option returns the level.Option matching s
func Option(s string) level.Option {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return level.AllowDebug()
	case "WARN", "WARNING":
		return level.AllowWarn()
	case "ERROR":
		return level.AllowError()
	case "NONE":
		return level.AllowNone()
	default:
		return level.AllowInfo()
	}
}
