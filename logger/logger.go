/*
logger.go - Process-wide log setup

PURPOSE:
  One-time configuration of the shared logrus logger. Packages log
  through logrus directly (logrus.WithField and friends), so setting
  level and format on the standard logger covers the whole process.

USAGE:
  logger.Init(cfg.LogLevel, cfg.LogJSON)

SEE ALSO:
  - config/config.go: LOG_LEVEL and LOG_JSON
*/
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init sets level and output format on the standard logrus logger.
// Unknown level names fall back to info with a warning.
func Init(level string, json bool) {
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}
