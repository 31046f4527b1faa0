// Package logging wires the process-wide slog logger to a logrus backend.
package logging

import (
	"log/slog"

	sloglogrus "github.com/samber/slog-logrus/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/sirupsen/logrus"
)

// Setup installs and returns the default logger.
func Setup(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
		logrus.StandardLogger().SetLevel(logrus.DebugLevel)
	}

	log := slog.New(slogmulti.Fanout(
		sloglogrus.Option{Level: level, Logger: logrus.StandardLogger()}.NewLogrusHandler(),
	))
	slog.SetDefault(log)
	return log
}
