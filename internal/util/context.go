package util

import (
	"context"
	"io/ioutil"

	"github.com/sirupsen/logrus"
)

type contextKeyLogger struct{}

// The logger context key
var loggerKey contextKeyLogger

// ContextWithLogger returns a copy of the parent context that includes the
// logger.
func ContextWithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFrom returns the logger from the context.
//
// If the context carries no logger, a logger that discards its output is
// returned so packages can log unconditionally.
func LoggerFrom(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(loggerKey).(*logrus.Entry)
	if !ok || logger == nil {
		l := logrus.New()
		l.SetOutput(ioutil.Discard)
		return logrus.NewEntry(l)
	}
	return logger
}
