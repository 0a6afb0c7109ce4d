package logging

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Stacktrace is the log field stack traces are written to.
const Stacktrace = "stacktrace"

// Part of the stable interface of pkg/errors, but not exported by it.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// WithStacktrace adds err and, at debug level, the stack trace recorded where err was created.
func WithStacktrace(logger *logrus.Entry, err error) *logrus.Entry {
	logger = logger.WithError(err)
	if !logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return logger
	}
	if stack := ExtractStack(err); stack != nil {
		logger = logger.WithField(Stacktrace, stack)
	}
	return logger
}

// ExtractStack returns the outermost stack trace in the chain of err, or nil if there is none.
// Both Cause and Unwrap chains are followed.
func ExtractStack(err error) errors.StackTrace {
	var tracer stackTracer
	if errors.As(err, &tracer) {
		return tracer.StackTrace()
	}
	return nil
}
