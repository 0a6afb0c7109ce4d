package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

var NullLogger = &logrus.Logger{
	Out:       io.Discard,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

// EntryFor returns an entry on the standard logger, or on NullLogger if silent is set.
// Providers run once per rank at dispatch time and are silenced there.
func EntryFor(silent bool) *logrus.Entry {
	if silent {
		return logrus.NewEntry(NullLogger)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
