package logger

import (
	"os"

	"github.com/op/go-logging"
)

const format = `%{time:2006-01-02 15:04:05} %{level:.5s} %{module:-10s} %{message}`

// Init configures the process-wide go-logging backend. Level is one of
// CRITICAL, ERROR, WARNING, NOTICE, INFO or DEBUG.
func Init(level string) error {
	backend := logging.NewLogBackend(os.Stdout, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(format))

	leveled := logging.AddModuleLevel(formatted)
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return err
	}
	leveled.SetLevel(lvl, "")

	logging.SetBackend(leveled)
	return nil
}

// New returns a named logger for a package.
func New(module string) *logging.Logger {
	return logging.MustGetLogger(module)
}
