package config

import (
	"os"

	"github.com/phuslu/log"
)

// ConfigureLogger points the package-level logger at stderr, with colour
// output when stderr is a terminal and JSON lines otherwise.
func (c *Config) ConfigureLogger() {
	logger := log.Logger{
		Level:      c.Level(),
		TimeFormat: "15:04:05",
		Writer:     &log.IOWriter{Writer: os.Stderr},
	}
	if log.IsTerminal(os.Stderr.Fd()) {
		logger.Writer = &log.ConsoleWriter{ColorOutput: true, Writer: os.Stderr}
	}
	log.DefaultLogger = logger
}
