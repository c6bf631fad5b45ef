// Package logger holds the process-wide structured logger.
//
// Messages keep the bracketed component prefix ("[PIPELINE] ...") as text and
// carry ids, counts and durations as fields.
package logger

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// L is the shared logger. It writes info and above as JSON to stderr until
// Init is called.
var L = &log.Logger{
	Level:  log.InfoLevel,
	Writer: &log.IOWriter{Writer: os.Stderr},
}

// Init sets the level ("debug", "info", "warn", "error") and the output
// format ("console" for humans, anything else for JSON lines).
func Init(level, format string) {
	L.Level = log.ParseLevel(level)
	if format == "console" {
		L.Writer = &log.ConsoleWriter{ColorOutput: true, Writer: os.Stderr}
		return
	}
	L.Writer = &log.IOWriter{Writer: os.Stderr}
}

// SetOutput redirects JSON output, mainly for tests.
func SetOutput(w io.Writer) {
	L.Writer = &log.IOWriter{Writer: w}
}
