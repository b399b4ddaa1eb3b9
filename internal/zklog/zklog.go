// Package zklog centralizes the structured logging the orchestration
// layer emits around the core pipeline; the demo binary's root command
// installs its logger here via SetLogger. The demo's payload helpers
// (cmd/zksteg/payload.go) log through zerolog's global logger instead,
// which SetLogger does not change. The core
// component packages (keyderive, chaosmap, feature, lsb, envelope)
// neither import this package nor log anything themselves - §5 requires
// them to be pure functions over caller-owned buffers.
package zklog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// L returns the package-level logger, initialized lazily to a console
// writer at info level. Callers embedding zksteg in a larger service can
// call SetLogger to redirect output (e.g. to JSON on stdout) before the
// first Embed/Extract call.
func L() *zerolog.Logger {
	once.Do(func() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	})
	return &logger
}

// SetLogger replaces the package-level logger.
func SetLogger(l zerolog.Logger) {
	once.Do(func() {}) // ensure L's lazy default never overwrites an explicit SetLogger
	logger = l
}
