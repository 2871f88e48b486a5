package core

import "github.com/rs/zerolog"

// componentLogger tags logger with the component name. A nil logger
// discards everything.
func componentLogger(logger *zerolog.Logger, name string) zerolog.Logger {
	if logger == nil {
		return zerolog.Nop()
	}
	return logger.With().Str("component", name).Logger()
}
