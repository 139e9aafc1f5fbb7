// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package consumer

import "github.com/rs/zerolog"

// Configuration describes the configuration of the logging consumer.
type Configuration struct {
	// LogLevel is the level used to log each record (trace, debug,
	// info, warn...).
	LogLevel zerolog.Level
}

// DefaultConfiguration represents the default configuration for the
// logging consumer.
func DefaultConfiguration() Configuration {
	return Configuration{
		LogLevel: zerolog.InfoLevel,
	}
}
