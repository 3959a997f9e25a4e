// Package logging builds the slog loggers used by the tutor commands: a
// coloured one-line-per-record console format, or JSON when
// logging.format is "json".
package logging
