// Package logging builds the slog loggers used across livecam. The console
// format prints one line per record with the component and stage pulled to
// the front; the json format is slog's own JSON handler.
package logging
