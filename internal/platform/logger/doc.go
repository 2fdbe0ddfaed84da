// Package logger provides structured logging functionality for the application.
//
// It builds a JSON log/slog logger from the server configuration and carries
// request-scoped loggers through context.Context.
package logger
