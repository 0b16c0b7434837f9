// Package logx provides the bot's structured logging on top of zerolog.
//
// It exposes a small Logger facade with slog-like Field helpers plus a Service
// that owns the active sinks (console, rolling file) and can swap levels and
// outputs at runtime without invalidating loggers already handed out.
package logx
