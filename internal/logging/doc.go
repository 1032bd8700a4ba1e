// Package logging configures slog for the launcher daemon and CLI and
// exposes attribute helpers plus standardized field keys so queue, scheduler,
// and IPC logs stay greppable.
package logging
