// Package api exposes the typed operations collaborators (CLI, IPC, future
// UI) call against the install queue, plus the DTOs they exchange.
package api
