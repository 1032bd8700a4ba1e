// Package notifications sends push notifications about install outcomes via
// ntfy. With no topic configured every call is a cheap no-op.
package notifications
