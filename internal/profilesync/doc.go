// Package profilesync derives profile installation state from queue events
// and emits install-ready notifications consumed by launch logic.
package profilesync
