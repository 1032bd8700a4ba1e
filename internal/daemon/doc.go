// Package daemon coordinates the long-running Lodestone process.
//
// It wires configuration, queue storage, the event bus, the install
// scheduler, and profile state sync into a single lifecycle with flock-based
// locking to prevent multiple instances. The daemon exposes the queue
// operations facade consumed by the IPC layer and owns startup recovery of
// installs interrupted by a crash or shutdown.
//
// Keep orchestration logic here: install mechanics live in the scheduler and
// installer packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
