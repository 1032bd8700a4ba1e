// Package events provides the typed publish/subscribe channel connecting the
// scheduler to the UI surface and profile state sync.
//
// Progress events are best effort: a slow subscriber loses the oldest ones
// first and may poll the store instead. Completion, failure, and
// install-ready events are never dropped while a subscription is open,
// because launch logic depends on observing them.
package events
