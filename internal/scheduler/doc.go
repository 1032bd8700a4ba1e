// Package scheduler drives the install queue with a single worker goroutine.
//
// The worker is the sole writer of current, completed, and errored
// transitions. It claims the lowest-order pending item with a conditional
// pending-to-current transition, hands the item to the Installer, records the
// outcome, and publishes lifecycle events. At most one item is ever in the
// current state; an orphaned current item from an abnormal termination is
// demoted back to pending before the loop starts accepting work.
package scheduler
