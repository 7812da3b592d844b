// Package alert implements the audible-notification policy for order
// subscribers: remember the live-order count, fire once when it
// rises, and stay quiet on the first snapshot after a (re)start.
package alert

// Trigger holds one subscriber's remembered state. It is not
// self-synchronizing; callers serialize access (the hub holds its
// lock across Observe and Decrement).
type Trigger struct {
	lastCount   int
	initialized bool
}

// Observe feeds the trigger the live-order count of a new snapshot
// and reports whether an alert should fire. The first snapshot only
// records the count, so a page reload with existing orders stays
// silent. A rising count fires exactly once no matter how many
// orders the delta contains.
func (t *Trigger) Observe(count int) bool {
	if !t.initialized {
		t.initialized = true
		t.lastCount = count
		return false
	}
	fire := count > t.lastCount
	t.lastCount = count
	return fire
}

// Decrement lowers the remembered count by one, floored at zero.
// The archive operation calls this when an order leaves the ledger so
// the next single new order is not masked by a net-zero change.
func (t *Trigger) Decrement() {
	if !t.initialized {
		return
	}
	if t.lastCount > 0 {
		t.lastCount--
	}
}
