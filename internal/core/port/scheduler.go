package port

import "time"

type Scheduler interface {
	// After runs fn once d elapsed. The returned func cancels it.
	After(d time.Duration, fn func()) (cancel func())
	// Defer runs fn after the current processing pass.
	Defer(fn func())
}
