// Package state defines parley's application state and the store that hands
// read-only copies of it to the UI.
//
// # Ownership
//
// App is owned by exactly one goroutine, the dispatcher. It is mutated only
// by the reducer in internal/control, one event at a time, so it needs no
// locking. The UI never sees the live value:
//
//	Dispatcher goroutine:                 UI goroutine:
//	┌──────────────────────┐             ┌───────────────────┐
//	│ app = Reduce(app, e) │             │                   │
//	│ if app.Redraw:       │             │                   │
//	│   store.Publish(app) │──(clone)───→│ store.Snapshot()  │
//	│   app.Redraw = false │             │   render          │
//	└──────────────────────┘             └───────────────────┘
//
// Store is a small RWMutex-guarded holder; Publish and Snapshot both deep
// copy, so neither side can observe the other's later writes.
//
// # Transfers
//
// TransferRecord enforces its own lifecycle rules: Transition refuses any
// move out of Completed, Failed or Cancelled and any move back to Pending,
// and Advance keeps the byte count non-decreasing and within the declared
// size. The reducer relies on these methods rather than assigning fields.
package state
