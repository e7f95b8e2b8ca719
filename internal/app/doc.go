// Package app is the composition root of parley.
//
// # Overview
//
// This package wires configuration, logging, the event bus, the reducer,
// the transfer manager, the chat log and the UI together, then runs the
// dispatcher: the single goroutine that owns application state.
//
// # Architecture
//
//	┌──────────────┐   ┌──────────────┐   ┌──────────────┐
//	│  IRC links   │   │ DCC workers  │   │   UI / tick  │
//	└──────┬───────┘   └──────┬───────┘   └──────┬───────┘
//	       │ Publish          │ Publish          │ Publish
//	       ▼                  ▼                  ▼
//	┌─────────────────────────────────────────────────────┐
//	│                event bus (unbounded FIFO)           │
//	└──────────────────────────┬──────────────────────────┘
//	                           │ Next
//	                           ▼
//	┌─────────────────────────────────────────────────────┐
//	│ Dispatcher                                          │
//	│  ├─> Reducer.Reduce(app, event) → app', requests    │
//	│  ├─> execute requests (dial, send, accept, log...)  │
//	│  └─> on Tick with Redraw: Store.Publish → UI        │
//	└─────────────────────────────────────────────────────┘
//
// The reducer is pure; every side effect it asks for is a request the
// dispatcher carries out. Failures of synchronous requests are fed back as
// events, so the reducer sees every outcome in order.
//
// # Components
//
//   - app.go: Run, option mapping from config and preferences, link dialing
//   - dispatcher.go: Event loop, request execution and orderly shutdown
//   - observer.go: Adapter from link callbacks to bus events
//   - ticker.go: Periodic Tick events that pace UI refreshes
//
// # Shutdown
//
// A Quit request (from /quit or ctrl+c), cancellation of the Run context,
// or a closed bus ends the loop. The dispatcher then stops reconnect
// timers, cancels pending dials, closes every link with the quit message
// and waits for transfer workers before returning. The ticker and UI stop
// when the dispatcher returns.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid or unreadable
//   - Diagnostics log cannot be opened
//   - A --connect name that matches no configured server
//
// Everything else is reported inside the UI: dial failures, send errors,
// rejected transfers and preference write errors all become status lines.
package app
