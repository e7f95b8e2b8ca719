// Package control is parley's control plane: the closed sets of events and
// requests, and the Reducer that maps one onto the other.
//
// # Overview
//
// Every producer (server links, transfer workers, the UI and the timer)
// publishes an Event on the bus. The dispatcher feeds each event, one at a
// time, to Reducer.Reduce together with the current state.App, and gets
// back the next state plus an ordered list of Requests to execute:
//
//	producers ──► bus ──► dispatcher ──► Reduce(app, ev) ──► (app', []Request)
//	                 ▲                                              │
//	                 └──────── results and failures as events ◄─────┘
//
// # Purity
//
// Reduce does no I/O and never reads the clock; the event timestamp is the
// only notion of time it has. Given equal inputs it returns equal outputs,
// which the tests check by reducing two clones of the same state.
//
// # Responsibilities
//
//   - Routing PRIVMSG/NOTICE lines to channel, query and status buffers
//   - CTCP: ACTION rendering, VERSION/PING/TIME replies, DCC offers
//   - DCC admission steps that need no filesystem: size limit and address
//     policy (the transfer manager owns naming and containment)
//   - Ignore list, mention detection, highlights and notifications
//   - Nick collision during registration (alternates, then a suffix)
//   - User commands typed into the input line
//   - Transfer lifecycle bookkeeping through state.TransferRecord's
//     monotonic Transition and Advance
//
// Any state change sets App.Redraw. Clearing it is the dispatcher's job.
package control
