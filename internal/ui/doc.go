// Package ui provides the terminal user interface for parley.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. It never touches application state
// directly: it renders read-only snapshots handed over by the dispatcher and
// turns keystrokes into control events published on the event bus.
//
//	dispatcher ──Refresh(snapshot)──> feed ──tick──> Model.View()
//	dispatcher ──Notify(text, bell)─> feed ──tick──> status line
//	keyboard ──> Model.Update() ──Publish(event)──> event bus
//
// The feed is an atomic snapshot pointer plus a small notice channel, so a
// busy dispatcher and a slow terminal never wait on each other. The model
// polls the feed on a short tick and only re-renders when the snapshot
// version changes.
//
// # Package Structure
//
//   - app.go: Model, Update loop, input history and the Program wrapper
//   - view.go: Layout and rendering of tabs, scrollback, transfers and status
//   - format.go: Line formatting and small text helpers
//   - help.go: Help overlay
//   - keys.go: Key bindings
//   - theme.go, style_helpers.go: Color themes and background-safe styling
//
// # Layout
//
//	┌──────────────────────────────────────────────┐
//	│ 1:highlights 2:libera 3:#go(4) 4:alice       │ tabs
//	├──────────────────────────────────────────────┤
//	│ 12:01 <alice> hi there                       │
//	│ 12:02 * bob waves                            │ scrollback
//	├──────────────────────────────────────────────┤
//	│ #1 notes.txt  alice  ████░░░░ 48.0% active   │ transfers (F2)
//	├──────────────────────────────────────────────┤
//	│ libera parley connected #go         F1 help  │ status
//	│ > _                                          │ input
//	└──────────────────────────────────────────────┘
//
// # Key Bindings
//
// Printable keys always go to the input line. Buffer switching uses ctrl+n,
// ctrl+p and alt+1 through alt+9; pgup and pgdown scroll, and end resumes
// following new lines. ctrl+t cycles the theme, which the dispatcher
// persists to the preferences file. ctrl+c asks the dispatcher to quit; the
// program exits once the dispatcher has closed every link and transfer.
//
// # Themes
//
// Three themes ship with parley: Nightfox, Kanagawa and Slate. Status
// badges are colored by connection status (disconnected, connecting,
// connected) and transfer status (pending, active, completed, failed,
// cancelled).
package ui
