package control

import (
	"time"

	"github.com/five82/parley/internal/irc"
	"github.com/five82/parley/internal/state"
)

// Event is anything a producer publishes on the bus. The set is closed.
type Event interface {
	event()
}

// LinkConnected reports that a server socket is up and registration lines
// have been queued.
type LinkConnected struct {
	Server state.ServerID
	At     time.Time
}

// LinkDialFailed reports a connection attempt that never produced a link.
type LinkDialFailed struct {
	Server state.ServerID
	Err    string
	At     time.Time
}

// LinkMessage carries one decoded inbound protocol line.
type LinkMessage struct {
	Server state.ServerID
	Msg    irc.Message
	At     time.Time
}

// LinkMalformed reports an inbound line that could not be decoded.
type LinkMalformed struct {
	Server state.ServerID
	Raw    string
	Err    string
	At     time.Time
}

// LinkClosed reports the end of a link. Err is empty after a local close.
type LinkClosed struct {
	Server state.ServerID
	Err    string
	At     time.Time
}

// ReconnectDue fires when a scheduled reconnect delay has elapsed.
type ReconnectDue struct {
	Server state.ServerID
	At     time.Time
}

// InputLine is a line typed into the active buffer.
type InputLine struct {
	Text string
	At   time.Time
}

// SelectBuffer switches the active buffer.
type SelectBuffer struct {
	Key state.BufferKey
	At  time.Time
}

// ThemeChanged records a presentation theme choice for persistence.
type ThemeChanged struct {
	Theme string
	At    time.Time
}

// TransferStarted reports that admission passed and a worker is connecting.
type TransferStarted struct {
	ID       state.TransferID
	Filename string
	Path     string
	At       time.Time
}

// TransferProgress reports the cumulative bytes written so far.
type TransferProgress struct {
	ID    state.TransferID
	Bytes uint64
	At    time.Time
}

// TransferCompleted reports a transfer that received its declared size.
type TransferCompleted struct {
	ID    state.TransferID
	Bytes uint64
	At    time.Time
}

// TransferFailed reports admission or I/O failure.
type TransferFailed struct {
	ID     state.TransferID
	Reason state.FailureReason
	Detail string
	At     time.Time
}

// TransferCancelled reports a transfer stopped at the user's request.
type TransferCancelled struct {
	ID    state.TransferID
	Bytes uint64
	At    time.Time
}

// LiveTransfer is a worker's byte count at listing time.
type LiveTransfer struct {
	ID    state.TransferID
	Bytes uint64
}

// TransferListing answers a ListTransfers request.
type TransferListing struct {
	Live []LiveTransfer
	At   time.Time
}

// BacklogLoaded carries chat-log lines for a freshly created buffer.
type BacklogLoaded struct {
	Key   state.BufferKey
	Lines []string
	At    time.Time
}

// RequestFailed reports a request the dispatcher could not execute.
type RequestFailed struct {
	Server  state.ServerID
	Request string
	Err     string
	At      time.Time
}

// Tick is the periodic timer event.
type Tick struct {
	At time.Time
}

// QuitRequested asks the client to shut down.
type QuitRequested struct {
	Message string
	At      time.Time
}

func (LinkConnected) event()     {}
func (LinkDialFailed) event()    {}
func (LinkMessage) event()       {}
func (LinkMalformed) event()     {}
func (LinkClosed) event()        {}
func (ReconnectDue) event()      {}
func (InputLine) event()         {}
func (SelectBuffer) event()      {}
func (ThemeChanged) event()      {}
func (TransferStarted) event()   {}
func (TransferProgress) event()  {}
func (TransferCompleted) event() {}
func (TransferFailed) event()    {}
func (TransferCancelled) event() {}
func (TransferListing) event()   {}
func (BacklogLoaded) event()     {}
func (RequestFailed) event()     {}
func (Tick) event()              {}
func (QuitRequested) event()     {}
