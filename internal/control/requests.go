package control

import (
	"net/netip"
	"time"

	"github.com/five82/parley/internal/irc"
	"github.com/five82/parley/internal/state"
)

// Request is a side effect the dispatcher performs on the reducer's behalf.
type Request interface {
	request() string
}

// Connect dials a server.
type Connect struct {
	Server   state.ServerID
	Endpoint irc.Endpoint
}

// Disconnect closes a server link, sending QUIT with Message.
type Disconnect struct {
	Server  state.ServerID
	Message string
}

// SendLine writes one protocol line to a server.
type SendLine struct {
	Server state.ServerID
	Line   string
}

// AcceptTransfer starts the admission pipeline and, if it passes, a worker.
type AcceptTransfer struct {
	ID      state.TransferID
	Server  state.ServerID
	From    string
	Offered string
	Addr    netip.Addr
	Port    uint16
	Size    uint64
}

// CancelTransfer stops a pending or active transfer.
type CancelTransfer struct {
	ID state.TransferID
}

// ListTransfers asks the transfer manager for live byte counts.
type ListTransfers struct{}

// LogMessage hands an appended line to the chat log writer.
type LogMessage struct {
	Server string
	Target string
	Msg    state.Message
}

// LoadBacklog asks for the tail of a buffer's chat log.
type LoadBacklog struct {
	Key    state.BufferKey
	Server string
	Target string
}

// Notify alerts the user. Bell requests an audible bell.
type Notify struct {
	Key  state.BufferKey
	Text string
	Bell bool
}

// SavePrefs persists user preferences.
type SavePrefs struct {
	Theme   string
	Ignores []string
}

// ScheduleReconnect publishes ReconnectDue after Delay.
type ScheduleReconnect struct {
	Server state.ServerID
	Delay  time.Duration
}

// Quit shuts the client down.
type Quit struct {
	Message string
}

func (Connect) request() string           { return "connect" }
func (Disconnect) request() string        { return "disconnect" }
func (SendLine) request() string          { return "send" }
func (AcceptTransfer) request() string    { return "accept transfer" }
func (CancelTransfer) request() string    { return "cancel transfer" }
func (ListTransfers) request() string     { return "list transfers" }
func (LogMessage) request() string        { return "write chat log" }
func (LoadBacklog) request() string       { return "load backlog" }
func (Notify) request() string            { return "notify" }
func (SavePrefs) request() string         { return "save preferences" }
func (ScheduleReconnect) request() string { return "schedule reconnect" }
func (Quit) request() string              { return "quit" }

// RequestName returns a short human description of r.
func RequestName(r Request) string {
	return r.request()
}
