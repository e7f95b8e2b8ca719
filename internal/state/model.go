package state

import (
	"net/netip"
	"sort"
	"strings"
	"time"
)

// ServerID identifies a configured server for the lifetime of the process.
type ServerID int

// TransferID identifies a transfer record. IDs are never reused.
type TransferID uint64

// ConnStatus is the connection state of a server record.
type ConnStatus int

const (
	Disconnected ConnStatus = iota
	Connecting
	Connected
)

func (s ConnStatus) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ServerRecord tracks one chat server connection.
type ServerRecord struct {
	ID           ServerID
	Name         string
	Nick         string
	AltNickIndex int
	Status       ConnStatus
	Failures     int // consecutive connection failures, reset on welcome
	Channels     []string
}

// BufferKind distinguishes buffer identities.
type BufferKind int

const (
	BufferStatus BufferKind = iota
	BufferChannel
	BufferQuery
	BufferHighlights
)

// BufferKey identifies a buffer. Name is empty for status and highlight
// buffers and holds the folded channel or nick otherwise.
type BufferKey struct {
	Server ServerID
	Kind   BufferKind
	Name   string
}

// StatusKey returns the status buffer key for a server.
func StatusKey(id ServerID) BufferKey {
	return BufferKey{Server: id, Kind: BufferStatus}
}

// HighlightsKey is the process-wide mention collection buffer.
var HighlightsKey = BufferKey{Server: -1, Kind: BufferHighlights}

// ChannelKey returns the key for a channel buffer.
func ChannelKey(id ServerID, channel string) BufferKey {
	return BufferKey{Server: id, Kind: BufferChannel, Name: strings.ToLower(channel)}
}

// QueryKey returns the key for a private conversation buffer.
func QueryKey(id ServerID, nick string) BufferKey {
	return BufferKey{Server: id, Kind: BufferQuery, Name: strings.ToLower(nick)}
}

func (k BufferKey) less(o BufferKey) bool {
	if k.Server != o.Server {
		return k.Server < o.Server
	}
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	return k.Name < o.Name
}

// MessageKind classifies a buffer line.
type MessageKind int

const (
	KindNormal MessageKind = iota
	KindAction
	KindNotice
	KindSystem
	KindError
)

// Message is one buffer line. It is never modified after it is appended.
type Message struct {
	Sender string
	Text   string
	Kind   MessageKind
	At     time.Time
}

// Buffer is an ordered, bounded sequence of messages.
type Buffer struct {
	Key     BufferKey
	Title   string // display name with original casing
	Lines   []Message
	Unread  int
	Mention bool
	Logged  bool
}

// Append adds msg and evicts the oldest lines beyond limit. A limit of zero
// or less keeps every line.
func (b *Buffer) Append(msg Message, limit int) {
	b.Lines = append(b.Lines, msg)
	if limit > 0 && len(b.Lines) > limit {
		drop := len(b.Lines) - limit
		kept := make([]Message, limit)
		copy(kept, b.Lines[drop:])
		b.Lines = kept
	}
}

// Prepend inserts older lines in front, respecting limit by dropping from
// the inserted lines first.
func (b *Buffer) Prepend(lines []Message, limit int) {
	if limit > 0 {
		room := limit - len(b.Lines)
		if room <= 0 {
			return
		}
		if len(lines) > room {
			lines = lines[len(lines)-room:]
		}
	}
	merged := make([]Message, 0, len(lines)+len(b.Lines))
	merged = append(merged, lines...)
	merged = append(merged, b.Lines...)
	b.Lines = merged
}

// TransferStatus is the lifecycle position of a transfer.
type TransferStatus int

const (
	TransferPending TransferStatus = iota
	TransferActive
	TransferCompleted
	TransferFailed
	TransferCancelled
)

func (s TransferStatus) String() string {
	switch s {
	case TransferPending:
		return "pending"
	case TransferActive:
		return "active"
	case TransferCompleted:
		return "completed"
	case TransferFailed:
		return "failed"
	case TransferCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferCompleted || s == TransferFailed || s == TransferCancelled
}

// FailureReason explains a Failed transfer.
type FailureReason string

const (
	ReasonNone                 FailureReason = ""
	ReasonTooLarge             FailureReason = "too-large"
	ReasonRejectedAddress      FailureReason = "rejected-address"
	ReasonContainmentViolation FailureReason = "containment-violation"
	ReasonConnectFailed        FailureReason = "connect-failed"
	ReasonIO                   FailureReason = "io-error"
)

// TransferRecord is the control-plane view of one DCC offer.
type TransferRecord struct {
	ID          TransferID
	Server      ServerID
	From        string
	Offered     string // raw filename from the peer, untrusted
	Filename    string // sanitized on-disk name, set when admitted
	Path        string // resolved destination, set when admitted
	Addr        netip.Addr
	Port        uint16
	Size        uint64
	Transferred uint64
	Status      TransferStatus
	Reason      FailureReason
	Detail      string
	OfferedAt   time.Time
	UpdatedAt   time.Time
}

// Transition moves the record to next. Terminal records never change and a
// record never returns to Pending; the result reports whether the move
// happened.
func (t *TransferRecord) Transition(next TransferStatus) bool {
	if t.Status.IsTerminal() || next == TransferPending {
		return false
	}
	if next == TransferActive && t.Status != TransferPending {
		return false
	}
	t.Status = next
	return true
}

// Fail transitions to Failed with a reason.
func (t *TransferRecord) Fail(reason FailureReason, detail string) bool {
	if !t.Transition(TransferFailed) {
		return false
	}
	t.Reason = reason
	t.Detail = detail
	return true
}

// Advance records progress. Byte counts never decrease and never exceed the
// declared size.
func (t *TransferRecord) Advance(n uint64) bool {
	if t.Status.IsTerminal() {
		return false
	}
	if n > t.Size {
		n = t.Size
	}
	if n <= t.Transferred {
		return false
	}
	t.Transferred = n
	return true
}

// Percent returns completion in the range 0-100.
func (t TransferRecord) Percent() float64 {
	if t.Size == 0 {
		if t.Status == TransferCompleted {
			return 100
		}
		return 0
	}
	return float64(t.Transferred) * 100 / float64(t.Size)
}

// App is the complete application state. Exactly one value is live at a
// time, owned by the dispatcher; presentation only ever sees clones.
type App struct {
	Servers        []ServerRecord
	Buffers        map[BufferKey]*Buffer
	Active         BufferKey
	Transfers      []TransferRecord
	NextTransferID TransferID
	Ignores        map[string]bool // folded nicks
	Theme          string
	Redraw         bool
	Quitting       bool
}

// New returns an empty state with the highlights buffer present.
func New() App {
	app := App{
		Buffers:        make(map[BufferKey]*Buffer),
		Ignores:        make(map[string]bool),
		NextTransferID: 1,
	}
	app.Buffers[HighlightsKey] = &Buffer{Key: HighlightsKey, Title: "highlights"}
	app.Active = HighlightsKey
	return app
}

// Server returns the record for id, or nil.
func (a *App) Server(id ServerID) *ServerRecord {
	for i := range a.Servers {
		if a.Servers[i].ID == id {
			return &a.Servers[i]
		}
	}
	return nil
}

// ServerByName returns the record whose name matches case-insensitively.
func (a *App) ServerByName(name string) *ServerRecord {
	for i := range a.Servers {
		if strings.EqualFold(a.Servers[i].Name, name) {
			return &a.Servers[i]
		}
	}
	return nil
}

// Transfer returns the record for id, or nil.
func (a *App) Transfer(id TransferID) *TransferRecord {
	for i := range a.Transfers {
		if a.Transfers[i].ID == id {
			return &a.Transfers[i]
		}
	}
	return nil
}

// Buffer returns the buffer for key, creating it on first reference.
func (a *App) Buffer(key BufferKey, title string) *Buffer {
	if b, ok := a.Buffers[key]; ok {
		return b
	}
	if title == "" {
		title = key.Name
	}
	b := &Buffer{Key: key, Title: title}
	a.Buffers[key] = b
	return b
}

// BufferKeys returns buffer keys in display order: by server, then status,
// channels, queries, with the highlights buffer first.
func (a *App) BufferKeys() []BufferKey {
	keys := make([]BufferKey, 0, len(a.Buffers))
	for k := range a.Buffers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

// Clone returns a deep copy sharing no mutable memory with a.
func (a App) Clone() App {
	out := a
	out.Servers = make([]ServerRecord, len(a.Servers))
	for i, s := range a.Servers {
		s.Channels = append([]string(nil), s.Channels...)
		out.Servers[i] = s
	}
	out.Buffers = make(map[BufferKey]*Buffer, len(a.Buffers))
	for k, b := range a.Buffers {
		dup := *b
		dup.Lines = append([]Message(nil), b.Lines...)
		out.Buffers[k] = &dup
	}
	out.Transfers = append([]TransferRecord(nil), a.Transfers...)
	out.Ignores = make(map[string]bool, len(a.Ignores))
	for k, v := range a.Ignores {
		out.Ignores[k] = v
	}
	return out
}

// Fork returns a copy whose containers can be mutated without touching a.
// Message and channel slices are shared but capped, so appends to the copy
// reallocate instead of writing into a's backing arrays.
func (a App) Fork() App {
	out := a
	out.Servers = make([]ServerRecord, len(a.Servers))
	for i, s := range a.Servers {
		s.Channels = s.Channels[:len(s.Channels):len(s.Channels)]
		out.Servers[i] = s
	}
	out.Buffers = make(map[BufferKey]*Buffer, len(a.Buffers))
	for k, b := range a.Buffers {
		dup := *b
		dup.Lines = b.Lines[:len(b.Lines):len(b.Lines)]
		out.Buffers[k] = &dup
	}
	out.Transfers = append([]TransferRecord(nil), a.Transfers...)
	out.Ignores = make(map[string]bool, len(a.Ignores))
	for k, v := range a.Ignores {
		out.Ignores[k] = v
	}
	return out
}
