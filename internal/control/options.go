package control

import (
	"time"

	"github.com/five82/parley/internal/irc"
)

// ServerOptions is the static description of one configured server.
type ServerOptions struct {
	Name        string
	Endpoint    irc.Endpoint
	AltNicks    []string
	Channels    []string
	AutoConnect bool
	QuitMessage string
}

// DCCPolicy holds the admission settings the reducer applies to offers.
type DCCPolicy struct {
	MaxFileSize   uint64
	RejectPrivate bool
	AutoAccept    bool
}

// LoggingPolicy controls which buffers are handed to the chat log.
type LoggingPolicy struct {
	Enabled  bool
	Channels bool
	Queries  bool
	Backlog  int
}

// CTCPPolicy controls automatic CTCP replies.
type CTCPPolicy struct {
	ReplyVersion  bool
	ReplyPing     bool
	ReplyTime     bool
	VersionString string
}

// Options configure a Reducer. They are fixed for the reducer's lifetime.
// ReconnectAttempts bounds automatic retries; zero means none.
type Options struct {
	Servers           []ServerOptions
	DCC               DCCPolicy
	Logging           LoggingPolicy
	CTCP              CTCPPolicy
	MaxScrollback     int
	BellOnMention     bool
	BellOnPrivate     bool
	AutoReconnect     bool
	ReconnectAttempts int
	ReconnectBase     time.Duration
	QuitMessage       string
	PartMessage       string
	NickSuffix        string
	Theme             string
	Ignores           []string
}
