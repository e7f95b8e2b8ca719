package control

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/five82/parley/internal/irc"
	"github.com/five82/parley/internal/state"
)

const (
	systemSender = "***"
	errorSender  = "!!!"
)

// Reducer maps (state, event) to (state, requests). It performs no I/O and
// reads no clock; the only time it knows is the timestamp carried by each
// event.
type Reducer struct {
	opts Options
}

// New returns a reducer with defaults filled in for zero options.
func New(opts Options) *Reducer {
	if opts.MaxScrollback <= 0 {
		opts.MaxScrollback = 10000
	}
	if opts.NickSuffix == "" {
		opts.NickSuffix = "_"
	}
	if opts.ReconnectBase <= 0 {
		opts.ReconnectBase = 2 * time.Second
	}
	if opts.ReconnectAttempts < 0 {
		opts.ReconnectAttempts = 0
	}
	if opts.QuitMessage == "" {
		opts.QuitMessage = "parley"
	}
	if opts.CTCP.VersionString == "" {
		opts.CTCP.VersionString = "parley"
	}
	return &Reducer{opts: opts}
}

// step accumulates the requests produced while reducing one event.
type step struct {
	app  *state.App
	reqs []Request
	at   time.Time
}

func (s *step) emit(r Request) {
	s.reqs = append(s.reqs, r)
}

func (s *step) touch() {
	s.app.Redraw = true
}

// Initial builds the starting state from the configured servers and returns
// the connect requests for servers marked auto-connect.
func (r *Reducer) Initial(at time.Time) (state.App, []Request) {
	app := state.New()
	app.Theme = r.opts.Theme
	for _, nick := range r.opts.Ignores {
		if f := fold(nick); f != "" {
			app.Ignores[f] = true
		}
	}

	s := &step{app: &app, at: at}
	for i, so := range r.opts.Servers {
		id := state.ServerID(i + 1)
		app.Servers = append(app.Servers, state.ServerRecord{ID: id, Name: so.Name, Nick: so.Endpoint.Nick})
		r.buffer(s, state.StatusKey(id), so.Name)
	}
	if len(app.Servers) > 0 {
		app.Active = state.StatusKey(app.Servers[0].ID)
	}
	r.system(s, app.Active, "Welcome to parley. Type /help for a list of commands.")

	for i, so := range r.opts.Servers {
		if so.AutoConnect {
			r.connect(s, &app.Servers[i])
		}
	}
	s.touch()
	return app, s.reqs
}

// Reduce applies ev to app and returns the next state. app itself is left
// unchanged, so reducing the same value twice gives the same result.
func (r *Reducer) Reduce(app state.App, ev Event) (state.App, []Request) {
	app = app.Fork()
	s := &step{app: &app}

	switch ev := ev.(type) {
	case LinkConnected:
		s.at = ev.At
		r.onLinkConnected(s, ev)
	case LinkDialFailed:
		s.at = ev.At
		r.onConnectionLost(s, ev.Server, "Connection failed: "+ev.Err, true)
	case LinkClosed:
		s.at = ev.At
		if ev.Err == "" {
			r.onConnectionLost(s, ev.Server, "Disconnected.", false)
		} else {
			r.onConnectionLost(s, ev.Server, "Disconnected: "+ev.Err, true)
		}
	case LinkMessage:
		s.at = ev.At
		r.onMessage(s, ev.Server, ev.Msg)
	case LinkMalformed:
		s.at = ev.At
		r.system(s, state.StatusKey(ev.Server), "Dropped malformed line from server: "+ev.Err)
	case ReconnectDue:
		s.at = ev.At
		if srv := s.app.Server(ev.Server); srv != nil && srv.Status == state.Disconnected && !s.app.Quitting {
			r.connect(s, srv)
		}
	case InputLine:
		s.at = ev.At
		r.onInput(s, ev.Text)
	case SelectBuffer:
		s.at = ev.At
		if b, ok := s.app.Buffers[ev.Key]; ok {
			s.app.Active = ev.Key
			b.Unread = 0
			b.Mention = false
			s.touch()
		}
	case ThemeChanged:
		s.at = ev.At
		s.app.Theme = ev.Theme
		s.touch()
		r.savePrefs(s)
	case TransferStarted:
		s.at = ev.At
		r.onTransferStarted(s, ev)
	case TransferProgress:
		s.at = ev.At
		if rec := s.app.Transfer(ev.ID); rec != nil && rec.Advance(ev.Bytes) {
			rec.UpdatedAt = ev.At
			s.touch()
		}
	case TransferCompleted:
		s.at = ev.At
		r.onTransferCompleted(s, ev)
	case TransferFailed:
		s.at = ev.At
		r.onTransferFailed(s, ev)
	case TransferCancelled:
		s.at = ev.At
		r.onTransferCancelled(s, ev)
	case TransferListing:
		s.at = ev.At
		r.onTransferListing(s, ev)
	case BacklogLoaded:
		s.at = ev.At
		r.onBacklog(s, ev)
	case RequestFailed:
		s.at = ev.At
		key := s.app.Active
		if s.app.Server(ev.Server) != nil {
			key = state.StatusKey(ev.Server)
		}
		r.errorLine(s, key, "Could not "+ev.Request+": "+ev.Err)
	case QuitRequested:
		s.at = ev.At
		r.quit(s, ev.Message)
	case Tick:
	}

	return app, s.reqs
}

func (r *Reducer) serverOptions(id state.ServerID) ServerOptions {
	i := int(id) - 1
	if i < 0 || i >= len(r.opts.Servers) {
		return ServerOptions{}
	}
	return r.opts.Servers[i]
}

// buffer returns the buffer for key, creating it and requesting its backlog
// on first reference.
func (r *Reducer) buffer(s *step, key state.BufferKey, title string) *state.Buffer {
	if b, ok := s.app.Buffers[key]; ok {
		return b
	}
	b := s.app.Buffer(key, title)
	s.touch()

	switch key.Kind {
	case state.BufferChannel:
		b.Logged = r.opts.Logging.Enabled && r.opts.Logging.Channels
	case state.BufferQuery:
		b.Logged = r.opts.Logging.Enabled && r.opts.Logging.Queries
	}
	if b.Logged && r.opts.Logging.Backlog > 0 {
		s.emit(LoadBacklog{Key: key, Server: r.serverName(s, key.Server), Target: b.Title})
	}
	return b
}

func (r *Reducer) serverName(s *step, id state.ServerID) string {
	if srv := s.app.Server(id); srv != nil {
		return srv.Name
	}
	return ""
}

// appendLine adds msg to a buffer, tracks unread state and hands logged
// lines to the chat log.
func (r *Reducer) appendLine(s *step, key state.BufferKey, title string, msg state.Message) *state.Buffer {
	b := r.buffer(s, key, title)
	msg.At = s.at
	b.Append(msg, r.opts.MaxScrollback)
	if key != s.app.Active {
		b.Unread++
	}
	s.touch()
	if b.Logged {
		s.emit(LogMessage{Server: r.serverName(s, key.Server), Target: b.Title, Msg: msg})
	}
	return b
}

func (r *Reducer) system(s *step, key state.BufferKey, text string) {
	r.appendLine(s, key, "", state.Message{Sender: systemSender, Text: text, Kind: state.KindSystem})
}

func (r *Reducer) errorLine(s *step, key state.BufferKey, text string) {
	r.appendLine(s, key, "", state.Message{Sender: errorSender, Text: text, Kind: state.KindError})
}

func (r *Reducer) connect(s *step, srv *state.ServerRecord) {
	so := r.serverOptions(srv.ID)
	ep := so.Endpoint
	if srv.Nick != "" {
		ep.Nick = srv.Nick
	}
	srv.Nick = ep.Nick
	srv.Status = state.Connecting
	srv.AltNickIndex = 0
	s.touch()
	r.system(s, state.StatusKey(srv.ID), "Connecting to "+ep.Addr()+"...")
	s.emit(Connect{Server: srv.ID, Endpoint: ep})
}

func (r *Reducer) onLinkConnected(s *step, ev LinkConnected) {
	srv := s.app.Server(ev.Server)
	if srv == nil {
		return
	}
	r.system(s, state.StatusKey(srv.ID), "Connected, registering as "+srv.Nick+".")
}

func (r *Reducer) onConnectionLost(s *step, id state.ServerID, text string, failure bool) {
	srv := s.app.Server(id)
	if srv == nil {
		return
	}
	srv.Status = state.Disconnected
	s.touch()
	if !failure {
		r.system(s, state.StatusKey(id), text)
		return
	}
	r.errorLine(s, state.StatusKey(id), text)

	srv.Failures++
	if !r.opts.AutoReconnect || s.app.Quitting {
		return
	}
	if srv.Failures > r.opts.ReconnectAttempts {
		r.system(s, state.StatusKey(id), "Giving up reconnecting. Use /connect "+srv.Name+" to retry.")
		return
	}
	delay := calculateBackoff(srv.Failures-1, r.opts.ReconnectBase)
	r.system(s, state.StatusKey(id), "Reconnecting in "+delay.String()+".")
	s.emit(ScheduleReconnect{Server: id, Delay: delay})
}

func (r *Reducer) quit(s *step, message string) {
	if s.app.Quitting {
		return
	}
	if message == "" {
		message = r.opts.QuitMessage
	}
	s.app.Quitting = true
	s.touch()
	s.emit(Quit{Message: message})
}

func (r *Reducer) savePrefs(s *step) {
	ignores := make([]string, 0, len(s.app.Ignores))
	for nick := range s.app.Ignores {
		ignores = append(ignores, nick)
	}
	sort.Strings(ignores)
	s.emit(SavePrefs{Theme: s.app.Theme, Ignores: ignores})
}

// fold case-folds a nick or channel for comparison. A Caser carries state,
// so each call builds its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func (r *Reducer) ignored(s *step, nick string) bool {
	return nick != "" && s.app.Ignores[fold(nick)]
}

func isNickRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case strings.ContainsRune("-_[]\\`^{}|", c):
		return true
	}
	return c > 127
}

// mentions reports whether nick appears in text as a whole token, ignoring
// case.
func mentions(text, nick string) bool {
	want := fold(nick)
	if want == "" {
		return false
	}
	for _, tok := range strings.FieldsFunc(text, func(c rune) bool { return !isNickRune(c) }) {
		if fold(tok) == want {
			return true
		}
	}
	return false
}

// targetKey picks the buffer for a PRIVMSG or NOTICE.
func targetKey(srv *state.ServerRecord, from, target string) (state.BufferKey, string) {
	if irc.IsChannel(target) {
		return state.ChannelKey(srv.ID, target), target
	}
	peer := from
	if strings.EqualFold(from, srv.Nick) {
		peer = target
	}
	return state.QueryKey(srv.ID, peer), peer
}
