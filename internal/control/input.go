package control

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/five82/parley/internal/irc"
	"github.com/five82/parley/internal/state"
)

var helpLines = []string{
	"Commands:",
	"  /connect [server]       connect to a configured server",
	"  /disconnect [message]   disconnect from the current server",
	"  /join <#channel>        join a channel",
	"  /part [#channel] [msg]  leave a channel",
	"  /msg <target> <text>    send a private message",
	"  /me <text>              send an action",
	"  /nick <nick>            change nickname",
	"  /ignore [nick]          ignore a nick, or list ignored nicks",
	"  /unignore <nick>        stop ignoring a nick",
	"  /dcc list               list file transfers",
	"  /dcc accept <id>        accept a file offer",
	"  /dcc cancel <id>        cancel a file transfer",
	"  /quit [message]         quit parley",
}

func (r *Reducer) onInput(s *step, text string) {
	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return
	}
	if strings.HasPrefix(text, "//") {
		r.say(s, text[1:])
		return
	}
	if !strings.HasPrefix(text, "/") {
		r.say(s, text)
		return
	}

	cmd, rest, _ := strings.Cut(text[1:], " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(cmd) {
	case "help":
		for _, line := range helpLines {
			r.system(s, s.app.Active, line)
		}
	case "connect", "server":
		r.cmdConnect(s, rest)
	case "disconnect":
		r.cmdDisconnect(s, rest)
	case "join", "j":
		r.cmdJoin(s, rest)
	case "part", "leave":
		r.cmdPart(s, rest)
	case "msg", "query":
		r.cmdMsg(s, rest)
	case "me":
		r.cmdMe(s, rest)
	case "nick":
		r.cmdNick(s, rest)
	case "ignore":
		r.cmdIgnore(s, rest)
	case "unignore":
		r.cmdUnignore(s, rest)
	case "dcc":
		r.cmdDCC(s, rest)
	case "quit", "exit":
		r.quit(s, rest)
	default:
		r.errorLine(s, s.app.Active, "Unknown command: /"+cmd+". Type /help for a list of commands.")
	}
}

// activeServer returns the server owning the active buffer, falling back to
// the only configured server.
func (r *Reducer) activeServer(s *step) *state.ServerRecord {
	if srv := s.app.Server(s.app.Active.Server); srv != nil {
		return srv
	}
	if len(s.app.Servers) == 1 {
		return &s.app.Servers[0]
	}
	return nil
}

// connectedServer returns the active server if it is connected, writing an
// error line otherwise.
func (r *Reducer) connectedServer(s *step) *state.ServerRecord {
	srv := r.activeServer(s)
	if srv == nil {
		r.errorLine(s, s.app.Active, "No server for this buffer. Use /connect <server>.")
		return nil
	}
	if srv.Status != state.Connected {
		r.errorLine(s, s.app.Active, "Not connected to "+srv.Name+".")
		return nil
	}
	return srv
}

func (r *Reducer) say(s *step, text string) {
	key := s.app.Active
	if key.Kind != state.BufferChannel && key.Kind != state.BufferQuery {
		r.errorLine(s, key, "Not in a channel or query. Use /join or /msg.")
		return
	}
	srv := r.connectedServer(s)
	if srv == nil {
		return
	}
	b := s.app.Buffers[key]
	s.emit(SendLine{Server: srv.ID, Line: irc.Privmsg(b.Title, text)})
	r.appendLine(s, key, b.Title, state.Message{Sender: srv.Nick, Text: irc.StripCTCP(text), Kind: state.KindNormal})
}

func (r *Reducer) cmdConnect(s *step, name string) {
	srv := r.activeServer(s)
	if name != "" {
		srv = s.app.ServerByName(name)
	}
	if srv == nil {
		r.errorLine(s, s.app.Active, "Unknown server "+strconv.Quote(name)+". Configured: "+r.serverNames(s)+".")
		return
	}
	if srv.Status != state.Disconnected {
		r.errorLine(s, s.app.Active, "Already connected to "+srv.Name+".")
		return
	}
	srv.Failures = 0
	s.app.Active = state.StatusKey(srv.ID)
	r.connect(s, srv)
}

func (r *Reducer) serverNames(s *step) string {
	names := make([]string, 0, len(s.app.Servers))
	for _, srv := range s.app.Servers {
		names = append(names, srv.Name)
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func (r *Reducer) cmdDisconnect(s *step, message string) {
	srv := r.activeServer(s)
	if srv == nil || srv.Status == state.Disconnected {
		r.errorLine(s, s.app.Active, "Not connected.")
		return
	}
	if message == "" {
		message = r.serverOptions(srv.ID).QuitMessage
	}
	if message == "" {
		message = r.opts.QuitMessage
	}
	s.emit(Disconnect{Server: srv.ID, Message: message})
}

func (r *Reducer) cmdJoin(s *step, channel string) {
	channel, _, _ = strings.Cut(channel, " ")
	if channel == "" {
		r.errorLine(s, s.app.Active, "Usage: /join <#channel>")
		return
	}
	if !irc.IsChannel(channel) {
		channel = "#" + channel
	}
	srv := r.connectedServer(s)
	if srv == nil {
		return
	}
	s.emit(SendLine{Server: srv.ID, Line: irc.Join(channel)})
}

func (r *Reducer) cmdPart(s *step, args string) {
	channel, message := "", args
	if first, rest, _ := strings.Cut(args, " "); irc.IsChannel(first) {
		channel, message = first, strings.TrimSpace(rest)
	}
	if channel == "" {
		if s.app.Active.Kind != state.BufferChannel {
			r.errorLine(s, s.app.Active, "Usage: /part [#channel] [message]")
			return
		}
		channel = s.app.Buffers[s.app.Active].Title
	}
	if message == "" {
		message = r.opts.PartMessage
	}
	srv := r.connectedServer(s)
	if srv == nil {
		return
	}
	s.emit(SendLine{Server: srv.ID, Line: irc.Part(channel, message)})
}

func (r *Reducer) cmdMsg(s *step, args string) {
	target, text, _ := strings.Cut(args, " ")
	text = strings.TrimSpace(text)
	if target == "" || text == "" {
		r.errorLine(s, s.app.Active, "Usage: /msg <target> <text>")
		return
	}
	srv := r.connectedServer(s)
	if srv == nil {
		return
	}
	s.emit(SendLine{Server: srv.ID, Line: irc.Privmsg(target, text)})

	key, title := targetKey(srv, srv.Nick, target)
	r.appendLine(s, key, title, state.Message{Sender: srv.Nick, Text: irc.StripCTCP(text), Kind: state.KindNormal})
	s.app.Active = key
	s.app.Buffers[key].Unread = 0
}

func (r *Reducer) cmdMe(s *step, text string) {
	key := s.app.Active
	if text == "" || (key.Kind != state.BufferChannel && key.Kind != state.BufferQuery) {
		r.errorLine(s, key, "Usage: /me <text> in a channel or query")
		return
	}
	srv := r.connectedServer(s)
	if srv == nil {
		return
	}
	b := s.app.Buffers[key]
	s.emit(SendLine{Server: srv.ID, Line: irc.Action(b.Title, text)})
	r.appendLine(s, key, b.Title, state.Message{Sender: srv.Nick, Text: irc.StripCTCP(text), Kind: state.KindAction})
}

func (r *Reducer) cmdNick(s *step, nick string) {
	nick, _, _ = strings.Cut(nick, " ")
	if nick == "" {
		r.errorLine(s, s.app.Active, "Usage: /nick <nick>")
		return
	}
	srv := r.activeServer(s)
	if srv == nil {
		r.errorLine(s, s.app.Active, "No server for this buffer.")
		return
	}
	if srv.Status == state.Disconnected {
		srv.Nick = nick
		r.system(s, state.StatusKey(srv.ID), "Nickname set to "+nick+" for the next connection.")
		return
	}
	s.emit(SendLine{Server: srv.ID, Line: irc.Nick(nick)})
}

func (r *Reducer) cmdIgnore(s *step, nick string) {
	nick, _, _ = strings.Cut(nick, " ")
	if nick == "" {
		if len(s.app.Ignores) == 0 {
			r.system(s, s.app.Active, "Ignore list is empty.")
			return
		}
		names := make([]string, 0, len(s.app.Ignores))
		for n := range s.app.Ignores {
			names = append(names, n)
		}
		sort.Strings(names)
		r.system(s, s.app.Active, "Ignoring: "+strings.Join(names, ", "))
		return
	}
	s.app.Ignores[fold(nick)] = true
	r.system(s, s.app.Active, "Now ignoring "+nick+".")
	r.savePrefs(s)
}

func (r *Reducer) cmdUnignore(s *step, nick string) {
	nick, _, _ = strings.Cut(nick, " ")
	if nick == "" {
		r.errorLine(s, s.app.Active, "Usage: /unignore <nick>")
		return
	}
	if !s.app.Ignores[fold(nick)] {
		r.errorLine(s, s.app.Active, nick+" is not ignored.")
		return
	}
	delete(s.app.Ignores, fold(nick))
	r.system(s, s.app.Active, "No longer ignoring "+nick+".")
	r.savePrefs(s)
}

func (r *Reducer) cmdDCC(s *step, args string) {
	sub, rest, _ := strings.Cut(args, " ")
	switch strings.ToLower(sub) {
	case "", "list", "ls":
		s.emit(ListTransfers{})
	case "accept", "get":
		rec := r.lookupTransfer(s, rest)
		if rec == nil {
			return
		}
		if rec.Status != state.TransferPending {
			r.errorLine(s, s.app.Active, fmt.Sprintf("Transfer %d is not pending (%s).", rec.ID, rec.Status))
			return
		}
		r.system(s, s.app.Active, fmt.Sprintf("Accepting transfer %d: %q from %s.", rec.ID, rec.Offered, rec.From))
		s.emit(acceptRequest(*rec))
	case "cancel", "close", "reject":
		rec := r.lookupTransfer(s, rest)
		if rec == nil {
			return
		}
		if rec.Status.IsTerminal() {
			r.errorLine(s, s.app.Active, fmt.Sprintf("Transfer %d already finished (%s).", rec.ID, rec.Status))
			return
		}
		r.system(s, s.app.Active, fmt.Sprintf("Cancelling transfer %d.", rec.ID))
		s.emit(CancelTransfer{ID: rec.ID})
	default:
		r.errorLine(s, s.app.Active, "Usage: /dcc list | accept <id> | cancel <id>")
	}
}

func (r *Reducer) lookupTransfer(s *step, arg string) *state.TransferRecord {
	id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		r.errorLine(s, s.app.Active, "Usage: /dcc accept|cancel <id>")
		return nil
	}
	rec := s.app.Transfer(state.TransferID(id))
	if rec == nil {
		r.errorLine(s, s.app.Active, fmt.Sprintf("Transfer %d not found. Use /dcc list to see transfers.", id))
		return nil
	}
	return rec
}
