package control

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/parley/internal/irc"
	"github.com/five82/parley/internal/security"
	"github.com/five82/parley/internal/state"
)

func (r *Reducer) onMessage(s *step, id state.ServerID, msg irc.Message) {
	srv := s.app.Server(id)
	if srv == nil {
		return
	}
	status := state.StatusKey(id)

	switch msg.Command {
	case "PRIVMSG":
		r.onPrivmsg(s, srv, msg)
	case "NOTICE":
		r.onNotice(s, srv, msg)
	case "001":
		r.onWelcome(s, srv, msg)
	case "433", "436":
		r.onNickCollision(s, srv, msg)
	case "JOIN":
		r.onJoin(s, srv, msg)
	case "PART":
		r.onPart(s, srv, msg)
	case "KICK":
		r.onKick(s, srv, msg)
	case "NICK":
		r.onNick(s, srv, msg)
	case "QUIT":
		if b, ok := s.app.Buffers[state.QueryKey(id, msg.Nick())]; ok && !r.ignored(s, msg.Nick()) {
			r.system(s, b.Key, msg.Nick()+" has quit ("+msg.Trailing()+")")
		}
	case "332":
		channel := msg.Param(1)
		r.appendLine(s, state.ChannelKey(id, channel), channel, state.Message{
			Sender: systemSender, Text: "Topic: " + msg.Trailing(), Kind: state.KindSystem,
		})
	case "353":
		channel := msg.Param(2)
		r.appendLine(s, state.ChannelKey(id, channel), channel, state.Message{
			Sender: systemSender, Text: "Users: " + msg.Trailing(), Kind: state.KindSystem,
		})
	case "ERROR":
		r.errorLine(s, status, "Server error: "+msg.Trailing())
	default:
		if isNumeric(msg.Command) && len(msg.Params) > 1 {
			r.system(s, status, strings.Join(msg.Params[1:], " "))
		}
	}
}

func isNumeric(cmd string) bool {
	if len(cmd) != 3 {
		return false
	}
	for _, c := range cmd {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (r *Reducer) onPrivmsg(s *step, srv *state.ServerRecord, msg irc.Message) {
	from, target, text := msg.Nick(), msg.Param(0), msg.Trailing()
	if r.ignored(s, from) {
		return
	}

	if cmd, args, ok := irc.DecodeCTCP(text); ok {
		switch cmd {
		case "ACTION":
			r.deliver(s, srv, from, target, args, state.KindAction)
		case "DCC":
			r.onDCC(s, srv, from, args)
		default:
			r.onCTCPRequest(s, srv, from, cmd, args)
		}
		return
	}
	r.deliver(s, srv, from, target, text, state.KindNormal)
}

// deliver appends a chat line and applies mention and private-message
// notification rules.
func (r *Reducer) deliver(s *step, srv *state.ServerRecord, from, target, text string, kind state.MessageKind) {
	key, title := targetKey(srv, from, target)
	b := r.appendLine(s, key, title, state.Message{Sender: from, Text: text, Kind: kind})

	if strings.EqualFold(from, srv.Nick) {
		return
	}
	if mentions(text, srv.Nick) {
		b.Mention = true
		r.appendLine(s, state.HighlightsKey, "", state.Message{
			Sender: from,
			Text:   fmt.Sprintf("[%s %s] %s", srv.Name, b.Title, text),
			Kind:   kind,
		})
		s.emit(Notify{Key: key, Text: from + " mentioned you in " + b.Title, Bell: r.opts.BellOnMention})
		return
	}
	if key.Kind == state.BufferQuery {
		s.emit(Notify{Key: key, Text: "Private message from " + from, Bell: r.opts.BellOnPrivate})
	}
}

func (r *Reducer) onNotice(s *step, srv *state.ServerRecord, msg irc.Message) {
	from, target, text := msg.Nick(), msg.Param(0), msg.Trailing()
	if r.ignored(s, from) {
		return
	}
	status := state.StatusKey(srv.ID)

	if cmd, args, ok := irc.DecodeCTCP(text); ok {
		r.system(s, status, fmt.Sprintf("CTCP %s reply from %s: %s", cmd, from, args))
		return
	}
	if irc.IsChannel(target) {
		r.appendLine(s, state.ChannelKey(srv.ID, target), target, state.Message{Sender: from, Text: text, Kind: state.KindNotice})
		return
	}
	r.appendLine(s, status, "", state.Message{Sender: from, Text: text, Kind: state.KindNotice})
}

func (r *Reducer) onCTCPRequest(s *step, srv *state.ServerRecord, from, cmd, args string) {
	status := state.StatusKey(srv.ID)
	r.system(s, status, fmt.Sprintf("CTCP %s request from %s", cmd, from))

	var reply string
	switch cmd {
	case "VERSION":
		if !r.opts.CTCP.ReplyVersion {
			return
		}
		reply = r.opts.CTCP.VersionString
	case "PING":
		if !r.opts.CTCP.ReplyPing {
			return
		}
		reply = args
	case "TIME":
		if !r.opts.CTCP.ReplyTime {
			return
		}
		reply = s.at.Format(time.RFC1123Z)
	case "CLIENTINFO":
		reply = "ACTION CLIENTINFO DCC PING TIME VERSION"
	default:
		return
	}
	s.emit(SendLine{Server: srv.ID, Line: irc.CTCPReply(from, cmd, reply)})
}

// onDCC parses a file offer, records it as Pending and applies the
// address-free admission steps: size limit, then address policy.
func (r *Reducer) onDCC(s *step, srv *state.ServerRecord, from, args string) {
	status := state.StatusKey(srv.ID)

	offer, err := ParseOffer(args)
	if err != nil {
		if errors.Is(err, ErrUnsupportedDCC) {
			r.system(s, status, fmt.Sprintf("Ignored DCC request from %s: %v", from, err))
			return
		}
		r.system(s, status, fmt.Sprintf("Dropped malformed DCC offer from %s: %v", from, err))
		return
	}

	rec := state.TransferRecord{
		ID:        s.app.NextTransferID,
		Server:    srv.ID,
		From:      from,
		Offered:   offer.Filename,
		Addr:      offer.Addr,
		Port:      offer.Port,
		Size:      offer.Size,
		Status:    state.TransferPending,
		OfferedAt: s.at,
		UpdatedAt: s.at,
	}
	s.app.NextTransferID++

	class := security.ClassifyAddress(offer.Addr)
	switch {
	case offer.Size > r.opts.DCC.MaxFileSize:
		rec.Fail(state.ReasonTooLarge, fmt.Sprintf("%s exceeds the %s limit", formatBytes(offer.Size), formatBytes(r.opts.DCC.MaxFileSize)))
	case r.opts.DCC.RejectPrivate && !class.IsPublic():
		rec.Fail(state.ReasonRejectedAddress, fmt.Sprintf("%s address %s", class, offer.Addr))
	}
	s.app.Transfers = append(s.app.Transfers, rec)
	s.touch()

	summary := fmt.Sprintf("DCC SEND offer from %s: %q (%s) [id: %d]", from, offer.Filename, formatBytes(offer.Size), rec.ID)
	if rec.Status == state.TransferFailed {
		r.errorLine(s, status, fmt.Sprintf("%s rejected: %s (%s)", summary, rec.Reason, rec.Detail))
		return
	}

	if r.opts.DCC.AutoAccept {
		r.system(s, status, summary+", accepting automatically")
		s.emit(acceptRequest(rec))
		s.emit(Notify{Key: status, Text: "Receiving " + offer.Filename + " from " + from})
		return
	}
	r.system(s, status, fmt.Sprintf("%s, /dcc accept %d to download", summary, rec.ID))
	s.emit(Notify{Key: status, Text: "File offer from " + from, Bell: true})
}

func acceptRequest(rec state.TransferRecord) AcceptTransfer {
	return AcceptTransfer{
		ID:      rec.ID,
		Server:  rec.Server,
		From:    rec.From,
		Offered: rec.Offered,
		Addr:    rec.Addr,
		Port:    rec.Port,
		Size:    rec.Size,
	}
}

func (r *Reducer) onWelcome(s *step, srv *state.ServerRecord, msg irc.Message) {
	if nick := msg.Param(0); nick != "" {
		srv.Nick = nick
	}
	srv.Status = state.Connected
	srv.Failures = 0
	s.touch()
	r.system(s, state.StatusKey(srv.ID), "Connected to "+srv.Name+" as "+srv.Nick+".")

	channels := append([]string(nil), r.serverOptions(srv.ID).Channels...)
	for _, ch := range srv.Channels {
		if !containsFold(channels, ch) {
			channels = append(channels, ch)
		}
	}
	for _, ch := range channels {
		s.emit(SendLine{Server: srv.ID, Line: irc.Join(ch)})
	}
}

// onNickCollision rotates through the configured alternates during
// registration, then appends the nick suffix.
func (r *Reducer) onNickCollision(s *step, srv *state.ServerRecord, msg irc.Message) {
	status := state.StatusKey(srv.ID)
	taken := msg.Param(1)
	if taken == "" {
		taken = srv.Nick
	}
	if srv.Status == state.Connected {
		r.errorLine(s, status, "Nickname "+taken+" is already in use.")
		return
	}

	alts := r.serverOptions(srv.ID).AltNicks
	var next string
	if srv.AltNickIndex < len(alts) {
		next = alts[srv.AltNickIndex]
		srv.AltNickIndex++
	} else {
		next = taken + r.opts.NickSuffix
	}
	srv.Nick = next
	s.touch()
	r.system(s, status, "Nickname "+taken+" is in use, trying "+next+".")
	s.emit(SendLine{Server: srv.ID, Line: irc.Nick(next)})
}

func (r *Reducer) onJoin(s *step, srv *state.ServerRecord, msg irc.Message) {
	channel := msg.Param(0)
	if channel == "" {
		return
	}
	key := state.ChannelKey(srv.ID, channel)
	if strings.EqualFold(msg.Nick(), srv.Nick) {
		if !containsFold(srv.Channels, channel) {
			srv.Channels = append(srv.Channels, channel)
		}
		r.buffer(s, key, channel)
		if s.app.Active.Kind != state.BufferChannel && s.app.Active.Kind != state.BufferQuery {
			s.app.Active = key
		}
		r.system(s, key, "Now talking in "+channel+".")
		return
	}
	if r.ignored(s, msg.Nick()) {
		return
	}
	r.appendLine(s, key, channel, state.Message{Sender: systemSender, Text: msg.Nick() + " has joined " + channel, Kind: state.KindSystem})
}

func (r *Reducer) onPart(s *step, srv *state.ServerRecord, msg irc.Message) {
	channel := msg.Param(0)
	key := state.ChannelKey(srv.ID, channel)
	if strings.EqualFold(msg.Nick(), srv.Nick) {
		srv.Channels = removeFold(srv.Channels, channel)
		s.touch()
		if _, ok := s.app.Buffers[key]; ok {
			r.system(s, key, "You have left "+channel+".")
		}
		return
	}
	if r.ignored(s, msg.Nick()) {
		return
	}
	if _, ok := s.app.Buffers[key]; ok {
		r.system(s, key, msg.Nick()+" has left "+channel)
	}
}

func (r *Reducer) onKick(s *step, srv *state.ServerRecord, msg irc.Message) {
	channel, victim := msg.Param(0), msg.Param(1)
	key := state.ChannelKey(srv.ID, channel)
	text := fmt.Sprintf("%s was kicked by %s (%s)", victim, msg.Nick(), msg.Trailing())
	if strings.EqualFold(victim, srv.Nick) {
		srv.Channels = removeFold(srv.Channels, channel)
		text = fmt.Sprintf("You were kicked from %s by %s (%s)", channel, msg.Nick(), msg.Trailing())
	}
	r.appendLine(s, key, channel, state.Message{Sender: systemSender, Text: text, Kind: state.KindSystem})
}

func (r *Reducer) onNick(s *step, srv *state.ServerRecord, msg irc.Message) {
	old, next := msg.Nick(), msg.Param(0)
	if strings.EqualFold(old, srv.Nick) {
		srv.Nick = next
		s.touch()
		r.system(s, state.StatusKey(srv.ID), "You are now known as "+next+".")
		return
	}
	if b, ok := s.app.Buffers[state.QueryKey(srv.ID, old)]; ok && !r.ignored(s, old) {
		r.system(s, b.Key, old+" is now known as "+next)
	}
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func removeFold(list []string, v string) []string {
	out := list[:0:0]
	for _, item := range list {
		if !strings.EqualFold(item, v) {
			out = append(out, item)
		}
	}
	return out
}
