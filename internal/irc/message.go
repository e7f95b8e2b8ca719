package irc

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyLine is returned for blank input lines.
	ErrEmptyLine = errors.New("empty line")
	// ErrMissingCommand is returned when a line has no command word.
	ErrMissingCommand = errors.New("missing command")
)

// Prefix is the source of a message: a server name or nick!user@host.
type Prefix struct {
	Name string
	User string
	Host string
}

func (p Prefix) String() string {
	s := p.Name
	if p.User != "" {
		s += "!" + p.User
	}
	if p.Host != "" {
		s += "@" + p.Host
	}
	return s
}

// Message is one decoded protocol line.
type Message struct {
	Tags    map[string]string
	Prefix  Prefix
	Command string
	Params  []string
}

// ParseMessage decodes a single line without its CRLF terminator.
func ParseMessage(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Message{}, ErrEmptyLine
	}

	var msg Message
	if strings.HasPrefix(line, "@") {
		tags, rest, _ := strings.Cut(line[1:], " ")
		msg.Tags = parseTags(tags)
		line = rest
	}
	line = strings.TrimLeft(line, " ")

	if strings.HasPrefix(line, ":") {
		prefix, rest, _ := strings.Cut(line[1:], " ")
		msg.Prefix = parsePrefix(prefix)
		line = strings.TrimLeft(rest, " ")
	}

	command, rest, _ := strings.Cut(line, " ")
	if command == "" {
		return Message{}, ErrMissingCommand
	}
	msg.Command = strings.ToUpper(command)

	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		if strings.HasPrefix(rest, ":") {
			msg.Params = append(msg.Params, rest[1:])
			break
		}
		var param string
		param, rest, _ = strings.Cut(rest, " ")
		msg.Params = append(msg.Params, param)
	}
	return msg, nil
}

func parsePrefix(raw string) Prefix {
	var p Prefix
	rest := raw
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		p.Host = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '!'); i >= 0 {
		p.User = rest[i+1:]
		rest = rest[:i]
	}
	p.Name = rest
	return p
}

var tagUnescaper = strings.NewReplacer(`\:`, ";", `\s`, " ", `\\`, `\`, `\r`, "\r", `\n`, "\n")

func parseTags(raw string) map[string]string {
	tags := make(map[string]string)
	for _, kv := range strings.Split(raw, ";") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		tags[k] = tagUnescaper.Replace(v)
	}
	return tags
}

// Param returns the i-th parameter or "".
func (m Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Trailing returns the last parameter or "".
func (m Message) Trailing() string {
	if len(m.Params) == 0 {
		return ""
	}
	return m.Params[len(m.Params)-1]
}

// Nick returns the nick part of the prefix.
func (m Message) Nick() string {
	return m.Prefix.Name
}

// String encodes the message as a protocol line without CRLF. Tags are not
// emitted.
func (m Message) String() string {
	var b strings.Builder
	if m.Prefix.Name != "" {
		b.WriteByte(':')
		b.WriteString(m.Prefix.String())
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)
	for i, p := range m.Params {
		b.WriteByte(' ')
		last := i == len(m.Params)-1
		if last && (p == "" || strings.ContainsRune(p, ' ') || strings.HasPrefix(p, ":")) {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}
	return b.String()
}

// IsChannel reports whether target names a channel.
func IsChannel(target string) bool {
	return target != "" && strings.ContainsRune("#&+!", rune(target[0]))
}
