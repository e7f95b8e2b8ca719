package irc

import "strings"

// ctcpDelim delimits client-to-client protocol payloads inside PRIVMSG and
// NOTICE text.
const ctcpDelim = "\x01"

// DecodeCTCP splits a CTCP payload into its upper-cased command and
// argument string. The closing delimiter is optional; ok is false when text
// is not a CTCP payload.
func DecodeCTCP(text string) (command, args string, ok bool) {
	if !strings.HasPrefix(text, ctcpDelim) {
		return "", "", false
	}
	body := strings.TrimPrefix(text, ctcpDelim)
	body = strings.TrimSuffix(body, ctcpDelim)
	command, args, _ = strings.Cut(body, " ")
	if command == "" {
		return "", "", false
	}
	return strings.ToUpper(command), args, true
}

// EncodeCTCP builds a CTCP payload. Delimiters inside args are removed.
func EncodeCTCP(command, args string) string {
	command = StripCTCP(command)
	args = StripCTCP(args)
	if args == "" {
		return ctcpDelim + command + ctcpDelim
	}
	return ctcpDelim + command + " " + args + ctcpDelim
}

// StripCTCP removes every CTCP delimiter from user text so it cannot open a
// control sequence on the receiving side.
func StripCTCP(text string) string {
	return strings.ReplaceAll(text, ctcpDelim, "")
}
