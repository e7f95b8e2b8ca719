package irc

import "strings"

// Line builders. Every builder that carries user-typed text strips CTCP
// delimiters from it; only EncodeCTCP may introduce them.

func Privmsg(target, text string) string {
	return "PRIVMSG " + target + " :" + StripCTCP(text)
}

func Notice(target, text string) string {
	return "NOTICE " + target + " :" + StripCTCP(text)
}

func Action(target, text string) string {
	return "PRIVMSG " + target + " :" + EncodeCTCP("ACTION", text)
}

func CTCPReply(target, command, args string) string {
	return "NOTICE " + target + " :" + EncodeCTCP(command, args)
}

func Join(channel string) string {
	return "JOIN " + channel
}

func Part(channel, message string) string {
	if message == "" {
		return "PART " + channel
	}
	return "PART " + channel + " :" + StripCTCP(message)
}

func Nick(nick string) string {
	return "NICK " + nick
}

func Quit(message string) string {
	if message == "" {
		return "QUIT"
	}
	return "QUIT :" + StripCTCP(message)
}

func Pong(token string) string {
	return "PONG :" + token
}

func User(username, realname string) string {
	if realname == "" {
		realname = username
	}
	return "USER " + username + " 0 * :" + StripCTCP(realname)
}

func Pass(password string) string {
	return "PASS " + password
}

// validLine reports whether line is safe to put on the wire as one message.
func validLine(line string) bool {
	return line != "" && !strings.ContainsAny(line, "\r\n\x00")
}
