// Package irc implements parley's chat-server Link: the line codec, CTCP
// helpers, the plain/TLS/SOCKS transports and the per-server connection
// with its reader and writer goroutines.
//
// A Link never touches application state. Inbound lines are decoded and
// handed to an Observer (the dispatcher's adapter publishes them on the
// event bus); outbound lines arrive through SendLine, which only queues.
// PING is answered inside the link so keepalive does not depend on the
// control plane keeping up.
package irc
