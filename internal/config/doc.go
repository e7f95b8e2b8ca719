// Package config loads parley's TOML configuration.
//
// # Overview
//
// Load reads ~/.config/parley/config.toml (or an explicit path), applies
// defaults for anything missing and validates the result with struct tags.
// A missing file is not an error: parley starts with no servers and the
// user connects later.
//
// # Example
//
//	[[servers]]
//	name = "libera"
//	host = "irc.libera.chat"
//	tls = true
//	nickname = "gopher"
//	alt_nicks = ["gopher_"]
//	channels = ["#go-nuts"]
//	auto_connect = true
//
//	[dcc]
//	download_dir = "~/Downloads/parley"
//	max_file_size = 4294967296
//	reject_private_addresses = true
//	auto_accept = false
//	remove_partial = false
//
//	[behavior]
//	auto_reconnect = false
//
//	[logging]
//	enabled = true
//	backlog_lines = 50
//
// # Defaults
//
//   - Port: 6697 with tls, 6667 without
//   - Nickname: a random AdjectiveNounNN
//   - Username and realname: derived from the nickname
//   - DCC: private senders rejected, partial files kept, 30s connect timeout
//   - Reconnect: manual
//
// Paths accept a leading ~ and are returned absolute.
package config
