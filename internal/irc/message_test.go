package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Message
	}{
		{
			name: "privmsg with prefix",
			line: ":alice!al@example.org PRIVMSG #go :hello there",
			want: Message{
				Prefix:  Prefix{Name: "alice", User: "al", Host: "example.org"},
				Command: "PRIVMSG",
				Params:  []string{"#go", "hello there"},
			},
		},
		{
			name: "numeric from server",
			line: ":irc.example.net 433 * parley :Nickname is already in use",
			want: Message{
				Prefix:  Prefix{Name: "irc.example.net"},
				Command: "433",
				Params:  []string{"*", "parley", "Nickname is already in use"},
			},
		},
		{
			name: "no prefix lower case command",
			line: "ping :token",
			want: Message{Command: "PING", Params: []string{"token"}},
		},
		{
			name: "tags",
			line: `@time=2024-01-01T00:00:00Z;msg=a\sb :n PRIVMSG #c :x`,
			want: Message{
				Tags:    map[string]string{"time": "2024-01-01T00:00:00Z", "msg": "a b"},
				Prefix:  Prefix{Name: "n"},
				Command: "PRIVMSG",
				Params:  []string{"#c", "x"},
			},
		},
		{
			name: "empty trailing",
			line: "TOPIC #c :",
			want: Message{Command: "TOPIC", Params: []string{"#c", ""}},
		},
		{
			name: "crlf trimmed and extra spaces",
			line: "JOIN   #c  \r\n",
			want: Message{Command: "JOIN", Params: []string{"#c"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessage(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMessage_Errors(t *testing.T) {
	_, err := ParseMessage("   ")
	assert.ErrorIs(t, err, ErrEmptyLine)

	_, err = ParseMessage(":only.a.prefix")
	assert.ErrorIs(t, err, ErrMissingCommand)
}

func TestMessage_String(t *testing.T) {
	msg := Message{Prefix: Prefix{Name: "n", User: "u", Host: "h"}, Command: "PRIVMSG", Params: []string{"#c", "hi there"}}
	assert.Equal(t, ":n!u@h PRIVMSG #c :hi there", msg.String())

	msg = Message{Command: "NICK", Params: []string{"parley"}}
	assert.Equal(t, "NICK parley", msg.String())

	msg = Message{Command: "PRIVMSG", Params: []string{"#c", ":)"}}
	assert.Equal(t, "PRIVMSG #c ::)", msg.String())
}

func TestIsChannel(t *testing.T) {
	for _, target := range []string{"#go", "&local", "+modeless", "!12345chan"} {
		assert.True(t, IsChannel(target), target)
	}
	for _, target := range []string{"alice", "", "parley_"} {
		assert.False(t, IsChannel(target), target)
	}
}
