package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/parley/internal/config"
	"github.com/five82/parley/internal/prefs"
)

func sampleConfig() config.Config {
	cfg := config.Default()
	cfg.Behavior.QuitMessage = "see you"
	cfg.Servers = []config.Server{
		{Name: "libera", Host: "irc.libera.chat", Port: 6697, TLS: true, Nickname: "parley", Channels: []string{"#go"}, AutoConnect: true},
		{Name: "OFTC", Host: "irc.oftc.net", Port: 6667, Nickname: "parley", QuitMessage: "bye oftc"},
	}
	return cfg
}

func TestControlOptions_MapsConfig(t *testing.T) {
	cfg := sampleConfig()
	opts, err := controlOptions(cfg, prefs.Prefs{Theme: "Slate", Ignores: []string{"troll"}}, nil)
	require.NoError(t, err)

	require.Len(t, opts.Servers, 2)
	libera := opts.Servers[0]
	assert.Equal(t, "irc.libera.chat", libera.Endpoint.Host)
	assert.True(t, libera.Endpoint.TLS)
	assert.True(t, libera.AutoConnect)
	assert.Equal(t, "see you", libera.QuitMessage)
	assert.Equal(t, []string{"#go"}, libera.Channels)

	oftc := opts.Servers[1]
	assert.False(t, oftc.AutoConnect)
	assert.Equal(t, "bye oftc", oftc.QuitMessage)

	assert.Equal(t, cfg.DCC.MaxFileSize, opts.DCC.MaxFileSize)
	assert.True(t, opts.DCC.RejectPrivate)
	assert.Equal(t, "Slate", opts.Theme)
	assert.Equal(t, []string{"troll"}, opts.Ignores)
	assert.Equal(t, cfg.UI.MaxScrollback, opts.MaxScrollback)
}

func TestControlOptions_ConnectFlag(t *testing.T) {
	opts, err := controlOptions(sampleConfig(), prefs.Prefs{}, []string{"oftc"})
	require.NoError(t, err)
	assert.True(t, opts.Servers[1].AutoConnect, "server names match case-insensitively")
}

func TestControlOptions_UnknownServer(t *testing.T) {
	_, err := controlOptions(sampleConfig(), prefs.Prefs{}, []string{"efnet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"efnet"`)
}
