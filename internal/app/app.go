package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/parley/internal/bus"
	"github.com/five82/parley/internal/chatlog"
	"github.com/five82/parley/internal/config"
	"github.com/five82/parley/internal/control"
	"github.com/five82/parley/internal/dcc"
	"github.com/five82/parley/internal/irc"
	"github.com/five82/parley/internal/logging"
	"github.com/five82/parley/internal/prefs"
	"github.com/five82/parley/internal/state"
	"github.com/five82/parley/internal/ui"
)

const chatLogQueue = 1024

// Options configure the parley application.
type Options struct {
	ConfigPath string
	PrefsPath  string   // empty uses default ~/.config/parley/prefs.toml
	Connect    []string // server names to connect at startup, in addition to auto_connect
	TickEvery  time.Duration
	Bell       io.Writer
}

// Run boots parley and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(logging.Options{
		File:  cfg.Diagnostics.File,
		Level: cfg.Diagnostics.Level,
		JSON:  cfg.Diagnostics.Format == "json",
	})
	if err != nil {
		return fmt.Errorf("open diagnostics log: %w", err)
	}
	defer closer.Close()
	log := logrus.NewEntry(logger)

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	reducerOpts, err := controlOptions(cfg, userPrefs, opts.Connect)
	if err != nil {
		return err
	}

	events := bus.New[control.Event]()
	defer events.Close()

	transfers := dcc.NewManager(dcc.Config{
		DownloadDir:    cfg.DCC.DownloadDir,
		MaxFileSize:    cfg.DCC.MaxFileSize,
		RejectPrivate:  cfg.DCC.RejectPrivateAddresses,
		ConnectTimeout: time.Duration(cfg.DCC.ConnectTimeoutSeconds) * time.Second,
		RemovePartial:  cfg.DCC.RemovePartial,
		Logger:         log.WithField("component", "dcc"),
	}, events)

	program := ui.NewProgram(ui.Options{
		Events:          events,
		Theme:           userPrefs.Theme,
		TimestampFormat: cfg.UI.TimestampFormat,
		Bell:            opts.Bell,
	})

	deps := Deps{
		Reducer:   control.New(reducerOpts),
		Events:    events,
		Store:     &state.Store{},
		Dial:      linkDialer(cfg, log),
		Transfers: transfers,
		SavePrefs: func(p prefs.Prefs) error { return prefs.Save(prefsPath, p) },
		Presenter: program,
		Logger:    log,
	}
	if cfg.Logging.Enabled {
		writer := chatlog.NewWriter(cfg.Logging.Dir, chatLogQueue, log.WithField("component", "chatlog"))
		defer writer.Close()
		deps.ChatLog = writer
		deps.BacklogLines = cfg.Logging.BacklogLines
		deps.Backlog = func(server, target string, n int) ([]string, error) {
			return chatlog.Tail(cfg.Logging.Dir, server, target, n)
		}
	}
	dispatcher := NewDispatcher(deps)

	log.WithFields(logrus.Fields{
		"servers":      len(cfg.Servers),
		"download_dir": cfg.DCC.DownloadDir,
	}).Info("parley starting")

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		// The dispatcher owns shutdown; everything else follows it.
		defer stop()
		return dispatcher.Run(runCtx)
	})
	g.Go(func() error {
		return RunTicker(runCtx, events, opts.TickEvery, nil)
	})
	g.Go(func() error {
		err := program.Run(runCtx)
		if runCtx.Err() == nil {
			// The UI went away on its own; ask for an orderly quit.
			if perr := events.Publish(control.QuitRequested{At: time.Now()}); perr != nil {
				stop()
			}
		}
		return err
	})

	err = g.Wait()
	if errors.Is(err, bus.ErrClosed) {
		err = nil
	}
	log.Info("parley stopped")
	return err
}

// controlOptions maps configuration and preferences onto reducer options.
// Servers named in connect are connected at startup even without
// auto_connect.
func controlOptions(cfg config.Config, p prefs.Prefs, connect []string) (control.Options, error) {
	wanted := make(map[string]bool, len(connect))
	for _, name := range connect {
		srv, ok := cfg.Server(name)
		if !ok {
			return control.Options{}, fmt.Errorf("unknown server %q", name)
		}
		wanted[strings.ToLower(srv.Name)] = true
	}

	servers := make([]control.ServerOptions, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		quit := s.QuitMessage
		if quit == "" {
			quit = cfg.Behavior.QuitMessage
		}
		servers = append(servers, control.ServerOptions{
			Name: s.Name,
			Endpoint: irc.Endpoint{
				Host:               s.Host,
				Port:               s.Port,
				TLS:                s.TLS,
				InsecureSkipVerify: s.InsecureSkipVerify,
				Proxy:              s.Proxy,
				Nick:               s.Nickname,
				Username:           s.Username,
				RealName:           s.Realname,
				Password:           s.Password,
			},
			AltNicks:    s.AltNicks,
			Channels:    s.Channels,
			AutoConnect: s.AutoConnect || wanted[strings.ToLower(s.Name)],
			QuitMessage: quit,
		})
	}

	return control.Options{
		Servers: servers,
		DCC: control.DCCPolicy{
			MaxFileSize:   cfg.DCC.MaxFileSize,
			RejectPrivate: cfg.DCC.RejectPrivateAddresses,
			AutoAccept:    cfg.DCC.AutoAccept,
		},
		Logging: control.LoggingPolicy{
			Enabled:  cfg.Logging.Enabled,
			Channels: cfg.Logging.Channels,
			Queries:  cfg.Logging.Queries,
			Backlog:  cfg.Logging.BacklogLines,
		},
		CTCP: control.CTCPPolicy{
			ReplyVersion:  cfg.CTCP.ReplyVersion,
			ReplyPing:     cfg.CTCP.ReplyPing,
			ReplyTime:     cfg.CTCP.ReplyTime,
			VersionString: cfg.CTCP.VersionString,
		},
		MaxScrollback:     cfg.UI.MaxScrollback,
		BellOnMention:     cfg.Behavior.BellOnMention,
		BellOnPrivate:     cfg.Behavior.BellOnPM,
		AutoReconnect:     cfg.Behavior.AutoReconnect,
		ReconnectAttempts: cfg.Behavior.ReconnectAttempts,
		QuitMessage:       cfg.Behavior.QuitMessage,
		PartMessage:       cfg.Behavior.PartMessage,
		Theme:             p.Theme,
		Ignores:           p.Ignores,
	}, nil
}

// linkDialer dials real IRC links. Server IDs follow configuration order
// starting at 1.
func linkDialer(cfg config.Config, log *logrus.Entry) LinkDialer {
	timeouts := make(map[state.ServerID]time.Duration, len(cfg.Servers))
	for i, s := range cfg.Servers {
		timeouts[state.ServerID(i+1)] = time.Duration(s.ReadTimeoutSeconds) * time.Second
	}
	return func(ctx context.Context, id state.ServerID, ep irc.Endpoint, obs irc.Observer) (Link, error) {
		link, err := irc.Dial(ctx, id, ep, irc.Options{
			ReadTimeout: timeouts[id],
			Logger:      log.WithFields(logrus.Fields{"component": "irc", "server_id": id}),
		}, obs)
		if err != nil {
			return nil, err
		}
		return link, nil
	}
}
