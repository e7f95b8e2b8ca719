package app

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/parley/internal/bus"
	"github.com/five82/parley/internal/control"
	"github.com/five82/parley/internal/dcc"
	"github.com/five82/parley/internal/irc"
	"github.com/five82/parley/internal/prefs"
	"github.com/five82/parley/internal/state"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const srvID state.ServerID = 1

type fakeLink struct {
	mu     sync.Mutex
	sent   []string
	closed bool
	quit   string
	err    error
}

func (l *fakeLink) SendLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.sent = append(l.sent, line)
	return nil
}

func (l *fakeLink) Close(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.quit = message
}

func (l *fakeLink) lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.sent...)
}

func (l *fakeLink) closedWith() (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed, l.quit
}

type fakeTransfers struct {
	mu        sync.Mutex
	accepted  []control.AcceptTransfer
	cancelled []state.TransferID
	live      []control.LiveTransfer
	acceptErr error
	shutdown  bool
}

func (f *fakeTransfers) Accept(req control.AcceptTransfer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acceptErr != nil {
		return f.acceptErr
	}
	f.accepted = append(f.accepted, req)
	return nil
}

func (f *fakeTransfers) Cancel(id state.TransferID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
}

func (f *fakeTransfers) List() []control.LiveTransfer { return f.live }

func (f *fakeTransfers) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
	return nil
}

func (f *fakeTransfers) wasShutdown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdown
}

type fakePresenter struct {
	mu    sync.Mutex
	snaps []state.Snapshot
	notes []string
	bells int
}

func (p *fakePresenter) Refresh(snap state.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, snap)
}

func (p *fakePresenter) Notify(text string, bell bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, text)
	if bell {
		p.bells++
	}
}

type fakeChatLog struct {
	targets []string
}

func (c *fakeChatLog) Write(server, target string, msg state.Message) bool {
	c.targets = append(c.targets, server+"/"+target+": "+msg.Text)
	return true
}

type harness struct {
	d         *Dispatcher
	events    *bus.Bus[control.Event]
	link      *fakeLink
	transfers *fakeTransfers
	presenter *fakePresenter
	chatlog   *fakeChatLog
	saved     []prefs.Prefs
	dialed    chan irc.Observer
}

func testOptions(autoConnect bool) control.Options {
	return control.Options{
		Servers: []control.ServerOptions{{
			Name:        "libera",
			Endpoint:    irc.Endpoint{Host: "irc.libera.chat", Port: 6697, TLS: true, Nick: "parley", Username: "parley"},
			Channels:    []string{"#go"},
			AutoConnect: autoConnect,
		}},
		DCC:         control.DCCPolicy{MaxFileSize: 1 << 20, RejectPrivate: true},
		QuitMessage: "leaving",
	}
}

func newHarness(t *testing.T, opts control.Options) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()
	h := &harness{
		events:    bus.New[control.Event](),
		link:      &fakeLink{},
		transfers: &fakeTransfers{},
		presenter: &fakePresenter{},
		chatlog:   &fakeChatLog{},
		dialed:    make(chan irc.Observer, 4),
	}
	h.d = NewDispatcher(Deps{
		Reducer: control.New(opts),
		Events:  h.events,
		Dial: func(ctx context.Context, id state.ServerID, ep irc.Endpoint, obs irc.Observer) (Link, error) {
			h.dialed <- obs
			return h.link, nil
		},
		Transfers: h.transfers,
		ChatLog:   h.chatlog,
		Backlog: func(server, target string, n int) ([]string, error) {
			return []string{"[09:00:00] <alice> earlier"}, nil
		},
		BacklogLines: 10,
		SavePrefs: func(p prefs.Prefs) error {
			h.saved = append(h.saved, p)
			return nil
		},
		Presenter: h.presenter,
		Now:       func() time.Time { return t0 },
		Logger:    logger.WithField("test", t.Name()),
	})
	t.Cleanup(h.events.Close)
	return h
}

// start initializes state without running the event loop.
func (h *harness) start() {
	h.d.app, _ = h.d.deps.Reducer.Initial(t0)
}

func expect[T control.Event](t *testing.T, events *bus.Bus[control.Event]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := events.Next(ctx)
	require.NoError(t, err)
	got, ok := ev.(T)
	require.Truef(t, ok, "got %T, want %T", ev, *new(T))
	return got
}

func inbound(t *testing.T, raw string) irc.Message {
	t.Helper()
	msg, err := irc.ParseMessage(raw)
	require.NoError(t, err)
	return msg
}

func TestRun_ConnectRegisterAndQuit(t *testing.T) {
	h := newHarness(t, testOptions(true))

	done := make(chan error, 1)
	go func() { done <- h.d.Run(context.Background()) }()

	var obs irc.Observer
	select {
	case obs = <-h.dialed:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-connect server was never dialed")
	}
	require.Eventually(t, func() bool { return h.d.link(srvID) != nil }, 2*time.Second, time.Millisecond)

	obs.LinkMessage(srvID, inbound(t, ":irc.libera.chat 001 parley :Welcome"))
	require.Eventually(t, func() bool {
		for _, line := range h.link.lines() {
			if line == "JOIN #go" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, h.events.Publish(control.QuitRequested{Message: "bye", At: t0}))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after quit")
	}

	closed, msg := h.link.closedWith()
	assert.True(t, closed)
	assert.Equal(t, "bye", msg)
	assert.True(t, h.transfers.wasShutdown())
}

func TestRun_ContextCancelShutsDown(t *testing.T) {
	h := newHarness(t, testOptions(false))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.d.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run ignored cancellation")
	}
	assert.True(t, h.transfers.wasShutdown())
}

func TestRun_ClosedBusIsAnError(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.events.Close()

	err := h.d.Run(context.Background())
	require.ErrorIs(t, err, bus.ErrClosed)
}

func TestStep_TickPublishesOnlyWhenDirty(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.start()
	require.True(t, h.d.app.Redraw)

	h.d.Step(context.Background(), control.Tick{At: t0})
	require.Len(t, h.presenter.snaps, 1)
	assert.EqualValues(t, 1, h.presenter.snaps[0].Version)
	assert.False(t, h.d.app.Redraw)

	h.d.Step(context.Background(), control.Tick{At: t0.Add(time.Second)})
	assert.Len(t, h.presenter.snaps, 1, "no change, no new snapshot")

	h.d.Step(context.Background(), control.InputLine{Text: "/help", At: t0})
	assert.Len(t, h.presenter.snaps, 1, "snapshots wait for the next tick")
	h.d.Step(context.Background(), control.Tick{At: t0.Add(2 * time.Second)})
	assert.Len(t, h.presenter.snaps, 2)
}

func TestSendWithoutLinkFails(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.start()

	h.d.execute(context.Background(), []control.Request{control.SendLine{Server: srvID, Line: "PRIVMSG bob :hi"}})

	ev := expect[control.RequestFailed](t, h.events)
	assert.Equal(t, srvID, ev.Server)
	assert.Equal(t, "send", ev.Request)
	assert.Equal(t, irc.ErrClosed.Error(), ev.Err)
}

func TestLinkClosedForgetsLink(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.start()
	h.d.links[srvID] = h.link

	h.d.Step(context.Background(), control.LinkClosed{Server: srvID, Err: "reset by peer", At: t0})
	assert.Nil(t, h.d.link(srvID))
}

func TestConnectTwiceFails(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.start()
	h.d.links[srvID] = h.link

	h.d.execute(context.Background(), []control.Request{control.Connect{Server: srvID}})
	ev := expect[control.RequestFailed](t, h.events)
	assert.Equal(t, "connect", ev.Request)
}

func TestDialOutcomes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t, testOptions(false))
		h.start()
		h.d.execute(context.Background(), []control.Request{control.Connect{Server: srvID}})
		expect[control.LinkConnected](t, h.events)
		assert.Equal(t, Link(h.link), h.d.link(srvID))
	})

	t.Run("failure", func(t *testing.T) {
		h := newHarness(t, testOptions(false))
		h.start()
		h.d.deps.Dial = func(context.Context, state.ServerID, irc.Endpoint, irc.Observer) (Link, error) {
			return nil, errors.New("connection refused")
		}
		h.d.execute(context.Background(), []control.Request{control.Connect{Server: srvID}})
		ev := expect[control.LinkDialFailed](t, h.events)
		assert.Equal(t, "connection refused", ev.Err)
		assert.Nil(t, h.d.link(srvID))
	})

	t.Run("disconnect while dialing", func(t *testing.T) {
		h := newHarness(t, testOptions(false))
		h.start()
		entered := make(chan struct{})
		h.d.deps.Dial = func(ctx context.Context, _ state.ServerID, _ irc.Endpoint, _ irc.Observer) (Link, error) {
			close(entered)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		h.d.execute(context.Background(), []control.Request{control.Connect{Server: srvID}})
		<-entered
		h.d.execute(context.Background(), []control.Request{control.Disconnect{Server: srvID}})

		ev := expect[control.LinkClosed](t, h.events)
		assert.Empty(t, ev.Err, "a cancelled dial is a clean close")
	})
}

func TestLinkDroppedWhileDialingCanReconnect(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.start()
	dead := &fakeLink{}
	h.d.deps.Dial = func(_ context.Context, id state.ServerID, _ irc.Endpoint, obs irc.Observer) (Link, error) {
		obs.LinkMessage(id, inbound(t, ":irc.libera.chat NOTICE * :Looking up your hostname"))
		obs.LinkClosed(id, errors.New("connection reset by peer"))
		return dead, nil
	}
	ctx := context.Background()
	h.d.execute(ctx, []control.Request{control.Connect{Server: srvID}})

	h.d.Step(ctx, expect[control.LinkConnected](t, h.events))
	h.d.Step(ctx, expect[control.LinkMessage](t, h.events))
	closed := expect[control.LinkClosed](t, h.events)
	assert.Equal(t, "connection reset by peer", closed.Err)
	h.d.Step(ctx, closed)

	assert.Nil(t, h.d.link(srvID))
	app := h.d.State()
	assert.Equal(t, state.Disconnected, app.Server(srvID).Status)

	h.d.deps.Dial = func(context.Context, state.ServerID, irc.Endpoint, irc.Observer) (Link, error) {
		return h.link, nil
	}
	h.d.execute(ctx, []control.Request{control.Connect{Server: srvID}})
	expect[control.LinkConnected](t, h.events)
	assert.Equal(t, Link(h.link), h.d.link(srvID))
}

func TestFailedDialDropsLinkCallbacks(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.start()
	h.d.deps.Dial = func(_ context.Context, id state.ServerID, _ irc.Endpoint, obs irc.Observer) (Link, error) {
		obs.LinkClosed(id, nil)
		return nil, errors.New("register: link closed")
	}
	h.d.execute(context.Background(), []control.Request{control.Connect{Server: srvID}})

	expect[control.LinkDialFailed](t, h.events)
	assert.Zero(t, h.events.Len())
}

func TestAcceptErrors(t *testing.T) {
	req := control.AcceptTransfer{
		ID: 3, Server: srvID, From: "alice", Offered: "notes.txt",
		Addr: netip.MustParseAddr("203.0.113.7"), Port: 5000, Size: 10,
	}

	t.Run("admission", func(t *testing.T) {
		h := newHarness(t, testOptions(false))
		h.transfers.acceptErr = &dcc.AdmissionError{
			Reason: state.ReasonContainmentViolation,
			Err:    errors.New("path escapes download directory"),
		}
		h.d.execute(context.Background(), []control.Request{req})

		ev := expect[control.TransferFailed](t, h.events)
		assert.Equal(t, state.TransferID(3), ev.ID)
		assert.Equal(t, state.ReasonContainmentViolation, ev.Reason)
		assert.Equal(t, "path escapes download directory", ev.Detail)
	})

	t.Run("other", func(t *testing.T) {
		h := newHarness(t, testOptions(false))
		h.transfers.acceptErr = dcc.ErrAlreadyRunning
		h.d.execute(context.Background(), []control.Request{req})

		ev := expect[control.RequestFailed](t, h.events)
		assert.Equal(t, "accept transfer", ev.Request)
	})

	t.Run("accepted", func(t *testing.T) {
		h := newHarness(t, testOptions(false))
		h.d.execute(context.Background(), []control.Request{req})
		require.Len(t, h.transfers.accepted, 1)
		assert.Equal(t, 0, h.events.Len())
	})
}

func TestTransferRequests(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.transfers.live = []control.LiveTransfer{{ID: 2, Bytes: 512}}

	h.d.execute(context.Background(), []control.Request{
		control.CancelTransfer{ID: 2},
		control.ListTransfers{},
	})

	assert.Equal(t, []state.TransferID{2}, h.transfers.cancelled)
	ev := expect[control.TransferListing](t, h.events)
	assert.Equal(t, h.transfers.live, ev.Live)
}

func TestSideEffectRequests(t *testing.T) {
	h := newHarness(t, testOptions(false))
	msg := state.Message{Sender: "alice", Text: "hello", At: t0}

	h.d.execute(context.Background(), []control.Request{
		control.LogMessage{Server: "libera", Target: "#go", Msg: msg},
		control.Notify{Text: "alice mentioned you", Bell: true},
		control.SavePrefs{Theme: "Slate", Ignores: []string{"troll"}},
	})

	assert.Equal(t, []string{"libera/#go: hello"}, h.chatlog.targets)
	assert.Equal(t, []string{"alice mentioned you"}, h.presenter.notes)
	assert.Equal(t, 1, h.presenter.bells)
	assert.Equal(t, []prefs.Prefs{{Theme: "Slate", Ignores: []string{"troll"}}}, h.saved)
}

func TestSavePrefsFailure(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.d.deps.SavePrefs = func(prefs.Prefs) error { return errors.New("read-only file system") }

	h.d.execute(context.Background(), []control.Request{control.SavePrefs{Theme: "Slate"}})
	ev := expect[control.RequestFailed](t, h.events)
	assert.Equal(t, "save preferences", ev.Request)
	assert.Contains(t, ev.Err, "read-only")
}

func TestLoadBacklog(t *testing.T) {
	h := newHarness(t, testOptions(false))
	key := state.ChannelKey(srvID, "#go")

	h.d.execute(context.Background(), []control.Request{control.LoadBacklog{Key: key, Server: "libera", Target: "#go"}})
	ev := expect[control.BacklogLoaded](t, h.events)
	assert.Equal(t, key, ev.Key)
	assert.Equal(t, []string{"[09:00:00] <alice> earlier"}, ev.Lines)
}

func TestScheduleReconnect(t *testing.T) {
	h := newHarness(t, testOptions(false))

	h.d.execute(context.Background(), []control.Request{control.ScheduleReconnect{Server: srvID, Delay: time.Millisecond}})
	ev := expect[control.ReconnectDue](t, h.events)
	assert.Equal(t, srvID, ev.Server)
}

func TestQuitRequestStopsProcessing(t *testing.T) {
	h := newHarness(t, testOptions(false))
	h.start()
	h.d.links[srvID] = h.link

	quit := h.d.execute(context.Background(), []control.Request{
		control.Quit{Message: "bye"},
		control.SendLine{Server: srvID, Line: "PRIVMSG bob :too late"},
	})

	assert.True(t, quit)
	assert.Empty(t, h.link.lines())
	closed, msg := h.link.closedWith()
	assert.True(t, closed)
	assert.Equal(t, "bye", msg)
	assert.True(t, h.transfers.wasShutdown())
}
