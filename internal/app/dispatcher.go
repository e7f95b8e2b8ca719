package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/parley/internal/control"
	"github.com/five82/parley/internal/dcc"
	"github.com/five82/parley/internal/irc"
	"github.com/five82/parley/internal/prefs"
	"github.com/five82/parley/internal/state"
)

const defaultShutdownTimeout = 5 * time.Second

// Events is the dispatcher's view of the event bus.
type Events interface {
	Publish(ev control.Event) error
	Next(ctx context.Context) (control.Event, error)
}

// Link is an open server connection.
type Link interface {
	SendLine(line string) error
	Close(message string)
}

// LinkDialer opens a server connection whose inbound traffic goes to obs.
type LinkDialer func(ctx context.Context, id state.ServerID, ep irc.Endpoint, obs irc.Observer) (Link, error)

// Transfers is the transfer manager.
type Transfers interface {
	Accept(req control.AcceptTransfer) error
	Cancel(id state.TransferID)
	List() []control.LiveTransfer
	Shutdown(ctx context.Context) error
}

// ChatLog receives lines from logged buffers.
type ChatLog interface {
	Write(server, target string, msg state.Message) bool
}

// BacklogReader returns the last n logged lines of a conversation.
type BacklogReader func(server, target string, n int) ([]string, error)

// Presenter shows state to the user.
type Presenter interface {
	Refresh(snap state.Snapshot)
	Notify(text string, bell bool)
}

// Deps are the dispatcher's collaborators. ChatLog, Backlog, SavePrefs and
// Presenter may be nil.
type Deps struct {
	Reducer         *control.Reducer
	Events          Events
	Store           *state.Store
	Dial            LinkDialer
	Transfers       Transfers
	ChatLog         ChatLog
	Backlog         BacklogReader
	BacklogLines    int
	SavePrefs       func(prefs.Prefs) error
	Presenter       Presenter
	Now             func() time.Time
	ShutdownTimeout time.Duration
	Logger          *logrus.Entry
}

// Dispatcher is the only consumer of the event bus and the only owner of
// the application state.
type Dispatcher struct {
	deps Deps
	log  *logrus.Entry
	app  state.App

	mu      sync.Mutex
	links   map[state.ServerID]Link
	dialing map[state.ServerID]context.CancelFunc
	timers  map[state.ServerID]*time.Timer
	wg      sync.WaitGroup
}

// NewDispatcher returns a dispatcher over deps.
func NewDispatcher(deps Deps) *Dispatcher {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ShutdownTimeout <= 0 {
		deps.ShutdownTimeout = defaultShutdownTimeout
	}
	if deps.Logger == nil {
		deps.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if deps.Store == nil {
		deps.Store = &state.Store{}
	}
	return &Dispatcher{
		deps:    deps,
		log:     deps.Logger.WithField("component", "dispatcher"),
		links:   make(map[state.ServerID]Link),
		dialing: make(map[state.ServerID]context.CancelFunc),
		timers:  make(map[state.ServerID]*time.Timer),
	}
}

// Run processes events until a Quit request, ctx cancellation or bus
// failure. Every link and transfer worker is closed before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	app, reqs := d.deps.Reducer.Initial(d.deps.Now())
	d.app = app
	if d.execute(ctx, reqs) {
		return nil
	}
	d.present(d.deps.Now())

	for {
		ev, err := d.deps.Events.Next(ctx)
		if err != nil {
			d.shutdown("")
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("event bus: %w", err)
		}

		if quit := d.Step(ctx, ev); quit {
			return nil
		}
	}
}

// Step reduces one event and executes the resulting requests. It reports
// whether a Quit request has been carried out.
func (d *Dispatcher) Step(ctx context.Context, ev control.Event) bool {
	if closed, ok := ev.(control.LinkClosed); ok {
		d.forgetLink(closed.Server)
	}

	next, reqs := d.deps.Reducer.Reduce(d.app, ev)
	d.app = next

	if tick, ok := ev.(control.Tick); ok && d.app.Redraw {
		d.present(tick.At)
	}
	return d.execute(ctx, reqs)
}

// State returns a copy of the current application state.
func (d *Dispatcher) State() state.App {
	return d.app.Clone()
}

func (d *Dispatcher) present(at time.Time) {
	d.deps.Store.Publish(d.app, at)
	d.app.Redraw = false
	if d.deps.Presenter != nil {
		d.deps.Presenter.Refresh(d.deps.Store.Snapshot())
	}
}

func (d *Dispatcher) execute(ctx context.Context, reqs []control.Request) bool {
	for _, req := range reqs {
		if quit, ok := req.(control.Quit); ok {
			d.shutdown(quit.Message)
			return true
		}
		if err := d.perform(ctx, req); err != nil {
			d.fail(req, err)
		}
	}
	return false
}

// perform executes one request. A returned error is fed back as an event.
func (d *Dispatcher) perform(ctx context.Context, req control.Request) error {
	switch r := req.(type) {
	case control.Connect:
		return d.connect(ctx, r)
	case control.Disconnect:
		d.disconnect(r.Server, r.Message)
	case control.SendLine:
		link := d.link(r.Server)
		if link == nil {
			return irc.ErrClosed
		}
		return link.SendLine(r.Line)
	case control.AcceptTransfer:
		return d.deps.Transfers.Accept(r)
	case control.CancelTransfer:
		d.deps.Transfers.Cancel(r.ID)
	case control.ListTransfers:
		d.publish(control.TransferListing{Live: d.deps.Transfers.List(), At: d.deps.Now()})
	case control.LogMessage:
		if d.deps.ChatLog != nil && !d.deps.ChatLog.Write(r.Server, r.Target, r.Msg) {
			d.log.WithField("target", r.Target).Debug("chat log queue full, line dropped")
		}
	case control.LoadBacklog:
		d.loadBacklog(r)
	case control.Notify:
		if d.deps.Presenter != nil {
			d.deps.Presenter.Notify(r.Text, r.Bell)
		}
	case control.SavePrefs:
		if d.deps.SavePrefs != nil {
			return d.deps.SavePrefs(prefs.Prefs{Theme: r.Theme, Ignores: r.Ignores})
		}
	case control.ScheduleReconnect:
		d.scheduleReconnect(r)
	default:
		return fmt.Errorf("unhandled request %T", req)
	}
	return nil
}

// fail converts a synchronous request failure into an event.
func (d *Dispatcher) fail(req control.Request, err error) {
	at := d.deps.Now()
	var adm *dcc.AdmissionError
	if accept, ok := req.(control.AcceptTransfer); ok && errors.As(err, &adm) {
		detail := string(adm.Reason)
		if adm.Err != nil {
			detail = adm.Err.Error()
		}
		d.publish(control.TransferFailed{ID: accept.ID, Reason: adm.Reason, Detail: detail, At: at})
		return
	}

	var server state.ServerID
	switch r := req.(type) {
	case control.SendLine:
		server = r.Server
	case control.Connect:
		server = r.Server
	case control.AcceptTransfer:
		server = r.Server
	}
	d.log.WithError(err).WithField("request", control.RequestName(req)).Warn("request failed")
	d.publish(control.RequestFailed{Server: server, Request: control.RequestName(req), Err: err.Error(), At: at})
}

func (d *Dispatcher) publish(ev control.Event) {
	if err := d.deps.Events.Publish(ev); err != nil {
		d.log.WithError(err).WithField("event", fmt.Sprintf("%T", ev)).Warn("event dropped")
	}
}

func (d *Dispatcher) link(id state.ServerID) Link {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.links[id]
}

func (d *Dispatcher) forgetLink(id state.ServerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.links, id)
}

// connect dials in the background; the outcome arrives as LinkConnected or
// LinkDialFailed.
func (d *Dispatcher) connect(ctx context.Context, r control.Connect) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.links[r.Server]; ok {
		return errors.New("already connected")
	}
	if _, ok := d.dialing[r.Server]; ok {
		return errors.New("connection attempt in progress")
	}
	if t, ok := d.timers[r.Server]; ok {
		t.Stop()
		delete(d.timers, r.Server)
	}

	dialCtx, cancel := context.WithCancel(ctx)
	d.dialing[r.Server] = cancel
	obs := &linkObserver{events: d.deps.Events, now: d.deps.Now, log: d.log}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		link, err := d.deps.Dial(dialCtx, r.Server, r.Endpoint, obs)

		d.mu.Lock()
		_, wanted := d.dialing[r.Server]
		delete(d.dialing, r.Server)
		if err == nil && wanted {
			d.links[r.Server] = link
		}
		d.mu.Unlock()

		switch {
		case err != nil && dialCtx.Err() != nil:
			obs.open(false)
			d.publish(control.LinkClosed{Server: r.Server, At: d.deps.Now()})
		case err != nil:
			obs.open(false)
			d.log.WithError(err).WithField("addr", r.Endpoint.Addr()).Warn("dial failed")
			d.publish(control.LinkDialFailed{Server: r.Server, Err: err.Error(), At: d.deps.Now()})
		case !wanted:
			obs.open(false)
			d.publish(control.LinkClosed{Server: r.Server, At: d.deps.Now()})
			link.Close("")
		default:
			d.publish(control.LinkConnected{Server: r.Server, At: d.deps.Now()})
			obs.open(true)
		}
	}()
	return nil
}

func (d *Dispatcher) disconnect(id state.ServerID, message string) {
	d.mu.Lock()
	cancel, dialing := d.dialing[id]
	delete(d.dialing, id)
	link := d.links[id]
	d.mu.Unlock()

	if dialing {
		cancel()
	}
	if link != nil {
		link.Close(message)
	}
}

func (d *Dispatcher) scheduleReconnect(r control.ScheduleReconnect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[r.Server]; ok {
		t.Stop()
	}
	d.timers[r.Server] = time.AfterFunc(r.Delay, func() {
		d.publish(control.ReconnectDue{Server: r.Server, At: d.deps.Now()})
	})
}

func (d *Dispatcher) loadBacklog(r control.LoadBacklog) {
	if d.deps.Backlog == nil || d.deps.BacklogLines <= 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		lines, err := d.deps.Backlog(r.Server, r.Target, d.deps.BacklogLines)
		if err != nil {
			d.log.WithError(err).WithField("target", r.Target).Warn("backlog unavailable")
			return
		}
		if len(lines) > 0 {
			d.publish(control.BacklogLoaded{Key: r.Key, Lines: lines, At: d.deps.Now()})
		}
	}()
}

// shutdown closes every link with message, stops reconnect timers, and
// waits for transfer workers and background dials.
func (d *Dispatcher) shutdown(message string) {
	d.mu.Lock()
	for _, t := range d.timers {
		t.Stop()
	}
	for _, cancel := range d.dialing {
		cancel()
	}
	d.dialing = make(map[state.ServerID]context.CancelFunc)
	links := d.links
	d.links = make(map[state.ServerID]Link)
	d.mu.Unlock()

	for id, link := range links {
		d.log.WithField("server_id", id).Info("closing link")
		link.Close(message)
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.deps.ShutdownTimeout)
	defer cancel()
	if err := d.deps.Transfers.Shutdown(ctx); err != nil {
		d.log.WithError(err).Warn("transfer workers still running at exit")
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.log.Warn("background work still running at exit")
	}
}
