package dcc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/parley/internal/control"
	"github.com/five82/parley/internal/security"
	"github.com/five82/parley/internal/state"
)

const (
	defaultChunkSize      = 8 * 1024
	defaultProgressEvery  = 250 * time.Millisecond
	defaultConnectTimeout = 30 * time.Second
	defaultMaxFileSize    = 4 * 1024 * 1024 * 1024
)

var (
	// ErrTooLarge rejects offers above the configured size limit.
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrRejectedAddress rejects offers from non-public addresses.
	ErrRejectedAddress = errors.New("sender address rejected")
	// ErrNoFreeName is returned when every collision suffix is taken.
	ErrNoFreeName = security.ErrNoFreeName
	// ErrAlreadyRunning is returned when a transfer is accepted twice.
	ErrAlreadyRunning = errors.New("transfer already running")
	// ErrAlreadyFinished is returned when a transfer that has already run,
	// or was cancelled, is accepted again.
	ErrAlreadyFinished = errors.New("transfer already finished")
	// ErrShutdown is returned once Shutdown has been called.
	ErrShutdown = errors.New("transfer manager shut down")
)

// AdmissionError is returned by Accept when an offer fails admission. The
// transfer should be marked Failed with Reason.
type AdmissionError struct {
	Reason state.FailureReason
	Err    error
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *AdmissionError) Unwrap() error {
	return e.Err
}

func admissionError(reason state.FailureReason, err error) *AdmissionError {
	return &AdmissionError{Reason: reason, Err: err}
}

// Publisher receives worker events. bus.Bus[control.Event] satisfies it.
type Publisher interface {
	Publish(ev control.Event) error
}

// DialFunc opens the data connection to a sender.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config is the transfer policy. Zero values select defaults, except
// DownloadDir which is required.
type Config struct {
	DownloadDir    string
	MaxFileSize    uint64
	RejectPrivate  bool
	ConnectTimeout time.Duration
	ChunkSize      int
	ProgressEvery  time.Duration
	RemovePartial  bool

	Dial   DialFunc
	Now    func() time.Time
	Logger *logrus.Entry
}

func (c Config) withDefaults() Config {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = defaultMaxFileSize
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = defaultProgressEvery
	}
	if c.Dial == nil {
		c.Dial = (&net.Dialer{}).DialContext
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return c
}

// Manager admits offers and runs one worker per accepted transfer.
type Manager struct {
	cfg Config
	pub Publisher
	log *logrus.Entry

	mu       sync.Mutex
	workers  map[state.TransferID]*worker
	reserved map[string]state.TransferID
	settled  map[state.TransferID]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewManager returns a manager publishing worker events to pub.
func NewManager(cfg Config, pub Publisher) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:      cfg,
		pub:      pub,
		log:      cfg.Logger.WithField("component", "dcc"),
		workers:  make(map[state.TransferID]*worker),
		reserved: make(map[string]state.TransferID),
		settled:  make(map[state.TransferID]struct{}),
	}
}

// Accept runs the admission pipeline for req and, when it passes, publishes
// TransferStarted and starts a worker. Admission failures are returned as
// *AdmissionError and nothing is published for them.
func (m *Manager) Accept(req control.AcceptTransfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrShutdown
	}
	if _, ok := m.workers[req.ID]; ok {
		return fmt.Errorf("transfer %d: %w", req.ID, ErrAlreadyRunning)
	}
	if _, ok := m.settled[req.ID]; ok {
		return fmt.Errorf("transfer %d: %w", req.ID, ErrAlreadyFinished)
	}

	if req.Size > m.cfg.MaxFileSize {
		return admissionError(state.ReasonTooLarge,
			fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, req.Size, m.cfg.MaxFileSize))
	}
	addr := req.Addr.Unmap()
	if class := security.ClassifyAddress(addr); m.cfg.RejectPrivate && !class.IsPublic() {
		return admissionError(state.ReasonRejectedAddress,
			fmt.Errorf("%w: %s is %s", ErrRejectedAddress, addr, class))
	}

	name, ok := security.SanitizeFilename(req.Offered)
	if !ok {
		name = fmt.Sprintf("dcc-transfer-%d", req.ID)
	}
	if err := os.MkdirAll(m.cfg.DownloadDir, 0o755); err != nil {
		return admissionError(state.ReasonIO, fmt.Errorf("create download dir: %w", err))
	}
	path, err := security.UniquePath(m.cfg.DownloadDir, name, func(p string) bool {
		_, taken := m.reserved[p]
		return taken
	})
	switch {
	case errors.Is(err, security.ErrContainment):
		return admissionError(state.ReasonContainmentViolation, err)
	case err != nil:
		return admissionError(state.ReasonIO, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		id:     req.ID,
		peer:   netip.AddrPortFrom(addr, req.Port),
		size:   req.Size,
		path:   path,
		ctx:    ctx,
		cancel: cancel,
		cfg:    m.cfg,
		pub:    m.pub,
		log: m.log.WithFields(logrus.Fields{
			"transfer_id": req.ID,
			"from":        req.From,
			"peer":        netip.AddrPortFrom(addr, req.Port).String(),
		}),
	}
	m.workers[req.ID] = w
	m.reserved[path] = req.ID
	m.settled[req.ID] = struct{}{}

	w.log.WithFields(logrus.Fields{"path": path, "size": req.Size}).Info("transfer admitted")
	m.publish(control.TransferStarted{ID: req.ID, Filename: name, Path: path, At: m.cfg.Now()})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		w.run()
		m.release(w)
	}()
	return nil
}

func (m *Manager) release(w *worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.workers, w.id)
	delete(m.reserved, w.path)
}

// Cancel stops transfer id. A running worker reports TransferCancelled
// itself once it has closed its file and socket; a transfer with no worker
// is reported cancelled immediately.
func (m *Manager) Cancel(id state.TransferID) {
	m.mu.Lock()
	w, ok := m.workers[id]
	m.settled[id] = struct{}{}
	m.mu.Unlock()

	if ok {
		w.log.Info("cancel requested")
		w.cancel()
		return
	}
	m.publish(control.TransferCancelled{ID: id, At: m.cfg.Now()})
}

// List returns the live byte counts of running workers ordered by id.
func (m *Manager) List() []control.LiveTransfer {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := make([]control.LiveTransfer, 0, len(m.workers))
	for id, w := range m.workers {
		live = append(live, control.LiveTransfer{ID: id, Bytes: w.received.Load()})
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })
	return live
}

// Active reports the number of running workers.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// Shutdown refuses new transfers, cancels running ones and waits for every
// worker to exit or ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	for _, w := range m.workers {
		w.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("await transfer workers: %w", ctx.Err())
	}
}

func (m *Manager) publish(ev control.Event) {
	if err := m.pub.Publish(ev); err != nil {
		m.log.WithError(err).WithField("event", fmt.Sprintf("%T", ev)).Warn("dropping transfer event")
	}
}
