package irc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/five82/parley/internal/state"
)

var (
	// ErrClosed is returned when sending on a closed link.
	ErrClosed = errors.New("link closed")
	// ErrSendQueueFull is returned when the outbound queue is saturated.
	ErrSendQueueFull = errors.New("send queue full")
	// ErrInvalidLine is returned for lines containing CR, LF or NUL.
	ErrInvalidLine = errors.New("line contains forbidden characters")
)

const (
	maxLineBytes = 8192
	writeTimeout = 30 * time.Second
	quitTimeout  = 2 * time.Second
)

// Endpoint describes how to reach and register with one server.
type Endpoint struct {
	Host               string
	Port               int
	TLS                bool
	InsecureSkipVerify bool
	Proxy              string
	Nick               string
	Username           string
	RealName           string
	Password           string
}

// Addr returns host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Options tune a Link. Zero values select defaults.
type Options struct {
	DialTimeout time.Duration
	ReadTimeout time.Duration // zero relies on the socket noticing a disconnect
	SendEvery   time.Duration
	SendBurst   int
	QueueSize   int
	Logger      *logrus.Entry
}

func (o Options) withDefaults() Options {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 15 * time.Second
	}
	if o.SendEvery <= 0 {
		o.SendEvery = 500 * time.Millisecond
	}
	if o.SendBurst <= 0 {
		o.SendBurst = 5
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Logger == nil {
		o.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return o
}

// Observer receives everything a Link reads. Calls come from the link's
// reader goroutine and must not block.
type Observer interface {
	LinkMessage(id state.ServerID, msg Message)
	LinkMalformed(id state.ServerID, raw string, err error)
	// LinkClosed is called exactly once. err is nil after a local Close.
	LinkClosed(id state.ServerID, err error)
}

// Link is one server connection. It owns the socket; a reader goroutine
// decodes lines for the Observer and a writer goroutine drains the outbound
// queue through a rate limiter.
type Link struct {
	id      state.ServerID
	conn    net.Conn
	obs     Observer
	opts    Options
	log     *logrus.Entry
	limiter *rate.Limiter
	out     chan string

	ctx    context.Context
	cancel context.CancelFunc

	writeMu   sync.Mutex
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to ep, sends the registration lines and starts the link's
// goroutines.
func Dial(ctx context.Context, id state.ServerID, ep Endpoint, opts Options, obs Observer) (*Link, error) {
	opts = opts.withDefaults()

	transport, err := NewTransport(ep, opts.DialTimeout)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	conn, err := transport.Dial(dialCtx, ep.Addr())
	if err != nil {
		return nil, err
	}

	l := newLink(id, conn, opts, obs)
	l.log.WithField("addr", ep.Addr()).Info("link connected")
	if err := l.register(ep); err != nil {
		l.Close("")
		return nil, err
	}
	return l, nil
}

func newLink(id state.ServerID, conn net.Conn, opts Options, obs Observer) *Link {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	l := &Link{
		id:      id,
		conn:    conn,
		obs:     obs,
		opts:    opts,
		log:     opts.Logger.WithFields(logrus.Fields{"component": "irc", "server_id": id}),
		limiter: rate.NewLimiter(rate.Every(opts.SendEvery), opts.SendBurst),
		out:     make(chan string, opts.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	l.wg.Add(2)
	go l.readLoop()
	go l.writeLoop()
	return l
}

func (l *Link) register(ep Endpoint) error {
	var lines []string
	if ep.Password != "" {
		lines = append(lines, Pass(ep.Password))
	}
	lines = append(lines, Nick(ep.Nick), User(ep.Username, ep.RealName))
	for _, line := range lines {
		if err := l.SendLine(line); err != nil {
			return fmt.Errorf("register: %w", err)
		}
	}
	return nil
}

// ID returns the server this link belongs to.
func (l *Link) ID() state.ServerID {
	return l.id
}

// SendLine queues one protocol line. It never blocks.
func (l *Link) SendLine(line string) error {
	if !validLine(line) {
		return ErrInvalidLine
	}
	if l.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case l.out <- line:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close sends QUIT when message is non-empty, closes the socket and waits for
// both goroutines to exit.
func (l *Link) Close(message string) {
	if message != "" && l.ctx.Err() == nil {
		l.writeMu.Lock()
		_ = l.conn.SetWriteDeadline(time.Now().Add(quitTimeout))
		_, _ = l.conn.Write([]byte(Quit(message) + "\r\n"))
		l.writeMu.Unlock()
	}
	l.shutdown(nil)
	l.wg.Wait()
}

// Done is closed once the link has shut down.
func (l *Link) Done() <-chan struct{} {
	return l.ctx.Done()
}

func (l *Link) shutdown(err error) {
	l.closeOnce.Do(func() {
		l.cancel()
		_ = l.conn.Close()
		if err != nil {
			l.log.WithError(err).Warn("link closed")
		} else {
			l.log.Info("link closed")
		}
		if l.obs != nil {
			l.obs.LinkClosed(l.id, err)
		}
	})
}

func (l *Link) readLoop() {
	defer l.wg.Done()

	scanner := bufio.NewScanner(l.conn)
	scanner.Buffer(make([]byte, 0, 1024), maxLineBytes)

	for {
		if l.opts.ReadTimeout > 0 {
			_ = l.conn.SetReadDeadline(time.Now().Add(l.opts.ReadTimeout))
		}
		if !scanner.Scan() {
			break
		}
		raw := scanner.Text()
		msg, err := ParseMessage(raw)
		if err != nil {
			if errors.Is(err, ErrEmptyLine) {
				continue
			}
			l.log.WithError(err).WithField("line", raw).Debug("malformed line")
			if l.obs != nil {
				l.obs.LinkMalformed(l.id, raw, err)
			}
			continue
		}
		if msg.Command == "PING" {
			if err := l.SendLine(Pong(msg.Trailing())); err != nil {
				l.log.WithError(err).Warn("pong not queued")
			}
			continue
		}
		if l.obs != nil {
			l.obs.LinkMessage(l.id, msg)
		}
	}

	err := scanner.Err()
	if err == nil {
		err = errors.New("connection closed by server")
	}
	if l.ctx.Err() != nil {
		err = nil
	}
	l.shutdown(err)
}

func (l *Link) writeLoop() {
	defer l.wg.Done()

	for {
		var line string
		select {
		case <-l.ctx.Done():
			return
		case line = <-l.out:
		}

		if err := l.limiter.Wait(l.ctx); err != nil {
			return
		}

		l.writeMu.Lock()
		_ = l.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, err := l.conn.Write([]byte(line + "\r\n"))
		l.writeMu.Unlock()
		if err != nil {
			if l.ctx.Err() == nil {
				l.shutdown(fmt.Errorf("write: %w", err))
			}
			return
		}
	}
}
