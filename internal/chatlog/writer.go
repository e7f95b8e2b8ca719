package chatlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/parley/internal/security"
	"github.com/five82/parley/internal/state"
)

const (
	dateLayout       = "2006-01-02"
	defaultQueueSize = 1024
)

// ErrClosed is returned by Close when called twice.
var ErrClosed = errors.New("chat log closed")

type entry struct {
	server string
	target string
	msg    state.Message
}

// Writer appends buffer lines to daily log files from one goroutine.
type Writer struct {
	dir     string
	log     *logrus.Entry
	queue   chan entry
	dropped atomic.Uint64

	files map[string]*os.File // owned by the run goroutine

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewWriter starts a writer rooted at dir. queueSize bounds the pending
// lines; zero selects a default.
func NewWriter(dir string, queueSize int, logger *logrus.Entry) *Writer {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	w := &Writer{
		dir:   dir,
		log:   logger.WithField("component", "chatlog"),
		queue: make(chan entry, queueSize),
		files: make(map[string]*os.File),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// Write queues msg for the log of target on server. It reports false when
// the line was dropped because the queue is full.
func (w *Writer) Write(server, target string, msg state.Message) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	select {
	case w.queue <- entry{server: server, target: target, msg: msg}:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// Dropped reports how many lines were discarded because the queue was full.
func (w *Writer) Dropped() uint64 {
	return w.dropped.Load()
}

// Close flushes queued lines and closes every open file.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for e := range w.queue {
		if err := w.append(e); err != nil {
			w.log.WithError(err).WithFields(logrus.Fields{"server": e.server, "target": e.target}).Warn("chat log write failed")
		}
	}
	for path, f := range w.files {
		if err := f.Close(); err != nil {
			w.log.WithError(err).WithField("path", path).Warn("close chat log")
		}
	}
}

func (w *Writer) append(e entry) error {
	path := FilePath(w.dir, e.server, e.target, e.msg.At)
	f, ok := w.files[path]
	if !ok {
		w.rotate(filepath.Dir(path), e.msg.At.Format(dateLayout))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		var err error
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open chat log: %w", err)
		}
		w.files[path] = f
	}
	if _, err := f.WriteString(FormatLine(e.msg) + "\n"); err != nil {
		return fmt.Errorf("append chat log: %w", err)
	}
	return nil
}

// rotate closes files in serverDir from other days once a file for day is
// opened there.
func (w *Writer) rotate(serverDir, day string) {
	for path, f := range w.files {
		if filepath.Dir(path) != serverDir || strings.HasSuffix(path, "_"+day+".log") {
			continue
		}
		_ = f.Close()
		delete(w.files, path)
	}
}

// FilePath returns the log file for target on server on the day of at.
func FilePath(dir, server, target string, at time.Time) string {
	return filepath.Join(dir, componentName(server), componentName(target)+"_"+at.Format(dateLayout)+".log")
}

// componentName maps a network-supplied name to one safe path component.
func componentName(name string) string {
	clean, ok := security.SanitizeFilename(strings.ToLower(name))
	if !ok {
		return "_"
	}
	return clean
}

// FormatLine renders msg the way it is stored on disk.
func FormatLine(msg state.Message) string {
	stamp := msg.At.Format("[15:04:05]")
	text := strings.NewReplacer("\r", " ", "\n", " ").Replace(msg.Text)
	switch msg.Kind {
	case state.KindAction:
		return fmt.Sprintf("%s * %s %s", stamp, msg.Sender, text)
	case state.KindNotice:
		return fmt.Sprintf("%s -%s- %s", stamp, msg.Sender, text)
	case state.KindSystem, state.KindError:
		return fmt.Sprintf("%s %s %s", stamp, msg.Sender, text)
	default:
		return fmt.Sprintf("%s <%s> %s", stamp, msg.Sender, text)
	}
}
