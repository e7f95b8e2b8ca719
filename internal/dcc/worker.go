package dcc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/parley/internal/control"
	"github.com/five82/parley/internal/state"
)

// worker receives one file. It exclusively owns its socket and file; the
// manager only reads received and calls cancel.
type worker struct {
	id   state.TransferID
	peer netip.AddrPort
	size uint64
	path string

	ctx    context.Context
	cancel context.CancelFunc

	cfg Config
	pub Publisher
	log *logrus.Entry

	received atomic.Uint64
}

// outcome is how a worker ended.
type outcome struct {
	reason state.FailureReason
	err    error
}

func (w *worker) run() {
	defer w.cancel()

	start := w.cfg.Now()
	out := w.receive()
	bytes := w.received.Load()
	at := w.cfg.Now()
	log := w.log.WithFields(logrus.Fields{"bytes": bytes, "elapsed": at.Sub(start).Round(time.Millisecond)})

	switch {
	case out.err == nil:
		log.Info("transfer completed")
		w.publish(control.TransferCompleted{ID: w.id, Bytes: bytes, At: at})
	case errors.Is(out.err, context.Canceled):
		log.Info("transfer cancelled")
		w.publish(control.TransferCancelled{ID: w.id, Bytes: bytes, At: at})
	default:
		log.WithError(out.err).WithField("reason", out.reason).Warn("transfer failed")
		w.publish(control.TransferFailed{ID: w.id, Reason: out.reason, Detail: out.err.Error(), At: at})
	}
}

func (w *worker) receive() outcome {
	dialCtx, cancel := context.WithTimeout(w.ctx, w.cfg.ConnectTimeout)
	conn, err := w.cfg.Dial(dialCtx, "tcp", w.peer.String())
	cancel()
	if err != nil {
		if w.ctx.Err() != nil {
			return outcome{err: context.Canceled}
		}
		return outcome{reason: state.ReasonConnectFailed, err: fmt.Errorf("connect %s: %w", w.peer, err)}
	}
	defer conn.Close()

	// Unblock a pending read or write as soon as the transfer is cancelled.
	stop := context.AfterFunc(w.ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	file, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return outcome{reason: state.ReasonIO, err: fmt.Errorf("create %s: %w", w.path, err)}
	}

	err = w.copy(conn, file)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", w.path, cerr)
	}
	if err == nil {
		return outcome{}
	}

	if w.cfg.RemovePartial {
		if rerr := os.Remove(w.path); rerr != nil {
			w.log.WithError(rerr).Warn("remove partial file")
		}
	}
	if w.ctx.Err() != nil {
		return outcome{err: context.Canceled}
	}
	return outcome{reason: state.ReasonIO, err: err}
}

// copy moves exactly w.size bytes from conn to file, acknowledging each read
// with the cumulative count.
func (w *worker) copy(conn net.Conn, file io.Writer) error {
	buf := make([]byte, w.cfg.ChunkSize)
	var ack [4]byte
	var received uint64
	lastProgress := w.cfg.Now()

	for received < w.size {
		want := uint64(len(buf))
		if remaining := w.size - received; remaining < want {
			want = remaining
		}

		n, rerr := conn.Read(buf[:want])
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return fmt.Errorf("write %s: %w", w.path, err)
			}
			received += uint64(n)
			w.received.Store(received)

			binary.BigEndian.PutUint32(ack[:], uint32(received))
			if _, err := conn.Write(ack[:]); err != nil {
				return fmt.Errorf("send ack: %w", err)
			}

			if now := w.cfg.Now(); now.Sub(lastProgress) >= w.cfg.ProgressEvery {
				lastProgress = now
				w.publish(control.TransferProgress{ID: w.id, Bytes: received, At: now})
			}
		}

		switch {
		case rerr == nil:
		case errors.Is(rerr, io.EOF):
			if received < w.size {
				return fmt.Errorf("peer closed after %d of %d bytes", received, w.size)
			}
		default:
			return fmt.Errorf("read: %w", rerr)
		}
	}
	return nil
}

func (w *worker) publish(ev control.Event) {
	if err := w.pub.Publish(ev); err != nil {
		w.log.WithError(err).Debug("dropping transfer event")
	}
}
