package app

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/parley/internal/control"
	"github.com/five82/parley/internal/irc"
	"github.com/five82/parley/internal/state"
)

// linkObserver turns link callbacks into bus events. Callbacks that arrive
// while the dial is still in flight are held until open, so a link's
// traffic and its close always follow the dispatcher's own LinkConnected.
type linkObserver struct {
	events interface{ Publish(control.Event) error }
	now    func() time.Time
	log    *logrus.Entry

	mu      sync.Mutex
	opened  bool
	live    bool
	pending []control.Event
}

// open releases held callbacks. With live false they are discarded, along
// with everything reported later.
func (o *linkObserver) open(live bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = true
	o.live = live
	if live {
		for _, ev := range o.pending {
			o.send(ev)
		}
	}
	o.pending = nil
}

func (o *linkObserver) LinkMessage(id state.ServerID, msg irc.Message) {
	o.publish(control.LinkMessage{Server: id, Msg: msg, At: o.now()})
}

func (o *linkObserver) LinkMalformed(id state.ServerID, raw string, err error) {
	o.publish(control.LinkMalformed{Server: id, Raw: raw, Err: err.Error(), At: o.now()})
}

func (o *linkObserver) LinkClosed(id state.ServerID, err error) {
	ev := control.LinkClosed{Server: id, At: o.now()}
	if err != nil {
		ev.Err = err.Error()
	}
	o.publish(ev)
}

func (o *linkObserver) publish(ev control.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case !o.opened:
		o.pending = append(o.pending, ev)
	case o.live:
		o.send(ev)
	}
}

func (o *linkObserver) send(ev control.Event) {
	if err := o.events.Publish(ev); err != nil {
		o.log.WithError(err).Debug("link event dropped")
	}
}
