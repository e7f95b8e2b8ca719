package control

import (
	"fmt"

	"github.com/five82/parley/internal/state"
)

func (r *Reducer) onTransferStarted(s *step, ev TransferStarted) {
	rec := s.app.Transfer(ev.ID)
	if rec == nil || !rec.Transition(state.TransferActive) {
		return
	}
	rec.Filename = ev.Filename
	rec.Path = ev.Path
	rec.UpdatedAt = ev.At
	s.touch()
	r.system(s, state.StatusKey(rec.Server), fmt.Sprintf("DCC: receiving %q from %s into %s", rec.Offered, rec.From, rec.Path))
}

func (r *Reducer) onTransferCompleted(s *step, ev TransferCompleted) {
	rec := s.app.Transfer(ev.ID)
	if rec == nil || rec.Status.IsTerminal() {
		return
	}
	rec.Advance(ev.Bytes)
	if !rec.Transition(state.TransferCompleted) {
		return
	}
	rec.UpdatedAt = ev.At
	s.touch()
	status := state.StatusKey(rec.Server)
	r.system(s, status, fmt.Sprintf("DCC: %q complete (%s), saved to %s", rec.Offered, formatBytes(rec.Transferred), rec.Path))
	s.emit(Notify{Key: status, Text: "Download complete: " + rec.Filename})
}

func (r *Reducer) onTransferFailed(s *step, ev TransferFailed) {
	rec := s.app.Transfer(ev.ID)
	if rec == nil || !rec.Fail(ev.Reason, ev.Detail) {
		return
	}
	rec.UpdatedAt = ev.At
	s.touch()
	r.errorLine(s, state.StatusKey(rec.Server), fmt.Sprintf("DCC transfer %d (%q) failed: %s: %s", rec.ID, rec.Offered, ev.Reason, ev.Detail))
}

func (r *Reducer) onTransferCancelled(s *step, ev TransferCancelled) {
	rec := s.app.Transfer(ev.ID)
	if rec == nil || rec.Status.IsTerminal() {
		return
	}
	rec.Advance(ev.Bytes)
	if !rec.Transition(state.TransferCancelled) {
		return
	}
	rec.UpdatedAt = ev.At
	s.touch()
	r.system(s, state.StatusKey(rec.Server), fmt.Sprintf("DCC transfer %d (%q) cancelled after %s", rec.ID, rec.Offered, formatBytes(rec.Transferred)))
}

// onTransferListing prints every record, folding in the live byte counts of
// running workers.
func (r *Reducer) onTransferListing(s *step, ev TransferListing) {
	for _, live := range ev.Live {
		if rec := s.app.Transfer(live.ID); rec != nil {
			rec.Advance(live.Bytes)
		}
	}

	key := s.app.Active
	if len(s.app.Transfers) == 0 {
		r.system(s, key, "No DCC transfers.")
		return
	}
	r.system(s, key, fmt.Sprintf("DCC transfers (%d):", len(s.app.Transfers)))
	for _, rec := range s.app.Transfers {
		line := fmt.Sprintf("  [%d] %q from %s, %s (%.0f%%) %s",
			rec.ID, rec.Offered, rec.From, formatBytes(rec.Size), rec.Percent(), rec.Status)
		if rec.Reason != state.ReasonNone {
			line += ": " + string(rec.Reason)
		}
		r.system(s, key, line)
	}
}

func (r *Reducer) onBacklog(s *step, ev BacklogLoaded) {
	b, ok := s.app.Buffers[ev.Key]
	if !ok || len(ev.Lines) == 0 {
		return
	}
	lines := make([]state.Message, 0, len(ev.Lines))
	for _, text := range ev.Lines {
		lines = append(lines, state.Message{Text: text, Kind: state.KindSystem, At: ev.At})
	}
	b.Prepend(lines, r.opts.MaxScrollback)
	s.touch()
}
