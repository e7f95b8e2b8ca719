// Package dcc receives files offered over DCC SEND.
//
// # Overview
//
// The Manager owns admission and the set of running workers. The dispatcher
// calls it synchronously; everything a worker learns afterwards travels back
// as control events through a Publisher (normally the event bus).
//
//	AcceptTransfer ──► Manager.Accept
//	                     │ size limit, address policy
//	                     │ sanitize name, contain path, pick unique name
//	                     ▼
//	                   TransferStarted ──► bus
//	                     │
//	                     ▼
//	                   worker goroutine
//	                     dial ─► create file ─► read/write/ack loop
//	                     │
//	                     ▼
//	                   TransferProgress* ─► Completed | Failed | Cancelled
//
// # Wire protocol
//
// The sender streams the file; after every read the receiver answers with
// the cumulative byte count as a 4-byte big-endian integer. The counter
// wraps for files of 4 GiB and more, which is what senders expect. The
// worker never reads past the declared size and completes the moment the
// declared size has been written.
//
// # Files
//
// Files are created with O_EXCL so an existing file is never overwritten.
// On failure or cancellation the partial file is kept unless
// Config.RemovePartial is set.
package dcc
