// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	sb "github.com/TimeWtr/ShareBuf"
	"github.com/TimeWtr/ShareBuf/errorx"
)

// PollResult the outcome of a non-blocking readiness poll.
type PollResult uint8

const (
	// PollError nobody is accessing the buffer and no completion is
	// pending. Polling an idle buffer is a consumer usage bug, the
	// result stays an in-band status so the caller decides severity.
	PollError PollResult = iota
	// PollReady an access cycle completed since the last poll.
	PollReady
	// PollBlocked the buffer is locked, the caller has been registered
	// as a waiter.
	PollBlocked
)

func (p PollResult) String() string {
	switch p {
	case PollReady:
		return "ready"
	case PollBlocked:
		return "blocked"
	default:
		return "error"
	}
}

// Reservation the per-buffer synchronization state machine. It arbitrates
// a reader/writer lock over the buffer and carries the poll edge that
// tells a blocked consumer an access cycle has finished.
//
// The reservation's mutex guards only lock state and the poll flags. It
// is distinct from the buffer's structural lock, no operation ever holds
// both.
type Reservation struct {
	// shared the number of shared lock holders.
	shared int
	// exclusive whether the exclusive lock is held.
	exclusive bool
	// polled a consumer has polled this buffer and may be blocked in its
	// own wait facility.
	polled bool
	// accessCompleted an access cycle finished while a poller was
	// registered. Consumed exactly once by the next poll.
	accessCompleted bool
	// finalized set by fini, every later operation is a caller bug.
	finalized bool
	// buf non-owning back reference to the buffer this reservation guards.
	buf *Buffer
	// waiters the contexts blocked in Lock or Poll.
	waiters *WaiterManager
	mu      sync.Mutex
}

func newReservation(buf *Buffer) *Reservation {
	return &Reservation{
		buf:     buf,
		waiters: newWaiterManager(),
	}
}

func (r *Reservation) available(exclusive bool) bool {
	if exclusive {
		return !r.exclusive && r.shared == 0
	}
	return !r.exclusive
}

func (r *Reservation) locked() bool {
	return r.exclusive || r.shared > 0
}

// Locked reports whether any consumer currently holds the reservation.
func (r *Reservation) Locked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked()
}

// Lock acquires the reservation for the given access type. Write access
// needs the exclusive lock, read access the shared one. With wait set the
// caller suspends until the state permits the access or ctx is cancelled;
// without it an unavailable lock fails with ErrWouldBlock. This is the
// only blocking primitive in the core.
func (r *Reservation) Lock(ctx context.Context, access sb.AccessType, wait bool) error {
	if !access.Validate() {
		return errorx.ErrInvalidArgument
	}

	exclusive := access.Exclusive()
	start := time.Now()

	r.mu.Lock()
	for !r.available(exclusive) {
		if !wait {
			r.mu.Unlock()
			r.buf.mc.RecordLock(false, 0)
			return errorx.ErrWouldBlock
		}

		id, ch := r.waiters.register()
		r.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			r.waiters.unregister(id)
			return ctx.Err()
		}
		r.waiters.unregister(id)
		r.mu.Lock()
	}

	if exclusive {
		r.exclusive = true
	} else {
		r.shared++
	}
	r.mu.Unlock()

	r.buf.mc.RecordLock(true, time.Since(start).Milliseconds())
	return nil
}

// Unlock releases whichever lock the calling context holds. Dropping the
// state to unlocked arms the completion edge for a registered poller and
// wakes every blocked waiter. Unlocking an unlocked reservation is
// tolerated, the advisory unlock request always succeeds.
func (r *Reservation) Unlock() {
	r.mu.Lock()
	switch {
	case r.exclusive:
		r.exclusive = false
	case r.shared > 0:
		r.shared--
	default:
		r.mu.Unlock()
		log.Warn("sharebuf: unlock of an unlocked reservation, ignored")
		return
	}

	if !r.locked() {
		if r.polled {
			r.accessCompleted = true
		}
		r.waiters.broadcast()
	}
	r.mu.Unlock()

	r.buf.mc.RecordUnlock()
}

// Poll the non-blocking readiness check. The returned channel is non-nil
// only for PollBlocked; it fires once when the current access cycle ends.
// A caller that stops caring simply drops the channel, the entry is
// reclaimed on the next wakeup.
func (r *Reservation) Poll() (PollResult, <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.polled = true

	// An access cycle finished and the blocked consumer has not consumed
	// the signal yet. Report it exactly once.
	if r.accessCompleted {
		r.accessCompleted = false
		r.buf.mc.RecordPoll(PollReady.String())
		return PollReady, nil
	}

	// Nobody is accessing this buffer, there is nothing to wait for.
	if !r.locked() {
		r.buf.mc.RecordPoll(PollError.String())
		return PollError, nil
	}

	_, ch := r.waiters.register()
	r.buf.mc.RecordPoll(PollBlocked.String())
	return PollBlocked, ch
}

// WaitReady blocks until an access cycle on the buffer completes. It is
// the blocking companion of Poll: PollError surfaces as ErrInvalidState
// because waiting on an idle buffer can never finish.
func (r *Reservation) WaitReady(ctx context.Context) error {
	for {
		res, ch := r.Poll()
		switch res {
		case PollReady:
			return nil
		case PollError:
			return errorx.ErrInvalidState
		case PollBlocked:
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fini tears the reservation down, called once from the buffer's final
// release. Finalizing while a lock is held means a consumer skipped its
// unlock, that is an irrecoverable protocol violation.
func (r *Reservation) fini() {
	r.mu.Lock()
	if r.locked() {
		r.mu.Unlock()
		panic("sharebuf: reservation finalized while still locked")
	}
	r.finalized = true
	r.mu.Unlock()

	r.waiters.Close()
}
