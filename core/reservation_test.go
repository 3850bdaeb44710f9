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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/net/context"

	sb "github.com/TimeWtr/ShareBuf"
	"github.com/TimeWtr/ShareBuf/errorx"
)

func TestReservation_InvalidAccess(t *testing.T) {
	_, h := mustExport(t, sb.PageSize)
	defer h.Release()
	r := h.Buffer().Reservation()

	err := r.Lock(context.Background(), sb.AccessDMA, false)
	assert.ErrorIs(t, err, errorx.ErrInvalidArgument)

	err = r.Lock(context.Background(), 0, false)
	assert.ErrorIs(t, err, errorx.ErrInvalidArgument)
}

func TestReservation_ExclusiveLock(t *testing.T) {
	_, h := mustExport(t, sb.PageSize)
	defer h.Release()
	r := h.Buffer().Reservation()

	require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
	assert.True(t, r.Locked())

	err := r.Lock(context.Background(), sb.AccessWrite, false)
	assert.ErrorIs(t, err, errorx.ErrWouldBlock)
	err = r.Lock(context.Background(), sb.AccessRead, false)
	assert.ErrorIs(t, err, errorx.ErrWouldBlock)

	r.Unlock()
	assert.False(t, r.Locked())
	require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
	r.Unlock()
}

func TestReservation_SharedLock(t *testing.T) {
	_, h := mustExport(t, sb.PageSize)
	defer h.Release()
	r := h.Buffer().Reservation()

	require.NoError(t, r.Lock(context.Background(), sb.AccessRead, false))
	require.NoError(t, r.Lock(context.Background(), sb.AccessRead, false))

	// Readers exclude the writer until the last one leaves.
	err := r.Lock(context.Background(), sb.AccessWrite, false)
	assert.ErrorIs(t, err, errorx.ErrWouldBlock)

	r.Unlock()
	err = r.Lock(context.Background(), sb.AccessWrite, false)
	assert.ErrorIs(t, err, errorx.ErrWouldBlock)

	r.Unlock()
	require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
	r.Unlock()
}

func TestReservation_ReadWriteAccess(t *testing.T) {
	_, h := mustExport(t, sb.PageSize)
	defer h.Release()
	r := h.Buffer().Reservation()

	// A read-write access needs the exclusive lock.
	require.NoError(t, r.Lock(context.Background(), sb.AccessRead|sb.AccessWrite, false))
	err := r.Lock(context.Background(), sb.AccessRead, false)
	assert.ErrorIs(t, err, errorx.ErrWouldBlock)
	r.Unlock()
}

func TestReservation_BlockingLock(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, h := mustExport(t, sb.PageSize)
	defer h.Release()
	r := h.Buffer().Reservation()

	require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))

	acquired := make(chan struct{})
	go func() {
		if err := r.Lock(context.Background(), sb.AccessWrite, true); err == nil {
			r.Unlock()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("Lock acquired while the exclusive lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	r.Unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Blocked locker never woke up")
	}
}

func TestReservation_BlockingLockCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, h := mustExport(t, sb.PageSize)
	defer h.Release()
	r := h.Buffer().Reservation()

	require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
	defer r.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Lock(ctx, sb.AccessRead, true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, r.waiters.pending())
}

func TestReservation_UnlockUnlockedTolerated(t *testing.T) {
	_, h := mustExport(t, sb.PageSize)
	defer h.Release()

	assert.NotPanics(t, func() {
		h.Buffer().Reservation().Unlock()
	})
}

func TestReservation_Poll(t *testing.T) {
	t.Run("idle buffer is a usage bug", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		res, ch := h.Poll()
		assert.Equal(t, PollError, res)
		assert.Nil(t, ch)
	})

	t.Run("locked buffer blocks then reports ready once", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()
		r := h.Buffer().Reservation()

		require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))

		res, ch := h.Poll()
		assert.Equal(t, PollBlocked, res)
		require.NotNil(t, ch)

		r.Unlock()
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("Poll channel never fired after unlock")
		}

		// The completion edge is consumed exactly once.
		res, _ = h.Poll()
		assert.Equal(t, PollReady, res)
		res, _ = h.Poll()
		assert.Equal(t, PollError, res)
	})

	t.Run("completion edge armed only for pollers", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()
		r := h.Buffer().Reservation()

		// A lock cycle with no poller must not arm the edge.
		require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
		r.Unlock()

		res, _ := h.Poll()
		assert.Equal(t, PollError, res)

		// Once polled, the next cycle arms it.
		require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
		r.Unlock()
		res, _ = h.Poll()
		assert.Equal(t, PollReady, res)
	})

	t.Run("shared holders leave before the edge arms", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()
		r := h.Buffer().Reservation()

		require.NoError(t, r.Lock(context.Background(), sb.AccessRead, false))
		require.NoError(t, r.Lock(context.Background(), sb.AccessRead, false))

		res, _ := h.Poll()
		assert.Equal(t, PollBlocked, res)

		r.Unlock()
		res, _ = h.Poll()
		assert.Equal(t, PollBlocked, res)

		r.Unlock()
		res, _ = h.Poll()
		assert.Equal(t, PollReady, res)
	})
}

func TestReservation_PollResultString(t *testing.T) {
	assert.Equal(t, "ready", PollReady.String())
	assert.Equal(t, "blocked", PollBlocked.String())
	assert.Equal(t, "error", PollError.String())
	assert.Equal(t, "error", PollResult(200).String())
}

func TestReservation_WaitReady(t *testing.T) {
	t.Run("idle buffer", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		err := h.Buffer().Reservation().WaitReady(context.Background())
		assert.ErrorIs(t, err, errorx.ErrInvalidState)
	})

	t.Run("wakes on access completion", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		_, h := mustExport(t, sb.PageSize)
		defer h.Release()
		r := h.Buffer().Reservation()

		require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
		go func() {
			time.Sleep(30 * time.Millisecond)
			r.Unlock()
		}()

		assert.NoError(t, r.WaitReady(context.Background()))
	})

	t.Run("cancelled", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		_, h := mustExport(t, sb.PageSize)
		defer h.Release()
		r := h.Buffer().Reservation()

		require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
		defer r.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := r.WaitReady(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestReservation_FinalizeWhileLockedPanics(t *testing.T) {
	_, h := mustExport(t, sb.PageSize)
	r := h.Buffer().Reservation()

	require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
	assert.Panics(t, func() {
		r.fini()
	})

	r.Unlock()
	h.Release()
}

func TestReservation_ConcurrentWriters(t *testing.T) {
	defer goleak.VerifyNone(t)

	const numWriters = 16
	const iterations = 50

	_, h := mustExport(t, sb.PageSize)
	defer h.Release()
	r := h.Buffer().Reservation()

	// Guarded by the exclusive lock, not by an atomic. Races surface
	// under the race detector.
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, true))
				counter++
				r.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, numWriters*iterations, counter)
	assert.False(t, r.Locked())
}

func TestReservation_ReadersAndWriters(t *testing.T) {
	defer goleak.VerifyNone(t)

	const numReaders = 8
	const numWriters = 4
	const iterations = 25

	_, h := mustExport(t, sb.PageSize)
	defer h.Release()
	r := h.Buffer().Reservation()

	value := 0

	var wg sync.WaitGroup
	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, true))
				value++
				r.Unlock()
			}
		}()
	}
	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				require.NoError(t, r.Lock(context.Background(), sb.AccessRead, true))
				_ = value
				r.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, numWriters*iterations, value)
	assert.False(t, r.Locked())
}
