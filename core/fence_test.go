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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sb "github.com/TimeWtr/ShareBuf"
	"github.com/TimeWtr/ShareBuf/errorx"
)

func TestAcquireFence(t *testing.T) {
	t.Run("no reservation", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize, WithoutReservation())
		defer h.Release()

		f := &Fence{Access: sb.AccessWrite}
		assert.ErrorIs(t, h.AcquireFence(f), errorx.ErrPermissionDenied)
	})

	t.Run("nil fence", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		assert.ErrorIs(t, h.AcquireFence(nil), errorx.ErrInvalidArgument)
	})

	t.Run("active fence reused", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		f := &Fence{Access: sb.AccessWrite}
		require.NoError(t, h.AcquireFence(f))
		assert.NotZero(t, f.Ctx)

		assert.ErrorIs(t, h.AcquireFence(f), errorx.ErrBusy)
		require.NoError(t, h.ReleaseFence(f))
	})

	t.Run("invalid access", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		f := &Fence{Access: sb.AccessDMA}
		assert.ErrorIs(t, h.AcquireFence(f), errorx.ErrInvalidArgument)
	})

	t.Run("contended lock", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()
		r := h.Buffer().Reservation()

		require.NoError(t, r.Lock(context.Background(), sb.AccessWrite, false))
		defer r.Unlock()

		f := &Fence{Access: sb.AccessWrite}
		assert.ErrorIs(t, h.AcquireFence(f), errorx.ErrBusy)
		assert.Zero(t, f.Ctx)
	})

	t.Run("shared fences coexist", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		f1 := &Fence{Access: sb.AccessRead}
		f2 := &Fence{Access: sb.AccessRead}
		require.NoError(t, h.AcquireFence(f1))
		require.NoError(t, h.AcquireFence(f2))
		assert.NotEqual(t, f1.Ctx, f2.Ctx)

		require.NoError(t, h.ReleaseFence(f1))
		require.NoError(t, h.ReleaseFence(f2))
	})
}

func TestReleaseFence(t *testing.T) {
	t.Run("no reservation", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize, WithoutReservation())
		defer h.Release()

		f := &Fence{Ctx: 1}
		assert.ErrorIs(t, h.ReleaseFence(f), errorx.ErrPermissionDenied)
	})

	t.Run("never armed", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		assert.ErrorIs(t, h.ReleaseFence(nil), errorx.ErrInvalidState)
		assert.ErrorIs(t, h.ReleaseFence(&Fence{}), errorx.ErrInvalidState)
		assert.ErrorIs(t, h.ReleaseFence(&Fence{Ctx: 42}), errorx.ErrInvalidState)
	})

	t.Run("double release", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		f := &Fence{Access: sb.AccessWrite}
		require.NoError(t, h.AcquireFence(f))

		token := f.Ctx
		require.NoError(t, h.ReleaseFence(f))
		assert.Zero(t, f.Ctx)

		f.Ctx = token
		assert.ErrorIs(t, h.ReleaseFence(f), errorx.ErrInvalidState)
	})
}

// TestFence_BracketsDeviceAccess walks the full consumer sequence: export,
// attach a device, map it for transfer, bracket the transfer with a write
// fence, then tear everything down in reverse order.
func TestFence_BracketsDeviceAccess(t *testing.T) {
	const size = sb.PageSize * 16

	e, h := mustExport(t, size)
	b := h.Buffer()

	at, err := b.Attach(testDevice{name: "dma0"})
	require.NoError(t, err)

	sg, err := at.Map(sb.DirBidirectional)
	require.NoError(t, err)
	require.EqualValues(t, size, sg.Size())

	// Begin of the transfer: the fence takes the exclusive lock.
	f := &Fence{Access: sb.AccessWrite}
	require.NoError(t, h.AcquireFence(f))
	assert.Equal(t, DefaultFenceTag, h.fences[f.Ctx].tag)
	assert.True(t, b.Reservation().Locked())

	// A CPU reader polls and is told to wait.
	res, ch := h.Poll()
	assert.Equal(t, PollBlocked, res)

	// End of the transfer: release the fence, the poller wakes and the
	// next poll reports the completed cycle.
	require.NoError(t, h.ReleaseFence(f))
	assert.False(t, b.Reservation().Locked())
	<-ch
	res, _ = h.Poll()
	assert.Equal(t, PollReady, res)

	// A new fence for the next frame reuses the request struct.
	require.NoError(t, h.AcquireFence(f))
	require.NoError(t, h.ReleaseFence(f))

	at.Unmap(sg, sb.DirBidirectional)
	b.Detach(at)
	h.Release()
	assert.EqualValues(t, 1, e.releases.Load())
}

func TestFence_CustomTag(t *testing.T) {
	_, h := mustExport(t, sb.PageSize)
	defer h.Release()

	f := &Fence{Access: sb.AccessRead, Tag: "blit"}
	require.NoError(t, h.AcquireFence(f))
	assert.Equal(t, "blit", h.fences[f.Ctx].tag)
	require.NoError(t, h.ReleaseFence(f))
}

func TestAdvisoryLock(t *testing.T) {
	t.Run("no reservation", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize, WithoutReservation())
		defer h.Release()

		err := h.AdvisoryLock(context.Background(), sb.LockWrite, false)
		assert.ErrorIs(t, err, errorx.ErrPermissionDenied)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		err := h.AdvisoryLock(context.Background(), sb.LockType(9), false)
		assert.ErrorIs(t, err, errorx.ErrInvalidArgument)
	})

	t.Run("write excludes read", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()
		ctx := context.Background()

		require.NoError(t, h.AdvisoryLock(ctx, sb.LockWrite, false))

		err := h.AdvisoryLock(ctx, sb.LockRead, true)
		assert.ErrorIs(t, err, errorx.ErrWouldBlock)

		require.NoError(t, h.AdvisoryLock(ctx, sb.LockUnlock, false))
		require.NoError(t, h.AdvisoryLock(ctx, sb.LockRead, true))
		require.NoError(t, h.AdvisoryLock(ctx, sb.LockUnlock, false))
	})

	t.Run("unlock always succeeds", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()

		assert.NoError(t, h.AdvisoryLock(context.Background(), sb.LockUnlock, true))
	})

	t.Run("fence and advisory lock share the reservation", func(t *testing.T) {
		_, h := mustExport(t, sb.PageSize)
		defer h.Release()
		ctx := context.Background()

		f := &Fence{Access: sb.AccessWrite}
		require.NoError(t, h.AcquireFence(f))

		err := h.AdvisoryLock(ctx, sb.LockRead, true)
		assert.ErrorIs(t, err, errorx.ErrWouldBlock)

		require.NoError(t, h.ReleaseFence(f))
		require.NoError(t, h.AdvisoryLock(ctx, sb.LockRead, true))
		require.NoError(t, h.AdvisoryLock(ctx, sb.LockUnlock, false))
	})
}

func TestSyncContext_Reuse(t *testing.T) {
	_, h := mustExport(t, sb.PageSize)
	defer h.Release()

	sc := newSyncContext("")
	assert.Equal(t, DefaultFenceTag, sc.tag)

	require.NoError(t, sc.get(h.Buffer(), sb.AccessRead))
	assert.ErrorIs(t, sc.get(h.Buffer(), sb.AccessRead), errorx.ErrBusy)

	assert.ErrorIs(t, sc.unlock(), errorx.ErrInvalidState)

	require.NoError(t, sc.lock())
	require.NoError(t, sc.unlock())
	sc.put()

	require.NoError(t, sc.get(h.Buffer(), sb.AccessWrite))
	sc.put()
}
