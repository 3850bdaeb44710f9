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

package errorx

import "errors"

var (
	// ErrInvalidArgument a required parameter is absent or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPermissionDenied the operation needs a capability the buffer lacks.
	ErrPermissionDenied = errors.New("operation not supported by this buffer")
	// ErrWouldBlock the requested lock is unavailable and waiting was not requested.
	ErrWouldBlock = errors.New("lock unavailable, would block")
	// ErrBusy a fence context is already active, or the reservation is held.
	ErrBusy = errors.New("resource busy")
	// ErrResourceExhausted no free slot for a new external reference.
	ErrResourceExhausted = errors.New("reference table exhausted")
	// ErrNotFound the external reference does not resolve to a buffer.
	ErrNotFound = errors.New("reference not found")
	// ErrOverflow range arithmetic would wrap.
	ErrOverflow = errors.New("page range overflow")
	// ErrInvalidState a protocol violation such as releasing a fence that
	// was never armed.
	ErrInvalidState = errors.New("invalid state for this operation")
	// ErrHandleClosed the handle's reference count already dropped to zero.
	ErrHandleClosed = errors.New("handle already closed")
)
