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

import "sync"

// WaiterManager tracks the contexts blocked on a reservation object.
// Each waiter gets a private channel with capacity one; a wakeup is a
// non-blocking send, so a waiter that raced away never blocks the waker.
type WaiterManager struct {
	ws        map[int]chan struct{}
	pool      sync.Pool
	mu        sync.Mutex
	currentID int
	closed    bool
}

func newWaiterManager() *WaiterManager {
	return &WaiterManager{
		ws: make(map[int]chan struct{}),
		pool: sync.Pool{
			New: func() interface{} {
				return make(chan struct{}, 1)
			},
		},
	}
}

func (w *WaiterManager) register() (id int, ch <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id = w.currentID + 1
	w.currentID = id
	notify, _ := w.pool.Get().(chan struct{})
	// A pooled channel may still carry a signal from its previous owner.
	select {
	case <-notify:
	default:
	}
	w.ws[id] = notify

	return id, notify
}

func (w *WaiterManager) unregister(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch, exist := w.ws[id]
	if !exist {
		return
	}

	w.pool.Put(ch)
	delete(w.ws, id)
}

// broadcast wakes every registered waiter. A lock release makes the
// reservation state observable to all blocked contexts at once, they
// re-check availability themselves after waking.
func (w *WaiterManager) broadcast() {
	w.mu.Lock()
	defer w.mu.Unlock()

	// fast path
	if len(w.ws) == 0 || w.closed {
		return
	}

	for id, notify := range w.ws {
		select {
		case notify <- struct{}{}:
		default:
		}
		delete(w.ws, id)
	}
}

func (w *WaiterManager) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ws)
}

func (w *WaiterManager) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for _, notify := range w.ws {
		close(notify)
	}
}
