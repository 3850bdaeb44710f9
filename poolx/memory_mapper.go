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

package poolx

import "golang.org/x/sys/unix"

type memoryMapper interface {
	Mmap(fd int, offset int64, length, prot, flags int) ([]byte, error)
	Munmap(p []byte) error
	Sync(p []byte, flags int) error
	Lock(p []byte) error
	Advise(p []byte, advice int) error
}

type unixMemoryMapper struct{}

func (u *unixMemoryMapper) Mmap(fd int, offset int64, length, prot, flags int) ([]byte, error) {
	return unix.Mmap(fd, offset, length, prot, flags)
}

func (u *unixMemoryMapper) Munmap(p []byte) error {
	return unix.Munmap(p)
}

func (u *unixMemoryMapper) Sync(p []byte, flags int) error {
	return unix.Msync(p, flags)
}

func (u *unixMemoryMapper) Lock(p []byte) error {
	return unix.Mlock(p)
}

func (u *unixMemoryMapper) Advise(p []byte, advice int) error {
	return unix.Madvise(p, advice)
}
