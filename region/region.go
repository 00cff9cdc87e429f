/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package region implements queue.RegionProvider: the external collaborator
// that acquires, attaches to, detaches from, and removes the named
// contiguous byte span a Queue is laid out over.
//
// SysV exposes this over POSIX SysV shared memory (shmget/shmat/shmdt/
// shmctl) on Linux. Memory is the in-process fake used by tests and by
// single-process examples: it never leaves the current address space, so
// it cannot actually be shared across processes, but it satisfies the same
// interface and is useful anywhere a real kernel segment would be
// overkill.
package region

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/shmqueue/queue"
)

// ErrUnsupported is returned by SysV's methods on platforms without SysV
// shared-memory bindings wired in (see sysv_other.go).
var ErrUnsupported = errors.New("shmqueue/region: SysV shared memory not supported on this platform")

var (
	_ queue.RegionProvider = (*SysV)(nil)
	_ queue.RegionProvider = (*Memory)(nil)
)

// Memory is an in-process fake RegionProvider: Create/Open hand out slices
// of ordinary Go-heap memory keyed by an integer, guarded by a mutex. It's
// useful for exercising Queue's logic without depending on the host's SysV
// shared-memory support, and it's what this repository's own queue tests
// use (see queue/queue_test.go).
//
// A negative key is reserved: it means "this span is borrowed, not owned"
// and Queue.Close will not call Detach for it.
type Memory struct {
	mu      sync.Mutex
	regions map[int32][]byte
}

// NewMemory returns a ready-to-use in-process fake provider.
func NewMemory() *Memory {
	return &Memory{regions: make(map[int32][]byte)}
}

func (m *Memory) Create(key int32, size int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.regions[key]; exists {
		return nil, queue.ErrExists
	}
	base := make([]byte, size)
	m.regions[key] = base
	return base, nil
}

func (m *Memory) Open(key int32) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	base, ok := m.regions[key]
	if !ok {
		return nil, queue.ErrNotFound
	}
	return base, nil
}

// Detach is a no-op: there is no per-process mapping to release when the
// "region" is just a Go slice shared in one address space.
func (m *Memory) Detach(int32, []byte) error {
	return nil
}

func (m *Memory) Remove(key int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[key]; !ok {
		return queue.ErrNotFound
	}
	delete(m.regions, key)
	return nil
}

// SysV is a RegionProvider backed by POSIX SysV shared memory. Its methods
// are implemented per-platform: sysv_linux.go has the real shmget/shmat
// bindings, sysv_other.go reports ErrUnsupported everywhere else.
type SysV struct{}

// NewSysV returns a ready-to-use SysV-backed region provider.
func NewSysV() *SysV {
	return &SysV{}
}

// wrapErrno is a small helper shared by the platform-specific SysV
// implementations to add the operation and key as context around a raw
// errno. The errno stays wrapped, so errors.Is still matches it.
func wrapErrno(op string, key int32, err error) error {
	return fmt.Errorf("shmqueue/region: %s(key=%d): %w", op, key, err)
}
