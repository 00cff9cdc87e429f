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

//go:build linux

package region

import (
	"golang.org/x/sys/unix"

	"github.com/cloudwego/shmqueue/queue"
)

// Create requests exclusive creation of a SysV shared-memory segment named
// key, of the given size, and attaches to it. It mirrors the original
// implementation's `shmget(key, size, IPC_CREAT|IPC_EXCL|0666)` followed by
// `shmat` exactly (see SPEC_FULL.md's original_source grounding).
func (SysV) Create(key int32, size int) ([]byte, error) {
	id, err := unix.SysvShmGet(int(key), size, unix.IPC_CREAT|unix.IPC_EXCL|0o666)
	if err != nil {
		if err == unix.EEXIST {
			return nil, queue.ErrExists
		}
		return nil, wrapErrno("create", key, err)
	}
	return attach(key, id)
}

// Open attaches to an existing segment named key.
func (SysV) Open(key int32) ([]byte, error) {
	// size=0, flag=0: look up an existing segment by key without
	// creating one, same as the original's shmget(key, 0, 0).
	id, err := unix.SysvShmGet(int(key), 0, 0)
	if err != nil {
		if err == unix.ENOENT {
			return nil, queue.ErrNotFound
		}
		return nil, wrapErrno("open", key, err)
	}
	return attach(key, id)
}

// Detach unmaps base from this process's address space. It does not
// destroy the segment.
func (SysV) Detach(key int32, base []byte) error {
	if len(base) == 0 {
		return nil
	}
	if err := unix.SysvShmDetach(base); err != nil {
		return wrapErrno("detach", key, err)
	}
	return nil
}

// Remove destroys the segment named key. Existing attachments remain valid
// until they Detach.
func (SysV) Remove(key int32) error {
	id, err := unix.SysvShmGet(int(key), 0, 0)
	if err != nil {
		if err == unix.ENOENT {
			return queue.ErrNotFound
		}
		return wrapErrno("remove", key, err)
	}
	if _, err := unix.SysvShmCtl(id, unix.IPC_RMID, nil); err != nil {
		return wrapErrno("remove", key, err)
	}
	return nil
}

// attach maps the segment named by id into this process's address space.
// SysvShmAttach already sizes the returned slice off the segment's own
// IPC_STAT, so there's no separate size bookkeeping to do here.
func attach(key int32, id int) ([]byte, error) {
	addr, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, wrapErrno("attach", key, err)
	}
	return addr, nil
}
