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

// Package ring implements a fixed-capacity, lock-free, multi-producer/
// multi-consumer circular buffer of 32-bit slot identifiers.
//
// A Ring is a typed view over a contiguous span of memory: it never
// allocates its own backing storage. Bind or Init it over a byte slice
// (heap-allocated for a single process, or mapped shared memory for
// cross-process use) and every Ring sharing that span coordinates through
// the same atomic head/tail counters and per-cell sequence numbers.
//
// Push and Pop are non-blocking: every iteration either commits, observes
// full/empty and returns, or observes a peer that raced ahead and retries.
// A producer or consumer that stalls after winning the CAS on the shared
// counter but before publishing its cell's sequence number blocks only that
// one cell for one round; every other cell remains usable.
package ring

import (
	"sync/atomic"
)

// InvalidID is the sentinel slot identifier returned by Pop when the ring
// is empty. It is never a valid id because capacity is always a power of
// two less than 1<<32.
const InvalidID uint32 = ^uint32(0)

// cacheLine is used to pad hot counters apart so independent producers and
// consumers don't thrash the same cache line.
const cacheLine = 64

// cell is one ring slot: a reservation/ready token (seq) and the slot
// identifier it currently carries. id is read only after an acquire load
// of seq observes the matching round, so id itself needs no atomic type.
type cell struct {
	seq atomic.Uint32
	id  uint32
}

// header is the fixed-size, in-place portion of a Ring: capacity and the
// two monotone round counters. Its size is part of the on-disk/in-memory
// layout contract (see package queue), so every field is explicit and the
// padding is deliberate, not left to the compiler.
type header struct {
	capacity uint32
	_        [4]byte // pad capacity up to the 8-byte alignment headSeq needs

	headSeq atomic.Uint64
	_       [cacheLine - 8]byte

	tailSeq atomic.Uint64
	_       [cacheLine - 8]byte
}

// HeaderSize is sizeof(header): the number of bytes a Ring occupies before
// its capacity cells begin. Callers computing shared-memory layouts need
// this; see queue.layout.
const HeaderSize = 4 + 4 + cacheLine + cacheLine

// CellSize is sizeof(cell) in bytes.
const CellSize = 8

// Size returns the total byte footprint of a Ring with the given capacity:
// the fixed header plus capacity cells. capacity must be a power of two.
func Size(capacity uint32) int {
	return HeaderSize + int(capacity)*CellSize
}

// Ring is a bound, typed view over a capacity-cell span of memory. The zero
// Ring is not usable; construct one with Bind or Init.
type Ring struct {
	hdr   *header
	cells []cell
	mask  uint32
}

// Init lays out a fresh ring of the given capacity (must be a power of two)
// at base, and binds a Ring view over it. initialFill is either 0 (empty
// ring: every cell ready for a producer) or capacity (pre-filled ring:
// every cell holds id==index and is ready for a consumer).
//
// base must point to at least Size(capacity) bytes, and that span must
// outlive the returned Ring.
func Init(base []byte, capacity uint32, initialFill uint32) *Ring {
	r := bind(base, capacity)
	r.hdr.capacity = capacity
	r.hdr.headSeq.Store(0)
	r.hdr.tailSeq.Store(uint64(initialFill))
	for i := uint32(0); i < capacity; i++ {
		c := &r.cells[i]
		c.id = i
		if i >= initialFill {
			c.seq.Store(i)
		} else {
			c.seq.Store(i + 1)
		}
	}
	return r
}

// Bind attaches a Ring view over a span previously initialized by Init
// (possibly by another process sharing the same memory). No validation of
// contents is performed here; callers validate the owning queue header's
// magic number before trusting the layout.
func Bind(base []byte, capacity uint32) *Ring {
	return bind(base, capacity)
}

func bind(base []byte, capacity uint32) *Ring {
	need := Size(capacity)
	if len(base) < need {
		panic("ring: base span too small for capacity")
	}
	r := &Ring{
		hdr:  (*header)(unsafePointer(base)),
		mask: capacity - 1,
	}
	cellsOff := base[HeaderSize:need]
	r.cells = unsafeCells(cellsOff, int(capacity))
	return r
}

// Capacity returns the ring's fixed cell count.
func (r *Ring) Capacity() uint32 {
	return r.hdr.capacity
}

// Len returns the number of ids currently held in the ring (tailSeq-headSeq).
// It is a snapshot: concurrent Push/Pop calls can make it stale immediately.
func (r *Ring) Len() uint64 {
	return r.hdr.tailSeq.Load() - r.hdr.headSeq.Load()
}

// Push attempts to enqueue id. It returns false if the ring is full.
func (r *Ring) Push(id uint32) bool {
	for {
		tail := r.hdr.tailSeq.Load()
		c := &r.cells[uint32(tail)&r.mask]
		seq := c.seq.Load()

		switch diff := int64(seq) - int64(tail); {
		case diff == 0:
			if r.hdr.tailSeq.CompareAndSwap(tail, tail+1) {
				c.id = id
				c.seq.Store(uint32(tail + 1))
				return true
			}
		case diff < 0:
			return false // full: consumer hasn't released this round's cell yet
		default:
			// another producer advanced past us; reload and retry
		}
	}
}

// Pop attempts to dequeue the oldest id. It returns (InvalidID, false) if
// the ring is empty.
func (r *Ring) Pop() (uint32, bool) {
	for {
		head := r.hdr.headSeq.Load()
		c := &r.cells[uint32(head)&r.mask]
		seq := c.seq.Load()

		switch diff := int64(seq) - int64(head+1); {
		case diff == 0:
			if r.hdr.headSeq.CompareAndSwap(head, head+1) {
				id := c.id
				c.seq.Store(uint32(head + uint64(r.hdr.capacity)))
				return id, true
			}
		case diff < 0:
			return InvalidID, false // empty
		default:
			// raced; reload and retry
		}
	}
}
