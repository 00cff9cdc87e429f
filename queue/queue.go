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

// Package queue implements a dual-ring lock-free slot allocator and payload
// ring: a bounded, multi-producer/multi-consumer message queue over a
// region of memory shared between unrelated processes.
//
// Queue itself never acquires shared memory. It is handed a RegionProvider
// collaborator: see package region for a SysV shared-memory implementation,
// or provide your own (an in-process fake is useful for tests; see
// region's in-memory provider).
package queue

import (
	"fmt"
	"math/bits"

	"github.com/cloudwego/shmqueue/internal/unsafex"
	"github.com/cloudwego/shmqueue/ring"
)

// cacheLineSize is the rounding unit for per-slot payload capacity:
// data_size is rounded up to a 64-byte multiple for cache-line alignment.
const cacheLineSize = 64

// RegionProvider is the external collaborator Queue relies on to acquire
// the contiguous byte span backing the queue. Acquiring/attaching to named
// shared memory is out of this package's scope; package region implements
// this interface over SysV shared memory.
type RegionProvider interface {
	// Create exclusively creates a new named region of the given size
	// and returns its base span. It returns ErrExists if key already
	// names a region.
	Create(key int32, size int) ([]byte, error)

	// Open attaches to an existing named region and returns its base
	// span. It returns ErrNotFound if key does not name a region.
	Open(key int32) ([]byte, error)

	// Detach releases this process's local mapping of base. It does not
	// destroy the region.
	Detach(key int32, base []byte) error

	// Remove destroys the named region. Existing attachments remain
	// valid until they Detach.
	Remove(key int32) error
}

// Config configures queue creation.
type Config struct {
	// Key names the region. Two processes that want to share a queue
	// pass the same Key to Create/Open.
	Key int32

	// DataSize is the maximum payload size in bytes. Rounded up to a
	// 64-byte multiple.
	DataSize uint64

	// Count is the number of slots. Rounded up to a power of two.
	Count uint32

	// Overwrite selects the full-queue policy: drop the oldest filled
	// slot to make room (true) or reject the push (false).
	Overwrite bool
}

// DefaultConfig returns reasonable defaults for ad hoc queues: 64 slots of
// up to 256 bytes each, overwrite disabled.
func DefaultConfig() *Config {
	return &Config{
		DataSize:  256,
		Count:     64,
		Overwrite: false,
	}
}

// Node is a single message: an optional user-defined tag plus payload
// bytes. Tag is carried verbatim from Push to Pop; this package never
// interprets it.
type Node struct {
	Tag  uint32
	Data []byte
}

// Text returns Data as a string without copying. The returned string is
// only valid until the next call that reuses Data's backing array; since
// Pop/TryPop always return freshly-copied Data, it's safe for the lifetime
// of the Node itself.
func (n Node) Text() string {
	return unsafex.BinaryToString(n.Data)
}

// Queue is a bound, typed view over a queue region: the header, the two
// rings, and the slot array.
type Queue struct {
	provider RegionProvider

	base     []byte
	hdr      *header
	resource *ring.Ring
	nodes    *ring.Ring
	lo       layout
}

// Stats is a point-in-time, race-tolerant snapshot of queue internals. It
// never mutates state and is safe to call concurrently with Push/Pop.
type Stats struct {
	NodeCount     uint32
	NodeDataSize  uint64
	NodeTotalSize uint64
	Overwrite     bool
	Paused        bool
	ResourceLen   uint64
	NodeLen       uint64
}

// Create rounds cfg.Count up to a power of two and cfg.DataSize up to a
// 64-byte multiple, requests exclusive creation of a region of the
// resulting size from provider, and initializes the header, resource ring
// (pre-filled with every slot id), node ring (empty), and slot array
// (zeroed) in place.
func Create(provider RegionProvider, cfg Config) (*Queue, error) {
	capacity := roundUpPow2(cfg.Count)
	if capacity == 0 {
		capacity = 1
	}
	dataSize := roundUp64(cfg.DataSize)
	nodeTotalSize := uint64(nodeHeaderSize) + dataSize

	lo := computeLayout(capacity, nodeTotalSize)

	base, err := provider.Create(cfg.Key, lo.totalSize)
	if err != nil {
		return nil, err
	}
	if len(base) < lo.totalSize {
		return nil, ErrAlloc
	}

	hdr := bindHeader(base)
	hdr.magic = magic
	hdr.nodeCount = capacity
	hdr.nodeDataSize = dataSize
	hdr.nodeTotalSize = nodeTotalSize
	hdr.key = cfg.Key
	hdr.setPause(false)
	if cfg.Overwrite {
		hdr.overwriteFlag = 1
	} else {
		hdr.overwriteFlag = 0
	}

	resource := ring.Init(lo.resourceRingSpan(base), capacity, capacity)
	nodes := ring.Init(lo.nodeRingSpan(base), capacity, 0)
	zeroSlots(lo, base)

	return &Queue{
		provider: provider,
		base:     base,
		hdr:      hdr,
		resource: resource,
		nodes:    nodes,
		lo:       lo,
	}, nil
}

// Open attaches to an existing region via provider, validates its magic
// number, and binds typed views over the header, the two rings, and the
// slot array.
func Open(provider RegionProvider, key int32) (*Queue, error) {
	// The header is the only part of the layout whose offset doesn't
	// depend on capacity, so peek it first to learn capacity/data size,
	// then re-derive the full layout and re-validate against the
	// region's actual length.
	probe, err := provider.Open(key)
	if err != nil {
		return nil, err
	}
	if len(probe) < headerSize {
		_ = provider.Detach(key, probe)
		return nil, ErrInvalidFormat
	}
	hdr := bindHeader(probe)
	if hdr.magic != magic {
		_ = provider.Detach(key, probe)
		return nil, ErrInvalidFormat
	}

	lo := computeLayout(hdr.nodeCount, hdr.nodeTotalSize)
	if len(probe) < lo.totalSize {
		_ = provider.Detach(key, probe)
		return nil, fmt.Errorf("shmqueue: %w: region too small for header's own capacity", ErrInvalidFormat)
	}

	resource := ring.Bind(lo.resourceRingSpan(probe), hdr.nodeCount)
	nodes := ring.Bind(lo.nodeRingSpan(probe), hdr.nodeCount)

	return &Queue{
		provider: provider,
		base:     probe,
		hdr:      hdr,
		resource: resource,
		nodes:    nodes,
		lo:       lo,
	}, nil
}

// Destroy removes the named region. It does not require (or allow) a bound
// Queue: any process that knows the key can destroy it.
func Destroy(provider RegionProvider, key int32) error {
	return provider.Remove(key)
}

// Close detaches this process's local mapping. It does not destroy the
// region; other attached processes keep working. A region opened under a
// negative key is borrowed memory (e.g. a test fake), and Close is a
// deliberate no-op for it.
func (q *Queue) Close() error {
	if q.hdr.key < 0 {
		return nil
	}
	return q.provider.Detach(q.hdr.key, q.base)
}

// Reset re-initializes both rings (resource pre-filled, node empty) and
// zeroes the slot array in place. The caller must ensure no concurrent
// Push/Pop is in flight: this package adds no synchronization of its own
// around Reset.
func (q *Queue) Reset() {
	capacity := q.hdr.nodeCount
	ring.Init(q.lo.resourceRingSpan(q.base), capacity, capacity)
	ring.Init(q.lo.nodeRingSpan(q.base), capacity, 0)
	zeroSlots(q.lo, q.base)
	// Re-bind: Init returns fresh views but q.resource/q.nodes already
	// point at the same backing memory, so no rebind is strictly
	// necessary. Done anyway for clarity and to avoid relying on that.
	q.resource = ring.Bind(q.lo.resourceRingSpan(q.base), capacity)
	q.nodes = ring.Bind(q.lo.nodeRingSpan(q.base), capacity)
}

// Pause sets the shared pause flag. Push returns ErrPaused immediately
// afterward; Pop refuses to proceed.
func (q *Queue) Pause() {
	q.hdr.setPause(true)
}

// Resume clears the pause flag.
func (q *Queue) Resume() {
	q.hdr.setPause(false)
}

// Push copies node into a free slot and publishes it to consumers.
//
// If the queue is full and overwrite is disabled, Push returns ErrFull. If
// overwrite is enabled, Push steals and silently drops the oldest filled
// slot to make room; if even that race loses (the node ring was
// momentarily empty too), it returns ErrFull.
func (q *Queue) Push(node Node) error {
	if uint64(len(node.Data)) > q.hdr.nodeDataSize {
		return ErrTooLarge
	}
	if q.hdr.isPaused() {
		return ErrPaused
	}

	id, ok := q.resource.Pop()
	if !ok {
		if q.hdr.overwriteFlag == 0 {
			return ErrFull
		}
		id, ok = q.nodes.Pop()
		if !ok {
			return ErrFull
		}
	}

	slot := q.lo.slot(q.base, id)
	nh := bindNodeHeader(slot)
	nh.size = uint64(len(node.Data))
	nh.tag = node.Tag
	copy(slot[nodeHeaderSize:], node.Data)

	// This push cannot fail: capacities match between rings and we hold
	// id exclusively.
	if !q.nodes.Push(id) {
		panic("shmqueue: node ring push failed with exclusively-held id")
	}
	return nil
}

// PushString is Push for a caller that already has the payload as a
// string: s is viewed as []byte without copying (Push only reads it to
// copy into the slot, so this is safe even though StringToBinary aliases
// s's read-only backing array).
func (q *Queue) PushString(tag uint32, s string) error {
	return q.Push(Node{Tag: tag, Data: unsafex.StringToBinary(s)})
}

// Pop blocks (busy-spins) until a filled slot is available or the queue is
// paused, then copies that slot's payload into a fresh Node and returns it.
// There is no timeout; see TryPop for a non-blocking variant.
func (q *Queue) Pop() (Node, error) {
	for {
		if q.hdr.isPaused() {
			return Node{}, ErrPaused
		}
		id, ok := q.nodes.Pop()
		if ok {
			return q.readAndRelease(id), nil
		}
		spinHint()
	}
}

// TryPop returns immediately: (Node, true, nil) if a filled slot was
// available, (Node{}, false, nil) if the queue was empty, or an error if
// paused. It never blocks.
func (q *Queue) TryPop() (Node, bool, error) {
	if q.hdr.isPaused() {
		return Node{}, false, ErrPaused
	}
	id, ok := q.nodes.Pop()
	if !ok {
		return Node{}, false, nil
	}
	return q.readAndRelease(id), true, nil
}

func (q *Queue) readAndRelease(id uint32) Node {
	slot := q.lo.slot(q.base, id)
	nh := bindNodeHeader(slot)
	out := Node{
		Tag:  nh.tag,
		Data: append([]byte(nil), slot[nodeHeaderSize:nodeHeaderSize+int(nh.size)]...),
	}
	q.resource.Push(id)
	return out
}

// Stats returns a snapshot of queue internals for diagnostics.
func (q *Queue) Stats() Stats {
	return Stats{
		NodeCount:     q.hdr.nodeCount,
		NodeDataSize:  q.hdr.nodeDataSize,
		NodeTotalSize: q.hdr.nodeTotalSize,
		Overwrite:     q.hdr.overwriteFlag != 0,
		Paused:        q.hdr.isPaused(),
		ResourceLen:   q.resource.Len(),
		NodeLen:       q.nodes.Len(),
	}
}

func zeroSlots(lo layout, base []byte) {
	slots := base[lo.slotsOff:lo.totalSize]
	for i := range slots {
		slots[i] = 0
	}
}

func roundUpPow2(v uint32) uint32 {
	if v <= 1 {
		return v
	}
	return uint32(1) << bits.Len32(v-1)
}

func roundUp64(v uint64) uint64 {
	return (v + cacheLineSize - 1) &^ (cacheLineSize - 1)
}
