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

package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRing(t *testing.T, capacity uint32, initialFill uint32) *Ring {
	t.Helper()
	buf := make([]byte, Size(capacity))
	return Init(buf, capacity, initialFill)
}

func TestEmptyRingPopFails(t *testing.T) {
	r := newTestRing(t, 4, 0)
	id, ok := r.Pop()
	assert.False(t, ok)
	assert.Equal(t, InvalidID, id)
}

func TestPreFilledRingHoldsAllIDs(t *testing.T) {
	r := newTestRing(t, 8, 8)
	seen := make(map[uint32]bool, 8)
	for i := 0; i < 8; i++ {
		id, ok := r.Pop()
		require.True(t, ok)
		seen[id] = true
	}
	assert.Len(t, seen, 8)
	_, ok := r.Pop()
	assert.False(t, ok, "ring should be drained")
}

func TestPushPopOrder(t *testing.T) {
	r := newTestRing(t, 4, 0)
	require.True(t, r.Push(10))
	require.True(t, r.Push(20))
	require.True(t, r.Push(30))

	id, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, uint32(10), id)

	id, ok = r.Pop()
	require.True(t, ok)
	assert.Equal(t, uint32(20), id)

	id, ok = r.Pop()
	require.True(t, ok)
	assert.Equal(t, uint32(30), id)

	_, ok = r.Pop()
	assert.False(t, ok)
}

func TestFullRingRejectsPush(t *testing.T) {
	r := newTestRing(t, 2, 0)
	require.True(t, r.Push(1))
	require.True(t, r.Push(2))
	assert.False(t, r.Push(3), "ring at capacity should reject further pushes")

	id, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, uint32(1), id)

	assert.True(t, r.Push(3), "popping a cell should free a round for reuse")
}

func TestWraparoundReusesCells(t *testing.T) {
	r := newTestRing(t, 2, 0)
	for round := uint32(0); round < 10; round++ {
		require.True(t, r.Push(round))
		id, ok := r.Pop()
		require.True(t, ok)
		assert.Equal(t, round, id)
	}
}

func TestCapacityAndLen(t *testing.T) {
	r := newTestRing(t, 16, 16)
	assert.Equal(t, uint32(16), r.Capacity())
	assert.Equal(t, uint64(16), r.Len())
	_, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, uint64(15), r.Len())
}

// TestConcurrentPushPopNoDuplicates exercises the many-to-many protocol: N
// producers push unique ids drawn from a pre-filled resource-style ring, M
// consumers race to drain them. Every id must be observed exactly once.
func TestConcurrentPushPopNoDuplicates(t *testing.T) {
	const capacity = 1024
	const producers = 8
	const consumers = 8

	src := newTestRing(t, capacity, capacity) // acts like a resource ring
	dst := newTestRing(t, capacity, 0)        // acts like a node ring

	var wg sync.WaitGroup
	perProducer := capacity / producers

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for {
					id, ok := src.Pop()
					if !ok {
						continue
					}
					for !dst.Push(id) {
					}
					break
				}
			}
		}()
	}

	results := make(chan uint32, capacity)
	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < capacity/consumers; i++ {
				for {
					id, ok := dst.Pop()
					if ok {
						results <- id
						break
					}
				}
			}
		}()
	}

	wg.Wait()
	close(results)

	seen := make(map[uint32]bool, capacity)
	for id := range results {
		assert.False(t, seen[id], "id %d observed twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, capacity)
}

func TestSizeIsHeaderPlusCells(t *testing.T) {
	assert.Equal(t, HeaderSize+4*CellSize, Size(4))
}
