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

package queue

import "sync/atomic"

// magic identifies this package's on-disk/in-memory layout. It guards
// against binding a Queue view over a region written by an incompatible
// version or a region that isn't a shmqueue at all.
//
// Spells "SHMQ0001" in ASCII.
const magic uint64 = 0x53484d5130303031

// header is the fixed-size structure at the start of every queue region.
// Every field is native-endian and native-alignment: the layout is only
// meaningful to processes sharing the same architecture.
type header struct {
	magic         uint64
	nodeCount     uint32
	overwriteFlag uint32 // 0/1, immutable after Create
	nodeDataSize  uint64
	nodeTotalSize uint64
	key           int32
	_             [4]byte // explicit padding after key; pause itself needs only 4-byte alignment

	// pause is mutable at runtime and shared across every attached
	// process, so it's the one header field that must use atomic
	// release/acquire instead of a plain load/store (spec design note
	// "Pause flag visibility").
	pause atomic.Uint32
}

// headerSize is the fixed byte footprint of header. Computed once, not
// hardcoded, so it always matches the actual Go struct layout.
var headerSize = int(unsafeSizeofHeader())

func (h *header) setPause(v bool) {
	if v {
		h.pause.Store(1)
	} else {
		h.pause.Store(0)
	}
}

func (h *header) isPaused() bool {
	return h.pause.Load() != 0
}
