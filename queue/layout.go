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

import "github.com/cloudwego/shmqueue/ring"

// layout is the computed byte geometry of a queue region for a given
// (capacity, nodeTotalSize) pair: header, resource ring, node ring, slot
// array, packed tightly with no padding beyond what each section's own
// structs contain.
type layout struct {
	capacity      uint32
	nodeTotalSize uint64

	headerOff   int
	resourceOff int
	nodeRingOff int
	slotsOff    int
	totalSize   int
}

func computeLayout(capacity uint32, nodeTotalSize uint64) layout {
	ringSize := ring.Size(capacity)
	l := layout{
		capacity:      capacity,
		nodeTotalSize: nodeTotalSize,
		headerOff:     0,
		resourceOff:   headerSize,
		nodeRingOff:   headerSize + ringSize,
		slotsOff:      headerSize + 2*ringSize,
	}
	l.totalSize = l.slotsOff + int(nodeTotalSize)*int(capacity)
	return l
}

func (l layout) resourceRingSpan(base []byte) []byte {
	return base[l.resourceOff:l.nodeRingOff]
}

func (l layout) nodeRingSpan(base []byte) []byte {
	return base[l.nodeRingOff:l.slotsOff]
}

func (l layout) slot(base []byte, id uint32) []byte {
	off := l.slotsOff + int(id)*int(l.nodeTotalSize)
	return base[off : off+int(l.nodeTotalSize)]
}
