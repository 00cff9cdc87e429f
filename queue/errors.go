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

import "errors"

// Error kinds returned by value from the public operations. None
// of these are fatal to the queue: a caller that gets ErrFull or ErrPaused
// can simply retry later, and no shared state is mutated beyond what the
// successful path would have mutated.
var (
	// ErrTooLarge is returned by Push when the payload exceeds the
	// queue's configured per-slot data size.
	ErrTooLarge = errors.New("shmqueue: payload exceeds node data size")

	// ErrFull is returned by Push when no free slot is available and
	// overwrite is disabled, or overwrite is enabled but the node ring
	// was observed empty while stealing (a momentary race).
	ErrFull = errors.New("shmqueue: queue is full")

	// ErrPaused is returned by Push, and by Pop/TryPop, while the queue
	// is in the Paused state.
	ErrPaused = errors.New("shmqueue: queue is paused")

	// ErrNotFound is returned by Open and Destroy when key does not name
	// an existing region.
	ErrNotFound = errors.New("shmqueue: region not found")

	// ErrExists is returned by Create when key already names a region.
	ErrExists = errors.New("shmqueue: region already exists")

	// ErrInvalidFormat is returned by Open when the region's magic
	// number does not match the queue format.
	ErrInvalidFormat = errors.New("shmqueue: region has invalid or mismatched format")

	// ErrAlloc is returned by Create when a region provider hands back a
	// span too small to hold the layout it was asked to create. Open
	// reports a too-small span as ErrInvalidFormat instead.
	ErrAlloc = errors.New("shmqueue: local handle allocation failed")
)
