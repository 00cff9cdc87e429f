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

import "unsafe"

// unsafePointer returns the address of b[0] as an unsafe.Pointer, which
// bind then converts to a *header. Callers must
// ensure b is at least HeaderSize bytes and sufficiently aligned (true for
// any slice backed by a Go allocation or a page-aligned mmap region).
func unsafePointer(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

// unsafeCells reinterprets b as a []cell of length n without copying.
func unsafeCells(b []byte, n int) []cell {
	return unsafe.Slice((*cell)(unsafe.Pointer(&b[0])), n)
}
