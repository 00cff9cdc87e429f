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

import "unsafe"

func unsafeSizeofHeader() uintptr {
	return unsafe.Sizeof(header{})
}

func bindHeader(base []byte) *header {
	return (*header)(unsafe.Pointer(&base[0]))
}

// nodeHeader is the fixed prefix of every slot: the occupied size and a
// small user tag. nodeHeaderSize is its byte footprint.
type nodeHeader struct {
	size uint64
	tag  uint32
	_    [4]byte
}

var nodeHeaderSize = int(unsafe.Sizeof(nodeHeader{}))

func bindNodeHeader(slot []byte) *nodeHeader {
	return (*nodeHeader)(unsafe.Pointer(&slot[0]))
}
