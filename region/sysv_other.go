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

//go:build !linux

package region

// SysV shared memory is only wired up for Linux (see sysv_linux.go); other
// platforms get a provider that fails clearly instead of silently
// misbehaving. Use Memory for cross-platform development and tests.
func (SysV) Create(key int32, size int) ([]byte, error) { return nil, ErrUnsupported }
func (SysV) Open(key int32) ([]byte, error)              { return nil, ErrUnsupported }
func (SysV) Detach(key int32, base []byte) error         { return ErrUnsupported }
func (SysV) Remove(key int32) error                      { return ErrUnsupported }
