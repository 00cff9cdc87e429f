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

package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/shmqueue/queue"
)

func TestMemoryCreateOpenRoundTrip(t *testing.T) {
	m := NewMemory()

	base, err := m.Create(42, 128)
	require.NoError(t, err)
	assert.Len(t, base, 128)

	base2, err := m.Open(42)
	require.NoError(t, err)
	assert.Same(t, &base[0], &base2[0], "Open must return the same backing array as Create")
}

func TestMemoryCreateRejectsDuplicateKey(t *testing.T) {
	m := NewMemory()
	_, err := m.Create(1, 64)
	require.NoError(t, err)

	_, err = m.Create(1, 64)
	assert.ErrorIs(t, err, queue.ErrExists)
}

func TestMemoryOpenMissingKey(t *testing.T) {
	m := NewMemory()
	_, err := m.Open(999)
	assert.ErrorIs(t, err, queue.ErrNotFound)
}

func TestMemoryRemove(t *testing.T) {
	m := NewMemory()
	_, err := m.Create(7, 32)
	require.NoError(t, err)

	require.NoError(t, m.Remove(7))
	_, err = m.Open(7)
	assert.ErrorIs(t, err, queue.ErrNotFound)

	assert.ErrorIs(t, m.Remove(7), queue.ErrNotFound)
}

func TestMemoryDetachIsNoop(t *testing.T) {
	m := NewMemory()
	base, err := m.Create(3, 16)
	require.NoError(t, err)
	assert.NoError(t, m.Detach(3, base))

	// region remains open after Detach: Detach releases a local mapping,
	// it does not destroy anything.
	_, err = m.Open(3)
	assert.NoError(t, err)
}
