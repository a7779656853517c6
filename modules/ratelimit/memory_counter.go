// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"context"
	"sync"
	"time"

	"brawler/modules/clock"
)

var _ CounterStore = (*MemoryCounter)(nil)

// MemoryCounter is a process-local CounterStore for single-instance deployments.
// Expired counters are dropped lazily on access and by Sweep.
type MemoryCounter struct {
	clock clock.Clock

	mu       sync.Mutex
	counters map[string]memoryEntry
}

type memoryEntry struct {
	n         int64
	expiresAt time.Time
}

func NewMemoryCounter(c clock.Clock) *MemoryCounter {
	if c == nil {
		c = clock.RealClockProvider()
	}
	return &MemoryCounter{
		clock:    c,
		counters: make(map[string]memoryEntry),
	}
}

// Incr implements CounterStore. ttl only applies when the counter is created.
func (m *MemoryCounter) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.counters[key]
	if !ok || !now.Before(e.expiresAt) {
		e = memoryEntry{expiresAt: now.Add(ttl)}
	}
	e.n++
	m.counters[key] = e
	return e.n, nil
}

// Get implements CounterStore.
func (m *MemoryCounter) Get(_ context.Context, key string) (int64, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.counters[key]
	if !ok {
		return 0, nil
	}
	if !now.Before(e.expiresAt) {
		delete(m.counters, key)
		return 0, nil
	}
	return e.n, nil
}

// Sweep removes every expired counter and returns how many were removed.
func (m *MemoryCounter) Sweep() int {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.counters {
		if !now.Before(e.expiresAt) {
			delete(m.counters, k)
			removed++
		}
	}
	return removed
}

// SweepEvery runs Sweep on interval until ctx is done.
func (m *MemoryCounter) SweepEvery(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}
