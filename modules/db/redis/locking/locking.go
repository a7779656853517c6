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

// Package locking runs a task while holding a Redis lock, so that only one
// replica performs start-up work such as schema migrations at a time.
package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/rueidis/rueidislock"
)

// TaskFunc is the task signature executed under the distributed lock.
type TaskFunc func(ctx context.Context) error

// Locker is the subset of rueidislock.Locker the executor needs.
type Locker interface {
	WithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
	TryWithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
}

var _ Locker = (rueidislock.Locker)(nil)

// LockConfiguration describes one task lock.
//
//   - Name          : logical lock name (e.g. "migrate")
//   - LockAtMostFor : deadline applied to the task context; zero means none
type LockConfiguration struct {
	Name          string
	LockAtMostFor time.Duration
}

// ErrLockNotAcquired is returned in try-once mode when another node holds the lock.
var ErrLockNotAcquired = errors.New("locking: lock not acquired")

// ErrInvalidConfiguration is returned when LockConfiguration is invalid.
var ErrInvalidConfiguration = errors.New("locking: invalid lock configuration")

type LockingTaskExecutor struct {
	locker Locker

	// block until the lock is free instead of failing with ErrLockNotAcquired
	waitForLock bool

	// bounds the wait when waitForLock is set; zero uses the caller's ctx as-is
	acquireTimeout time.Duration

	// prepended to every LockConfiguration.Name
	namePrefix string
}

type Option func(*LockingTaskExecutor)

func WithWaitForLock(wait bool) Option {
	return func(e *LockingTaskExecutor) {
		e.waitForLock = wait
	}
}

func WithAcquireTimeout(d time.Duration) Option {
	return func(e *LockingTaskExecutor) {
		e.acquireTimeout = d
	}
}

// WithNamePrefix adds a prefix to all lock names, e.g. "brawler:lock:" + "migrate".
func WithNamePrefix(prefix string) Option {
	return func(e *LockingTaskExecutor) {
		e.namePrefix = prefix
	}
}

func NewLockingTaskExecutor(locker Locker, opts ...Option) *LockingTaskExecutor {
	e := &LockingTaskExecutor{locker: locker}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Execute acquires the lock named by cfg and runs task under it. The task
// context is cancelled if the lock is lost. The lock is released when
// Execute returns, whatever the task's outcome.
func (e *LockingTaskExecutor) Execute(ctx context.Context, cfg LockConfiguration, task TaskFunc) error {
	if task == nil {
		return errors.New("locking: task must not be nil")
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	lockName := e.namePrefix + cfg.Name
	log := slog.With(slog.String("lock.name", lockName))

	start := time.Now()
	lockCtx, release, err := e.acquire(ctx, lockName)
	if err != nil {
		return err
	}
	defer release()

	log.InfoContext(ctx, "locking: lock acquired", slog.Duration("lock.acquire_latency", time.Since(start)))

	taskCtx, cancel := lockCtx, context.CancelFunc(func() {})
	if cfg.LockAtMostFor > 0 {
		taskCtx, cancel = context.WithTimeout(lockCtx, cfg.LockAtMostFor)
	}
	defer cancel()

	taskStart := time.Now()
	err = task(taskCtx)
	log.InfoContext(ctx, "locking: task finished",
		slog.Duration("task.duration", time.Since(taskStart)),
		slog.Any("task.error", err),
	)
	return err
}

func (e *LockingTaskExecutor) acquire(ctx context.Context, lockName string) (context.Context, context.CancelFunc, error) {
	if !e.waitForLock {
		lockCtx, release, err := e.locker.TryWithContext(ctx, lockName)
		switch {
		case errors.Is(err, rueidislock.ErrNotLocked):
			return nil, nil, ErrLockNotAcquired
		case err != nil:
			return nil, nil, fmt.Errorf("locking: try-acquire %q: %w", lockName, err)
		}
		return lockCtx, release, nil
	}

	acquireCtx := ctx
	if e.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, e.acquireTimeout)
		defer cancel()
	}

	lockCtx, release, err := e.locker.WithContext(acquireCtx, lockName)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("locking: acquire %q: %w", lockName, err)
	}
	return lockCtx, release, nil
}

func validateConfig(cfg LockConfiguration) error {
	if cfg.Name == "" {
		return fmt.Errorf("%w: lock name must not be empty", ErrInvalidConfiguration)
	}
	if cfg.LockAtMostFor < 0 {
		return fmt.Errorf("%w: lockAtMostFor must not be negative", ErrInvalidConfiguration)
	}
	return nil
}
