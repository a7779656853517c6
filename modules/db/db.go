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

package db

import (
	"context"

	"github.com/stephenafamo/bob"
)

type (
	// Querier uses bob.Executor so both bob.DB and bob.Tx conform
	Querier interface {
		bob.Executor
	}

	// OLTP SQL compliant database connection pool
	ConnectionPool interface {
		HealthManager
		ConnectionManager
		MigrationManager

		// Shutdown attempts to gracefully close all underlying connections.
		Shutdown(context.Context) error
	}

	HealthManager interface {
		// HealthCheck reports whether the primary answers a trivial query.
		HealthCheck(context.Context) error
	}

	// ConnectionManager tries to apply read-replica pattern whenever possible
	ConnectionManager interface {
		// Writer returns a writer (primary) database connection
		// from the underlying database connection pool
		Writer() Querier

		ReaderConnectionManager
	}

	ReaderConnectionManager interface {
		// Reader returns a read replica database connection
		// from the underlying database connection pool
		//
		// Should fallback to a writer connection if not
		// available
		Reader() Querier
	}

	MigrationManager interface {
		MigrateUp() error
		MigrateDown() error
	}

	KV interface {
		// AtomicGet returns the raw stored value, or (nil, nil) for a missing key.
		AtomicGet(context.Context, string) (any, error)
		// AtomicSet stores value and returns the raw previous value, if any.
		AtomicSet(context.Context, string, any) (any, error)
	}

	// VersionedKV refuses writes that would replace a newer JSON document.
	VersionedKV interface {
		KV
		// SetIfNewer stores value unless the stored document's numeric field
		// is greater than version. It reports whether value was stored.
		SetIfNewer(ctx context.Context, key string, value any, field string, version int64) (bool, error)
	}
)
