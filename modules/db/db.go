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
	// Querier is satisfied by bob.DB and bob.Tx.
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
		HealthCheck(ctx context.Context) error
	}

	// ConnectionManager applies the read-replica pattern whenever possible.
	ConnectionManager interface {
		// Writer returns a connection to the primary.
		Writer() Querier

		ReaderConnectionManager
	}

	ReaderConnectionManager interface {
		// Reader returns a read replica connection, falling back to the
		// primary when no replica is configured.
		Reader() Querier
	}

	MigrationManager interface {
		// GenerateMigration writes a new, empty migration file named after name.
		GenerateMigration(ctx context.Context, name string) error
		// MigrateUp creates the database if needed and applies pending migrations.
		MigrateUp(ctx context.Context) error
		// MigrateDown rolls back the latest applied migration.
		MigrateDown(ctx context.Context) error
	}
)
