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

package main

import (
	"context"
	"errors"
	"fmt"

	"showcase/modules/db"
)

var errMigrateUsage = errors.New("usage: migrate up | down | new <name>")

// runMigrate handles `migrate up`, `migrate down` and `migrate new <name>`.
func runMigrate(ctx context.Context, m db.MigrationManager, args []string) error {
	if len(args) == 0 {
		return errMigrateUsage
	}
	switch args[0] {
	case "up":
		return m.MigrateUp(ctx)
	case "down":
		return m.MigrateDown(ctx)
	case "new":
		if len(args) != 2 || args[1] == "" {
			return errMigrateUsage
		}
		return m.GenerateMigration(ctx, args[1])
	default:
		return fmt.Errorf("%w: unknown command %q", errMigrateUsage, args[0])
	}
}
