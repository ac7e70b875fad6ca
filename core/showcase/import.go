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

package showcase

import (
	"context"
	"log/slog"
	"strings"

	"showcase/core/profile/adapters/rest"
	"showcase/modules/worker"
)

// ImportResult is the outcome of one username in a batch import.
type ImportResult struct {
	Username string
	Saved    *rest.Profile
	Err      error
}

// Importer searches and saves many users with bounded parallelism. Outbound
// throttling is the fetcher's concern.
type Importer struct {
	fetcher     UserFetcher
	saver       ProfileSaver
	concurrency int
}

func NewImporter(fetcher UserFetcher, saver ProfileSaver, concurrency int) *Importer {
	return &Importer{fetcher: fetcher, saver: saver, concurrency: max(concurrency, 1)}
}

// Import returns one result per non-blank username, in input order.
func (im *Importer) Import(ctx context.Context, usernames ...string) []ImportResult {
	names := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u = strings.TrimSpace(u); u != "" {
			names = append(names, u)
		}
	}

	results := worker.Map(ctx, im.concurrency, names, im.importOne)
	for i := range results {
		// jobs skipped after cancellation keep a zero result
		if results[i].Username == "" {
			results[i] = ImportResult{Username: names[i], Err: ctx.Err()}
		}
	}
	return results
}

func (im *Importer) importOne(ctx context.Context, username string) ImportResult {
	res := ImportResult{Username: username}

	user, err := im.fetcher.GetUser(ctx, username)
	if err != nil {
		res.Err = err
		return res
	}

	res.Saved, res.Err = im.saver.SaveProfile(ctx, FromUser(user).SaveRequest())
	if res.Err != nil {
		slog.WarnContext(ctx, "import save failed", slog.String("username", username), slog.Any("error", res.Err))
	}
	return res
}
