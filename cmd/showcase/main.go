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

// Command showcase looks up GitHub profiles and saves them to the showcase backend.
//
//	showcase search [-save] <username>
//	showcase import [-c N] <username>...
//	showcase interactive
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"showcase/core/profile/adapters/restclient"
	"showcase/core/showcase"
	"showcase/modules/appconfig"
	"showcase/modules/github"
)

var errUsage = errors.New("usage: showcase search [-save] <username> | import [-c N] <username>... | interactive")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if level, err := appconfig.ParseLogLevel(cfg.LogLevel); err == nil {
		slog.SetLogLoggerLevel(level)
	}

	if err := run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type deps struct {
	fetcher showcase.UserFetcher
	saver   showcase.ProfileSaver
}

func newDeps(cfg *Config) (*deps, error) {
	gh, err := github.NewClient(
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithToken(cfg.GitHubToken),
		github.WithRateLimit(cfg.GitHubRatePerMinute),
	)
	if err != nil {
		return nil, err
	}
	return &deps{fetcher: gh, saver: restclient.New(cfg.APIURL, nil)}, nil
}

func run(ctx context.Context, cfg *Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	d, err := newDeps(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}

	alerter := showcase.AlerterFunc(func(title, message string) {
		fmt.Fprintf(stderr, "[%s] %s\n", title, message)
	})

	switch args[0] {
	case "search":
		return runSearch(ctx, d, alerter, args[1:], stdout)
	case "import":
		return runImport(ctx, cfg, d, args[1:], stdout)
	case "interactive":
		return runInteractive(ctx, d, alerter, stdin, stdout)
	default:
		return errUsage
	}
}

func runSearch(ctx context.Context, d *deps, alerter showcase.Alerter, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	save := fs.Bool("save", false, "save the profile after displaying it")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}

	screen := showcase.NewScreen(d.fetcher, d.saver, alerter)
	if err := screen.Search(ctx, fs.Arg(0)); err != nil {
		return err
	}
	if err := screen.Render(stdout); err != nil {
		return err
	}
	if *save {
		return screen.Save(ctx)
	}
	return nil
}

func runImport(ctx context.Context, cfg *Config, d *deps, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	concurrency := fs.Int("c", cfg.ImportConcurrency, "parallel lookups")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		return errUsage
	}

	results := showcase.NewImporter(d.fetcher, d.saver, *concurrency).Import(ctx, fs.Args()...)
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(stdout, "FAIL %s: %s\n", r.Username, importFailure(r.Err))
			continue
		}
		fmt.Fprintf(stdout, "OK   %s (%s)\n", r.Username, r.Saved.ID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(results))
	}
	return nil
}

func importFailure(err error) string {
	var perr *restclient.ProblemError
	switch {
	case errors.Is(err, github.ErrUserNotFound):
		return showcase.MsgUserNotFound
	case errors.As(err, &perr):
		return perr.Detail()
	default:
		return err.Error()
	}
}

// runInteractive reads one command per line: a username searches, ":save" saves
// the displayed profile, ":quit" exits.
func runInteractive(ctx context.Context, d *deps, alerter showcase.Alerter, stdin io.Reader, stdout io.Writer) error {
	screen := showcase.NewScreen(d.fetcher, d.saver, alerter)
	sc := bufio.NewScanner(stdin)

	fmt.Fprint(stdout, "github user> ")
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		switch line := strings.TrimSpace(sc.Text()); line {
		case ":quit", ":q":
			return nil
		case ":save":
			// failures are reported through the alerter
			_ = screen.Save(ctx)
		default:
			if err := screen.Search(ctx, line); err == nil {
				_ = screen.Render(stdout)
			}
		}
		fmt.Fprint(stdout, "github user> ")
	}
	return sc.Err()
}
