// Copyright 2025 Poiesic Systems
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
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/membench/ai/openai"
	"github.com/poiesic/membench/bench"
	"github.com/poiesic/membench/checkpoint"
	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/dataset"
	"github.com/poiesic/membench/memory"
	"github.com/poiesic/membench/storage"
	"github.com/poiesic/membench/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	datasetUsage := fmt.Sprintf("Dataset name (%s)", strings.Join(dataset.Names, ", "))

	app := &cli.App{
		Name:  "membench",
		Usage: "Benchmark harness for conversational memory services",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest dataset transcripts into the memory service",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML config file (defaults apply when omitted)",
					},
					&cli.StringFlag{
						Name:     "dataset",
						Aliases:  []string{"d"},
						Usage:    datasetUsage,
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Usage:    "Path to the dataset file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "checkpoint",
						Usage: "Path to the ingestion checkpoint file",
						Value: "checkpoints/ingest.json",
					},
				},
			},
			{
				Name:   "evaluate",
				Usage:  "Evaluate benchmark questions against already-ingested memories",
				Action: evaluateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML config file (defaults apply when omitted)",
					},
					&cli.StringFlag{
						Name:     "dataset",
						Aliases:  []string{"d"},
						Usage:    datasetUsage,
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Usage:    "Path to the dataset file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "archive",
						Usage: "Path to the run archive database (empty disables archiving)",
						Value: "experiments/archive",
					},
				},
			},
			{
				Name:   "run",
				Usage:  "Run the full benchmark: ingest then evaluate",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML config file (defaults apply when omitted)",
					},
					&cli.StringFlag{
						Name:     "dataset",
						Aliases:  []string{"d"},
						Usage:    datasetUsage,
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Usage:    "Path to the dataset file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "checkpoint",
						Usage: "Path to the ingestion checkpoint file",
						Value: "checkpoints/ingest.json",
					},
					&cli.StringFlag{
						Name:  "archive",
						Usage: "Path to the run archive database (empty disables archiving)",
						Value: "experiments/archive",
					},
				},
			},
			{
				Name:   "runs",
				Usage:  "List archived benchmark runs, newest first",
				Action: runsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "archive",
						Usage: "Path to the run archive database",
						Value: "experiments/archive",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list (0 lists all)",
						Value: 20,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return err
	}

	transcripts, _, err := dataset.Load(c.String("dataset"), c.String("data"))
	if err != nil {
		return err
	}

	svc, err := memory.NewClient(creds.MemoryBaseURL, creds.MemoryAPIKey, cfg.CallTimeout)
	if err != nil {
		return fmt.Errorf("failed to create memory client: %w", err)
	}

	store := checkpoint.NewStore(c.String("checkpoint"), slog.Default())
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	runner, err := bench.NewRunner(svc, cfg,
		bench.WithCheckpointStore(store),
		bench.WithProgressWriter(os.Stderr))
	if err != nil {
		return err
	}

	report, err := runner.Ingest(ctx, transcripts)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Ingestion: %d units (%d succeeded, %d skipped, %d failed)\n",
		report.Total, report.Succeeded, report.Skipped, report.Failed)

	if report.Failed > 0 && report.Succeeded == 0 && report.Skipped == 0 {
		return cli.Exit("every unit failed", 1)
	}
	return nil
}

func evaluateCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, cfgPath, err := loadConfig(c)
	if err != nil {
		return err
	}

	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return err
	}

	_, questions, err := dataset.Load(c.String("dataset"), c.String("data"))
	if err != nil {
		return err
	}

	svc, err := memory.NewClient(creds.MemoryBaseURL, creds.MemoryAPIKey, cfg.CallTimeout)
	if err != nil {
		return fmt.Errorf("failed to create memory client: %w", err)
	}

	models, err := openai.NewProvider(cfg.Models, creds.ModelAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create model provider: %w", err)
	}
	defer models.Close()

	archive, closeArchive, err := openArchive(c.String("archive"))
	if err != nil {
		return err
	}
	defer closeArchive()

	runner, err := bench.NewRunner(svc, cfg,
		bench.WithProvider(models),
		bench.WithArchive(archive),
		bench.WithOutput(os.Stdout),
		bench.WithConfigSource(cfgPath),
		bench.WithDatasetName(c.String("dataset")))
	if err != nil {
		return err
	}

	outcome, err := runner.Evaluate(ctx, questions)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if !outcome.Succeeded() {
		return cli.Exit("every question failed", 1)
	}
	return nil
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, cfgPath, err := loadConfig(c)
	if err != nil {
		return err
	}

	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return err
	}

	transcripts, questions, err := dataset.Load(c.String("dataset"), c.String("data"))
	if err != nil {
		return err
	}

	svc, err := memory.NewClient(creds.MemoryBaseURL, creds.MemoryAPIKey, cfg.CallTimeout)
	if err != nil {
		return fmt.Errorf("failed to create memory client: %w", err)
	}

	models, err := openai.NewProvider(cfg.Models, creds.ModelAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create model provider: %w", err)
	}
	defer models.Close()

	store := checkpoint.NewStore(c.String("checkpoint"), slog.Default())
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	archive, closeArchive, err := openArchive(c.String("archive"))
	if err != nil {
		return err
	}
	defer closeArchive()

	runner, err := bench.NewRunner(svc, cfg,
		bench.WithProvider(models),
		bench.WithCheckpointStore(store),
		bench.WithArchive(archive),
		bench.WithOutput(os.Stdout),
		bench.WithProgressWriter(os.Stderr),
		bench.WithConfigSource(cfgPath),
		bench.WithDatasetName(c.String("dataset")))
	if err != nil {
		return err
	}

	_, err = runner.Run(ctx, transcripts, questions)
	if errors.Is(err, bench.ErrNothingSucceeded) {
		return cli.Exit("nothing succeeded", 1)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func runsCommand(c *cli.Context) error {
	ctx := context.Background()

	archive, closeArchive, err := openArchive(c.String("archive"))
	if err != nil {
		return err
	}
	if archive == nil {
		return fmt.Errorf("archive path is required")
	}
	defer closeArchive()

	summaries, err := archive.ListRuns(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	for _, s := range summaries {
		accuracy := "n/a"
		if s.Graded > 0 {
			accuracy = fmt.Sprintf("%.1f%%", s.Accuracy*100)
		}
		fmt.Printf("%s  %-12s  %s  accuracy %s (%d/%d graded, %d excluded)  %s\n",
			s.StartedAt.Format("2006-01-02 15:04:05"),
			s.Dataset, s.ID[:8], accuracy, s.Correct, s.Graded, s.Excluded, s.Dir)
	}
	return nil
}

// loadConfig reads the config file named by the --config flag, or falls
// back to defaults. Returns the path actually loaded so runs can snapshot
// the source file verbatim.
func loadConfig(c *cli.Context) (*config.Config, string, error) {
	path := c.String("config")
	if path == "" {
		cfg := config.Default()
		return cfg, "", cfg.Validate()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// openArchive opens the run archive at path. An empty path disables
// archiving: callers get a nil repository and a no-op closer.
func openArchive(path string) (storage.RunRepository, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}

	backend, err := badger.OpenBackend(path, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	repo, err := badger.NewRunRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	closer := func() {
		repo.Close()
		backend.Close()
	}
	return repo, closer, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
