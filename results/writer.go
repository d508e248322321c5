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


// Package results persists benchmark runs as self-describing directories:
// a structured results document plus a snapshot of the source config, so a
// run can be interpreted without reference to external state.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/stats"
)

const (
	timestampLayout = "20060102_150405"
	resultsFile     = "results.json"
	configSnapshot  = "config.yaml"
)

// Document is the structure of results.json.
type Document struct {
	Config  *config.Config          `json:"config"`
	Metrics stats.Metrics           `json:"metrics"`
	Latency stats.LatencyStats      `json:"latency"`
	Tokens  stats.TokenStats        `json:"tokens"`
	Results []core.EvaluationResult `json:"results"`
}

// SaveRun writes a run directory under cfg.OutputDir named by a
// second-granularity timestamp. When a second run starts within the same
// wall-clock second, a short random suffix keeps the directory unique
// instead of silently overwriting the first.
//
// configSource, when non-empty, is the path of the loaded config file; its
// bytes are copied verbatim as the snapshot. Otherwise the in-memory config
// is serialized.
func SaveRun(cfg *config.Config, metrics stats.Metrics, latency stats.LatencyStats, tokens stats.TokenStats, results []core.EvaluationResult, configSource string) (string, error) {
	dir, err := createRunDir(cfg.OutputDir, time.Now())
	if err != nil {
		return "", err
	}

	doc := Document{
		Config:  cfg,
		Metrics: metrics,
		Latency: latency,
		Tokens:  tokens,
		Results: results,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize results: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, resultsFile), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", resultsFile, err)
	}

	if err := snapshotConfig(cfg, configSource, filepath.Join(dir, configSnapshot)); err != nil {
		return "", err
	}

	return dir, nil
}

// createRunDir creates a uniquely named run directory for the timestamp.
func createRunDir(outputDir string, now time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	base := filepath.Join(outputDir, "run_"+now.Format(timestampLayout))
	err := os.Mkdir(base, 0755)
	if err == nil {
		return base, nil
	}
	if !os.IsExist(err) {
		return "", fmt.Errorf("failed to create run directory %s: %w", base, err)
	}

	// Same-second collision: disambiguate rather than overwrite.
	unique := base + "_" + uuid.NewString()[:8]
	if err := os.Mkdir(unique, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory %s: %w", unique, err)
	}
	return unique, nil
}

// snapshotConfig copies the source config file into the run directory, or
// re-serializes the in-memory config when the run used built-in defaults.
func snapshotConfig(cfg *config.Config, source, dest string) error {
	if source != "" {
		data, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read config source %s: %w", source, err)
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return fmt.Errorf("failed to write config snapshot: %w", err)
		}
		return nil
	}
	return cfg.Save(dest)
}
