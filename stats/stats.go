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


// Package stats computes summary statistics over evaluation results.
// Everything here is a pure function of its input; aggregation has no side
// effects and is deterministic for a given input sequence.
package stats

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/poiesic/membench/core"
)

// Distribution summarizes a collection of values. On an empty collection
// every field is NaN and Count is zero; callers get well-defined "no data"
// output rather than a panic.
//
// Percentiles use linear interpolation between closest ranks, so results
// are exactly reproducible from the same input sequence.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// MarshalJSON renders NaN fields as null, keeping empty-run artifacts valid
// JSON.
func (d Distribution) MarshalJSON() ([]byte, error) {
	f := func(v float64) any {
		if math.IsNaN(v) {
			return nil
		}
		return v
	}
	return json.Marshal(struct {
		Count  int `json:"count"`
		Mean   any `json:"mean"`
		Median any `json:"median"`
		StdDev any `json:"std_dev"`
		P50    any `json:"p50"`
		P90    any `json:"p90"`
		P95    any `json:"p95"`
		P99    any `json:"p99"`
		Min    any `json:"min"`
		Max    any `json:"max"`
	}{d.Count, f(d.Mean), f(d.Median), f(d.StdDev), f(d.P50), f(d.P90), f(d.P95), f(d.P99), f(d.Min), f(d.Max)})
}

// LatencyStats holds duration distributions for a run, in seconds.
type LatencyStats struct {
	Retrieval Distribution `json:"retrieval_seconds"`
	Response  Distribution `json:"response_seconds"`
	Total     Distribution `json:"total_seconds"`
}

// TokenStats holds the context token distribution for a run.
type TokenStats struct {
	ContextTokens Distribution `json:"context_tokens"`
	ContextChars  Distribution `json:"context_chars"`
}

// Metrics is the run-level aggregate. Accuracy is computed over graded
// results only; ungraded (failed) results are excluded from both numerator
// and denominator and surfaced in Excluded so accuracy is never silently
// inflated by omission.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Graded    int     `json:"graded"`
	Excluded  int     `json:"excluded"`
	Total     int     `json:"total"`

	MeanRetrievalSeconds float64 `json:"mean_retrieval_seconds"`
	MeanResponseSeconds  float64 `json:"mean_response_seconds"`
	MeanTotalSeconds     float64 `json:"mean_total_seconds"`
}

// MarshalJSON renders NaN means as null for empty runs.
func (m Metrics) MarshalJSON() ([]byte, error) {
	f := func(v float64) any {
		if math.IsNaN(v) {
			return nil
		}
		return v
	}
	type alias struct {
		Accuracy  any `json:"accuracy"`
		Correct   int `json:"correct"`
		Incorrect int `json:"incorrect"`
		Graded    int `json:"graded"`
		Excluded  int `json:"excluded"`
		Total     int `json:"total"`

		MeanRetrievalSeconds any `json:"mean_retrieval_seconds"`
		MeanResponseSeconds  any `json:"mean_response_seconds"`
		MeanTotalSeconds     any `json:"mean_total_seconds"`
	}
	return json.Marshal(alias{
		f(m.Accuracy), m.Correct, m.Incorrect, m.Graded, m.Excluded, m.Total,
		f(m.MeanRetrievalSeconds), f(m.MeanResponseSeconds), f(m.MeanTotalSeconds),
	})
}

// Aggregate computes the run-level metrics and distributions for a result
// sequence.
func Aggregate(results []core.EvaluationResult) (Metrics, LatencyStats, TokenStats) {
	m := Metrics{Total: len(results)}

	retrieval := make([]float64, 0, len(results))
	response := make([]float64, 0, len(results))
	total := make([]float64, 0, len(results))
	tokens := make([]float64, 0, len(results))
	chars := make([]float64, 0, len(results))

	for i := range results {
		r := &results[i]
		if r.Graded() {
			m.Graded++
			if r.Grade.Correct() {
				m.Correct++
			} else {
				m.Incorrect++
			}
		} else {
			m.Excluded++
		}

		if r.Failed() && r.Hypothesis == "" {
			// Retrieval and response failures carry partial timings
			// and would skew the distributions. A grading failure
			// still has a hypothesis, so its retrieval and response
			// completed with full timings; keep it.
			continue
		}

		retrieval = append(retrieval, r.RetrievalDuration.Seconds())
		response = append(response, r.ResponseDuration.Seconds())
		total = append(total, r.TotalDuration.Seconds())
		tokens = append(tokens, float64(r.ContextTokens))
		chars = append(chars, float64(r.ContextChars))
	}

	if m.Graded > 0 {
		m.Accuracy = float64(m.Correct) / float64(m.Graded)
	} else {
		m.Accuracy = math.NaN()
	}

	lat := LatencyStats{
		Retrieval: Summarize(retrieval),
		Response:  Summarize(response),
		Total:     Summarize(total),
	}
	tok := TokenStats{
		ContextTokens: Summarize(tokens),
		ContextChars:  Summarize(chars),
	}

	m.MeanRetrievalSeconds = lat.Retrieval.Mean
	m.MeanResponseSeconds = lat.Response.Mean
	m.MeanTotalSeconds = lat.Total.Mean

	return m, lat, tok
}

// SummarizeDurations summarizes a duration collection in seconds.
func SummarizeDurations(durations []time.Duration) Distribution {
	values := make([]float64, len(durations))
	for i, d := range durations {
		values[i] = d.Seconds()
	}
	return Summarize(values)
}

// Summarize computes the distribution of a value collection. The input
// slice is not modified.
func Summarize(values []float64) Distribution {
	if len(values) == 0 {
		nan := math.NaN()
		return Distribution{
			Mean: nan, Median: nan, StdDev: nan,
			P50: nan, P90: nan, P95: nan, P99: nan,
			Min: nan, Max: nan,
		}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	variance := 0.0
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(sorted))

	return Distribution{
		Count:  len(sorted),
		Mean:   mean,
		Median: percentile(sorted, 50),
		StdDev: math.Sqrt(variance),
		P50:    percentile(sorted, 50),
		P90:    percentile(sorted, 90),
		P95:    percentile(sorted, 95),
		P99:    percentile(sorted, 99),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// percentile computes the p-th percentile of a sorted slice using linear
// interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
