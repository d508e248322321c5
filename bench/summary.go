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


package bench

import (
	"fmt"
	"math"
)

// printSummary writes the human-readable wrap-up for a run.
func (r *Runner) printSummary(o *Outcome) {
	if r.out == nil {
		return
	}

	fmt.Fprintf(r.out, "\nRun complete: %s\n", o.Dir)
	if o.Ingestion != nil {
		fmt.Fprintf(r.out, "Ingestion: %d units (%d succeeded, %d skipped, %d failed)\n",
			o.Ingestion.Total, o.Ingestion.Succeeded, o.Ingestion.Skipped, o.Ingestion.Failed)
	}

	m := o.Metrics
	fmt.Fprintf(r.out, "Questions: %d total, %d graded, %d excluded\n", m.Total, m.Graded, m.Excluded)
	if math.IsNaN(m.Accuracy) {
		fmt.Fprintf(r.out, "Accuracy:  n/a (nothing graded)\n")
	} else {
		fmt.Fprintf(r.out, "Accuracy:  %.1f%% (%d/%d)\n", m.Accuracy*100, m.Correct, m.Graded)
	}

	if o.Latency.Total.Count > 0 {
		fmt.Fprintf(r.out, "Latency:   mean %.2fs, p95 %.2fs (retrieval mean %.2fs, response mean %.2fs)\n",
			o.Latency.Total.Mean, o.Latency.Total.P95,
			o.Latency.Retrieval.Mean, o.Latency.Response.Mean)
	}
	if o.Tokens.ContextTokens.Count > 0 {
		fmt.Fprintf(r.out, "Context:   mean %.0f tokens, max %.0f\n",
			o.Tokens.ContextTokens.Mean, o.Tokens.ContextTokens.Max)
	}
}
