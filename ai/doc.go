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


// Package ai defines the model services the benchmark harness consumes.
//
// Two interfaces cover the evaluation loop:
//
//   - Responder: answers a benchmark question from retrieved context
//   - Grader: judges a hypothesis against the gold answer
//
// The ai/openai sub-package implements both over OpenAI-compatible chat
// APIs. Pipelines depend only on the interfaces, so tests inject doubles
// without touching a network.
package ai
