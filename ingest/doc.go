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


// Package ingest splits benchmark transcripts into size-bounded chunks and
// submits them to the memory service under a concurrency cap.
//
// Each transcript session becomes one unit with a content-derived ID. Units
// are checkpointed after successful submission, so interrupted runs resume
// with exactly the units that have not completed. One unit's permanent
// failure never aborts the rest of the run.
package ingest
