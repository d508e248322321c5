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


package config

import (
	"fmt"
	"os"
)

// Environment variables carrying credentials. Credentials are never read
// from config files so a run directory snapshot can be shared safely.
const (
	EnvMemoryAPIKey = "MEMBENCH_MEMORY_API_KEY"
	EnvModelAPIKey  = "MEMBENCH_MODEL_API_KEY"
	EnvMemoryURL    = "MEMBENCH_MEMORY_URL"
)

const defaultMemoryURL = "https://api.getzep.com/api/v2"

// Credentials holds API credentials resolved from the environment.
type Credentials struct {
	MemoryAPIKey  string
	ModelAPIKey   string
	MemoryBaseURL string
}

// CredentialsFromEnv resolves credentials from the environment. A missing
// required variable is a fatal configuration error; the returned error names
// the variable so the failure is actionable.
func CredentialsFromEnv() (*Credentials, error) {
	memKey := os.Getenv(EnvMemoryAPIKey)
	if memKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrMissingCredential, EnvMemoryAPIKey)
	}

	modelKey := os.Getenv(EnvModelAPIKey)
	if modelKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrMissingCredential, EnvModelAPIKey)
	}

	baseURL := os.Getenv(EnvMemoryURL)
	if baseURL == "" {
		baseURL = defaultMemoryURL
	}

	return &Credentials{
		MemoryAPIKey:  memKey,
		ModelAPIKey:   modelKey,
		MemoryBaseURL: baseURL,
	}, nil
}
