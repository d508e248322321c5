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


package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/membench/core"
)

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a memory service client. The timeout bounds each
// individual call; a timed-out call surfaces as a transient error.
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrRequestFailed)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrRequestFailed)
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.Default().With("component", "memory-client"),
	}, nil
}

// Wire types. The service speaks JSON; edges carry facts, nodes carry
// entity summaries, episodes carry source snippets.

type addConversationRequest struct {
	UserID   string               `json:"user_id"`
	UnitID   string               `json:"unit_id"`
	Messages []conversationChunk  `json:"messages"`
}

type conversationChunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

type retrieveRequest struct {
	UserID       string `json:"user_id"`
	Query        string `json:"query"`
	EdgeLimit    int    `json:"edge_limit"`
	EdgeReranker string `json:"edge_reranker,omitempty"`
	NodeLimit    int    `json:"node_limit"`
	EpisodeLimit int    `json:"episode_limit"`
}

type retrieveResponse struct {
	Edges []struct {
		Fact string `json:"fact"`
	} `json:"edges"`
	Nodes []struct {
		Name    string `json:"name"`
		Summary string `json:"summary"`
	} `json:"nodes"`
	Episodes []struct {
		Content string `json:"content"`
	} `json:"episodes"`
}

// AddConversation submits one unit's chunks to the service.
func (c *Client) AddConversation(ctx context.Context, userID string, unitID core.UnitID, chunks []core.Chunk) error {
	req := addConversationRequest{
		UserID: userID,
		UnitID: string(unitID),
	}
	for _, chunk := range chunks {
		req.Messages = append(req.Messages, conversationChunk{
			Index:   chunk.Index,
			Content: chunk.Content,
		})
	}

	return c.post(ctx, "/conversations", req, nil)
}

// RetrieveContext returns graph content relevant to the query.
func (c *Client) RetrieveContext(ctx context.Context, userID, query string, limits RetrievalLimits) (*Context, error) {
	req := retrieveRequest{
		UserID:       userID,
		Query:        query,
		EdgeLimit:    limits.Edges,
		EdgeReranker: limits.Reranker,
		NodeLimit:    limits.Nodes,
		EpisodeLimit: limits.Episodes,
	}

	var resp retrieveResponse
	if err := c.post(ctx, "/retrieve", req, &resp); err != nil {
		return nil, err
	}

	result := &Context{}
	for _, edge := range resp.Edges {
		if edge.Fact != "" {
			result.Facts = append(result.Facts, edge.Fact)
		}
	}
	for _, node := range resp.Nodes {
		if node.Name == "" {
			continue
		}
		if node.Summary != "" {
			result.Entities = append(result.Entities, node.Name+": "+node.Summary)
		} else {
			result.Entities = append(result.Entities, node.Name)
		}
	}
	for _, ep := range resp.Episodes {
		if ep.Content != "" {
			result.Episodes = append(result.Episodes, ep.Content)
		}
	}

	return result, nil
}

// post issues a JSON POST and decodes the response into out when non-nil.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport errors (timeouts, refused connections, resets) are
		// all connection-level and worth retrying.
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Debug("memory service error", "path", path, "status", resp.StatusCode)
		return classifyStatus(resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrRequestFailed, err)
	}
	return nil
}
