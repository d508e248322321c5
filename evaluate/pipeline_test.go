package evaluate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/membench/ai"
	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/memory"
	"github.com/poiesic/membench/memory/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a canned ai.Provider for pipeline tests.
type stubProvider struct {
	respond func(ctx context.Context, question, memoryContext string) (string, error)
	grade   func(ctx context.Context, question, goldAnswer, hypothesis string) (*core.Grade, error)
}

func (s *stubProvider) Respond(ctx context.Context, question, memoryContext string) (string, error) {
	if s.respond != nil {
		return s.respond(ctx, question, memoryContext)
	}
	return "stub answer", nil
}

func (s *stubProvider) Grade(ctx context.Context, question, goldAnswer, hypothesis string) (*core.Grade, error) {
	if s.grade != nil {
		return s.grade(ctx, question, goldAnswer, hypothesis)
	}
	return &core.Grade{Verdict: core.VerdictCorrect, Reasoning: "matches"}, nil
}

func (s *stubProvider) Responder() ai.Responder { return s }
func (s *stubProvider) Grader() ai.Grader       { return s }
func (s *stubProvider) Close() error            { return nil }

func evalConfig() *config.Config {
	cfg := config.Default()
	cfg.Evaluation.Concurrency = 2
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.BaseDelay = 5 * time.Millisecond
	cfg.CallTimeout = time.Second
	return cfg
}

func charBuilder(budget int) *ContextBuilder {
	return &ContextBuilder{count: func(text string) int { return len(text) }, budget: budget}
}

func evalQuestions() []core.Question {
	return []core.Question{
		{ID: "q1", UserID: "user1", Text: "where does alice live", GoldAnswer: "Paris", Category: "single-hop"},
		{ID: "q2", UserID: "user1", Text: "what does bob paint", GoldAnswer: "landscapes", Category: "single-hop"},
	}
}

func TestEvaluateAllQuestions(t *testing.T) {
	svc := mock.NewService()
	svc.Contexts["user1"] = &memory.Context{Facts: []string{"alice lives in Paris"}}

	p, err := NewPipeline(svc, &stubProvider{}, evalConfig(),
		WithContextBuilder(charBuilder(10000)))
	require.NoError(t, err)
	defer p.Release()

	results, err := p.Evaluate(context.Background(), evalQuestions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	seen := map[string]bool{}
	for _, r := range results {
		seen[r.QuestionID] = true
		assert.False(t, r.Failed())
		require.True(t, r.Graded())
		assert.True(t, r.Grade.Correct())
		assert.Equal(t, "stub answer", r.Hypothesis)
		assert.Contains(t, r.Context, "alice lives in Paris")
		assert.Greater(t, r.ContextTokens, 0)
		assert.Equal(t, len(r.Context), r.ContextChars)
		assert.Equal(t, r.RetrievalDuration+r.ResponseDuration, r.TotalDuration)
	}
	assert.True(t, seen["q1"])
	assert.True(t, seen["q2"])
}

func TestEvaluateRetrievalFailure(t *testing.T) {
	svc := mock.NewService()
	svc.RetrieveContextFunc = func(ctx context.Context, userID, query string, limits memory.RetrievalLimits) (*memory.Context, error) {
		return nil, errors.New("boom")
	}

	p, err := NewPipeline(svc, &stubProvider{}, evalConfig(),
		WithContextBuilder(charBuilder(10000)))
	require.NoError(t, err)
	defer p.Release()

	results, err := p.Evaluate(context.Background(), evalQuestions()[:1])
	require.NoError(t, err, "a failed question must not abort the batch")
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Failed())
	assert.False(t, r.Graded())
	assert.Contains(t, r.Failure, ErrRetrievalFailed.Error())
	assert.Empty(t, r.Hypothesis)
	assert.Equal(t, r.RetrievalDuration, r.TotalDuration)
}

func TestEvaluateResponseFailure(t *testing.T) {
	svc := mock.NewService()
	provider := &stubProvider{
		respond: func(ctx context.Context, question, memoryContext string) (string, error) {
			return "", errors.New("model unavailable")
		},
	}

	p, err := NewPipeline(svc, provider, evalConfig(),
		WithContextBuilder(charBuilder(10000)))
	require.NoError(t, err)
	defer p.Release()

	results, err := p.Evaluate(context.Background(), evalQuestions()[:1])
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Failed())
	assert.Contains(t, r.Failure, ErrResponseFailed.Error())
	assert.NotContains(t, r.Failure, ErrGradingFailed.Error())
}

func TestEvaluateGradingFailureKeepsHypothesis(t *testing.T) {
	svc := mock.NewService()
	provider := &stubProvider{
		grade: func(ctx context.Context, question, goldAnswer, hypothesis string) (*core.Grade, error) {
			return nil, errors.New("judge returned garbage")
		},
	}

	p, err := NewPipeline(svc, provider, evalConfig(),
		WithContextBuilder(charBuilder(10000)))
	require.NoError(t, err)
	defer p.Release()

	results, err := p.Evaluate(context.Background(), evalQuestions()[:1])
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Failed())
	assert.False(t, r.Graded())
	assert.Contains(t, r.Failure, ErrGradingFailed.Error(),
		"grading failures must be distinguishable from response failures")
	assert.Equal(t, "stub answer", r.Hypothesis, "hypothesis survives a grading failure")
	assert.Greater(t, r.TotalDuration, time.Duration(0))
}

func TestEvaluateRetriesTransientRetrieval(t *testing.T) {
	svc := mock.NewService()
	calls := 0
	svc.RetrieveContextFunc = func(ctx context.Context, userID, query string, limits memory.RetrievalLimits) (*memory.Context, error) {
		calls++
		if calls == 1 {
			return nil, memory.ErrTransient
		}
		return &memory.Context{Facts: []string{"recovered"}}, nil
	}

	p, err := NewPipeline(svc, &stubProvider{}, evalConfig(),
		WithContextBuilder(charBuilder(10000)))
	require.NoError(t, err)
	defer p.Release()

	results, err := p.Evaluate(context.Background(), evalQuestions()[:1])
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.False(t, results[0].Failed())
	assert.Equal(t, 2, calls)
	assert.Contains(t, results[0].Context, "recovered")
}

func TestEvaluatePassesRetrievalLimits(t *testing.T) {
	svc := mock.NewService()
	var got memory.RetrievalLimits
	svc.RetrieveContextFunc = func(ctx context.Context, userID, query string, limits memory.RetrievalLimits) (*memory.Context, error) {
		got = limits
		return &memory.Context{}, nil
	}

	cfg := evalConfig()
	cfg.Retrieval.EdgeLimit = 33
	cfg.Retrieval.EdgeReranker = "cross_encoder"
	cfg.Retrieval.NodeLimit = 4
	cfg.Retrieval.EpisodeLimit = 2

	p, err := NewPipeline(svc, &stubProvider{}, cfg,
		WithContextBuilder(charBuilder(10000)))
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Evaluate(context.Background(), evalQuestions()[:1])
	require.NoError(t, err)

	assert.Equal(t, 33, got.Edges)
	assert.Equal(t, "cross_encoder", got.Reranker)
	assert.Equal(t, 4, got.Nodes)
	assert.Equal(t, 2, got.Episodes)
}

func TestEvaluateEmptyContextStillAnswers(t *testing.T) {
	svc := mock.NewService() // no canned context: retrieval returns empty

	var seenContext *string
	provider := &stubProvider{
		respond: func(ctx context.Context, question, memoryContext string) (string, error) {
			c := memoryContext
			seenContext = &c
			return "I don't know", nil
		},
	}

	p, err := NewPipeline(svc, provider, evalConfig(),
		WithContextBuilder(charBuilder(10000)))
	require.NoError(t, err)
	defer p.Release()

	results, err := p.Evaluate(context.Background(), evalQuestions()[:1])
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NotNil(t, seenContext)
	assert.Empty(t, strings.TrimSpace(*seenContext))
	assert.False(t, results[0].Failed())
	assert.Zero(t, results[0].ContextTokens)
}
