package openai

import (
	"testing"

	"github.com/poiesic/membench/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGradeResponse(t *testing.T) {
	grade, err := parseGradeResponse(`{"verdict": "CORRECT", "reasoning": "matches the gold answer"}`)
	require.NoError(t, err)
	assert.Equal(t, core.VerdictCorrect, grade.Verdict)
	assert.Equal(t, "matches the gold answer", grade.Reasoning)
	assert.True(t, grade.Correct())
}

func TestParseGradeResponseIncorrect(t *testing.T) {
	grade, err := parseGradeResponse(`{"verdict": "INCORRECT", "reasoning": "wrong city"}`)
	require.NoError(t, err)
	assert.Equal(t, core.VerdictIncorrect, grade.Verdict)
	assert.False(t, grade.Correct())
}

func TestParseGradeResponseCodeFences(t *testing.T) {
	grade, err := parseGradeResponse("```json\n{\"verdict\": \"CORRECT\", \"reasoning\": \"ok\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictCorrect, grade.Verdict)

	grade, err = parseGradeResponse("```\n{\"verdict\": \"INCORRECT\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictIncorrect, grade.Verdict)
}

func TestParseGradeResponseCaseInsensitive(t *testing.T) {
	grade, err := parseGradeResponse(`{"verdict": "correct"}`)
	require.NoError(t, err)
	assert.Equal(t, core.VerdictCorrect, grade.Verdict)

	grade, err = parseGradeResponse(`{"verdict": " incorrect "}`)
	require.NoError(t, err)
	assert.Equal(t, core.VerdictIncorrect, grade.Verdict)
}

func TestParseGradeResponseWrongSynonym(t *testing.T) {
	grade, err := parseGradeResponse(`{"verdict": "WRONG", "reasoning": "off by a year"}`)
	require.NoError(t, err)
	assert.Equal(t, core.VerdictIncorrect, grade.Verdict)
}

func TestParseGradeResponseMalformed(t *testing.T) {
	_, err := parseGradeResponse("the answer looks right to me")
	require.Error(t, err)

	_, err = parseGradeResponse(`{"verdict": "MAYBE"}`)
	require.Error(t, err)

	_, err = parseGradeResponse(`{"verdict": ""}`)
	require.Error(t, err)
}
