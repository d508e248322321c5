package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lmeSampleJSON = `[
  {
    "question_id": "gpt4_2655b836",
    "question_type": "single-session-user",
    "question": "What degree did I graduate with?",
    "answer": "A master's in data science",
    "question_date": "2023/05/20 (Sat) 02:21",
    "haystack_dates": ["2023/04/10 (Mon) 21:06", "2023/04/18 (Tue) 10:30"],
    "haystack_session_ids": ["answer_a", "filler_b"],
    "haystack_sessions": [
      [
        {"role": "user", "content": "I just graduated with a master's in data science."},
        {"role": "assistant", "content": "Congratulations on the achievement!"}
      ],
      [
        {"role": "user", "content": "Any tips for meal prep?"}
      ]
    ]
  },
  {
    "question_id": "no_sessions",
    "question_type": "single-session-user",
    "question": "Is this item usable?",
    "answer": "No",
    "haystack_sessions": []
  }
]`

func TestLoadLongMemEval(t *testing.T) {
	transcripts, questions, err := LoadLongMemEval(writeDataset(t, lmeSampleJSON))
	require.NoError(t, err)

	require.Len(t, transcripts, 1, "items without sessions are skipped")
	tr := transcripts[0]
	assert.Equal(t, "gpt4_2655b836", tr.ID)
	assert.Equal(t, "lme_gpt4_2655b836", tr.UserID)
	require.Len(t, tr.Sessions, 2)
	assert.Equal(t, 1, tr.Sessions[0].Index)
	assert.Equal(t, "2023/04/10 (Mon) 21:06", tr.Sessions[0].Time)
	require.Len(t, tr.Sessions[0].Turns, 2)
	assert.Equal(t, "user", tr.Sessions[0].Turns[0].Speaker)
	assert.Equal(t, "assistant", tr.Sessions[0].Turns[1].Speaker)

	require.Len(t, questions, 1)
	q := questions[0]
	assert.Equal(t, "gpt4_2655b836", q.ID)
	assert.Equal(t, "lme_gpt4_2655b836", q.UserID)
	assert.Equal(t, "A master's in data science", q.GoldAnswer)
	assert.Equal(t, "single-session-user", q.Category)
}

func TestLoadLongMemEvalUserScoping(t *testing.T) {
	transcripts, questions, err := LoadLongMemEval(writeDataset(t, lmeSampleJSON))
	require.NoError(t, err)
	require.NotEmpty(t, transcripts)
	require.NotEmpty(t, questions)

	// Each item's question retrieves only against its own haystack.
	assert.Equal(t, transcripts[0].UserID, questions[0].UserID)
}

func TestLoadLongMemEvalMalformed(t *testing.T) {
	_, _, err := LoadLongMemEval(writeDataset(t, "{broken"))
	require.Error(t, err)
}
