package answer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"legalrag/models"
)

func TestGenerator_DisabledWithoutClientWarnsAndLeavesDraftNil(t *testing.T) {
	g := NewGenerator(nil, "")
	assert.False(t, g.Enabled())

	contract := models.AnswerContract{}
	g.Draft(context.Background(), &contract, models.DraftAnticipatoryBail, "facts")

	assert.Nil(t, contract.Draft)
	assert.Contains(t, contract.Warnings, "drafting_unavailable: GEMINI_API_KEY not configured")
}

func TestGenerator_DisabledWithoutClientWarnsOnSummarize(t *testing.T) {
	g := NewGenerator(nil, "")

	contract := models.AnswerContract{ShortAnswer: "original"}
	g.Summarize(context.Background(), &contract)

	assert.Equal(t, "original", contract.ShortAnswer)
	assert.Contains(t, contract.Warnings, "summarization_unavailable: GEMINI_API_KEY not configured")
}

func TestSplitLines_TrimsAndDropsBlankLines(t *testing.T) {
	out := splitLines("first\n\n  second  \n\nthird\n")
	assert.Equal(t, []string{"first", "second", "third"}, out)
}

func TestBuildDraftPrompt_IncludesTypeFactsAndCitations(t *testing.T) {
	contract := models.AnswerContract{
		Statutes: []models.CitedStatute{{ID: "s1"}},
		Cases:    []models.CitedCase{{ID: "c1"}},
	}
	prompt := buildDraftPrompt(models.DraftQuash, "the accused was arrested", contract)

	assert.Contains(t, prompt, string(models.DraftQuash))
	assert.Contains(t, prompt, "the accused was arrested")
	assert.Contains(t, prompt, "statute s1")
	assert.Contains(t, prompt, "case c1")
}
