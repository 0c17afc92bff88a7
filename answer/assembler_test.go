package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/models"
)

func TestAssemble_BuildsCitationsWithQuotesAndSections(t *testing.T) {
	a := NewAssembler(12000, 0.25)
	analysis := models.QueryAnalysis{
		OriginalQuery:   "what is the punishment for murder",
		OffenseKeywords: []string{"murder"},
		TemporalContext: models.TemporalContext{AsOnDate: "2024-01-01"},
	}
	statutes := []models.SearchResult{
		{ID: "s1", Content: "Whoever commits murder shall be punished.", Statute: &models.StatuteFields{SectionNo: "103"}},
	}
	cases := []models.SearchResult{
		{ID: "c1", Content: "The court held the accused guilty.", Case: &models.CaseFields{CitationStrings: []string{"AIR 1973 SC 1461"}, ParaRange: "10-12"}},
	}

	contract, context := a.Assemble(analysis, statutes, cases)

	require.Len(t, contract.Statutes, 1)
	require.Len(t, contract.Cases, 1)
	require.NotNil(t, contract.Statutes[0].Section)
	assert.Equal(t, "103", *contract.Statutes[0].Section)
	require.NotNil(t, contract.Statutes[0].AsOn)
	assert.Equal(t, "2024-01-01", *contract.Statutes[0].AsOn)
	require.NotNil(t, contract.Cases[0].Citation)
	assert.Equal(t, "AIR 1973 SC 1461", *contract.Cases[0].Citation)
	assert.Len(t, context, 2)

	require.Len(t, contract.Analysis, 1)
	assert.Equal(t, "murder", contract.Analysis[0].Issue)
}

func TestAssemble_StopsAtTokenBudget(t *testing.T) {
	a := NewAssembler(100, 0.5) // contextBudget = 50 tokens
	longContent := strings.Repeat("word ", 400)
	statutes := []models.SearchResult{
		{ID: "s1", Content: longContent, Statute: &models.StatuteFields{SectionNo: "1"}},
		{ID: "s2", Content: longContent, Statute: &models.StatuteFields{SectionNo: "2"}},
	}

	contract, context := a.Assemble(models.QueryAnalysis{}, statutes, nil)

	assert.Len(t, contract.Statutes, 1, "second statute should be dropped once the budget is exceeded")
	assert.Len(t, context, 1)
}

func TestAssemble_NoSignalProducesGenericAnalysisEntry(t *testing.T) {
	a := NewAssembler(12000, 0.25)
	analysis := models.QueryAnalysis{OriginalQuery: "tell me about this"}

	contract, _ := a.Assemble(analysis, nil, nil)

	require.Len(t, contract.Analysis, 1)
	assert.Equal(t, "tell me about this", contract.Analysis[0].Issue)
	assert.Equal(t, "No grounding material was retrieved for this query.", contract.Analysis[0].Application)
}

func TestQuoteFrom_TruncatesAtMaxCharsAndHandlesEmpty(t *testing.T) {
	assert.Nil(t, quoteFrom("   ", 10))

	q := quoteFrom(strings.Repeat("a", 500), 300)
	require.NotNil(t, q)
	assert.Len(t, []rune(*q), 300)
}
