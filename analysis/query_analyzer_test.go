package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/models"
)

func newTestAnalyzer() *QueryAnalyzer {
	return NewQueryAnalyzer(NewTemporalReasoner(""))
}

func TestAnalyze_OffenseKeywordDrivesSectionGuess(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("what is the punishment for murder")

	assert.Contains(t, result.OffenseKeywords, "murder")
	require.NotEmpty(t, result.SectionGuesses)
	assert.Equal(t, "BNS:2023:Sec:101", result.SectionGuesses[0])
	assert.Equal(t, models.QueryFactual, result.QueryType)
}

func TestAnalyze_ExplicitSectionExtraction(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("Explain Section 103 of BNS")

	assert.Equal(t, []string{"103"}, result.ExplicitSections)
}

func TestAnalyze_ExplicitCaseIDExtraction(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("Summarize SC:2019:AB12CD")

	assert.Equal(t, []string{"SC:2019:AB12CD"}, result.ExplicitCaseIDs)
}

func TestAnalyze_ComparativeQueryClassification(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("difference between murder and culpable homicide")

	assert.Equal(t, models.QueryComparative, result.QueryType)
}

func TestAnalyze_ShortQueryNoSignalClassifiedAmbiguous(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("tell me")

	assert.Equal(t, models.QueryAmbiguous, result.QueryType)
}

func TestShouldRefuse_RefusesShortNoSignalQuery(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("hi there")

	assert.NotEmpty(t, a.ShouldRefuse(result))
}

func TestShouldRefuse_AllowsShortQueryWithLegalSignal(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("murder bail")

	assert.Empty(t, a.ShouldRefuse(result))
}

func TestGenerateClarification_ProceduralWithNoSignalAsksToNarrow(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("what are the steps to file")

	assert.NotEmpty(t, a.GenerateClarification(result))
}

func TestGenerateClarification_ComparativeWithOneOffenseAsksWhichTwo(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("compare murder with something else")

	assert.NotEmpty(t, a.GenerateClarification(result))
}

func TestGenerateClarification_FactualQueryNeedsNone(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("what is the punishment for murder")

	assert.Empty(t, a.GenerateClarification(result))
}

func TestBuildExpandedQuery_AppendsSynonyms(t *testing.T) {
	a := newTestAnalyzer()
	result := a.Analyze("anticipatory bail procedure")

	expanded := a.BuildExpandedQuery(result)
	assert.Contains(t, expanded, "anticipatory bail procedure")
}

func TestExtractCaseMentions_StripsConnectiveStopWords(t *testing.T) {
	mentions := extractCaseMentions("judgment in KESAVANANDA BHARATI V. STATE OF KERALA")

	require.Len(t, mentions, 1)
	assert.Equal(t, "KESAVANANDA BHARATI", mentions[0][0])
	assert.Equal(t, "STATE OF KERALA", mentions[0][1])
}

func TestSortedKeys_Deterministic(t *testing.T) {
	m := map[string]bool{"b": true, "a": true, "c": true}
	assert.Equal(t, []string{"a", "b", "c"}, sortedKeys(m))
}
