package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/models"
)

func TestDiversify_PrefersDistinctDocsOverRawScore(t *testing.T) {
	candidates := []models.SearchResult{
		{ID: "a", DocID: "doc1", Scores: models.ScoreBreakdown{FinalScore: 0.9}},
		{ID: "b", DocID: "doc1", Scores: models.ScoreBreakdown{FinalScore: 0.85}},
		{ID: "c", DocID: "doc2", Scores: models.ScoreBreakdown{FinalScore: 0.7}},
	}

	out := diversify(candidates, 0.7, 2)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID, "MMR should prefer the distinct doc2 candidate over the near-duplicate doc1 one")
}

func TestDiversify_RespectsTopKAndEmptyInput(t *testing.T) {
	assert.Nil(t, diversify(nil, 0.7, 3))
	assert.Nil(t, diversify([]models.SearchResult{{ID: "x"}}, 0.7, 0))

	candidates := []models.SearchResult{
		{ID: "a", Scores: models.ScoreBreakdown{FinalScore: 0.5}},
	}
	out := diversify(candidates, 0.7, 5)
	assert.Len(t, out, 1, "topK beyond candidate count should just return all candidates")
}

func TestMMRSimilarity_FallbackAlwaysDissimilar(t *testing.T) {
	a := models.SearchResult{DocID: "doc1", Scores: models.ScoreBreakdown{FallbackMatch: true}}
	b := models.SearchResult{DocID: "doc1"}
	assert.Equal(t, 0.0, mmrSimilarity(a, b))

	c := models.SearchResult{DocID: "doc2"}
	assert.Equal(t, 0.0, mmrSimilarity(b, c))

	d := models.SearchResult{DocID: "doc1"}
	assert.Equal(t, 1.0, mmrSimilarity(b, d))
}

func TestCapPerDoc_EnforcesLimitPreservingOrder(t *testing.T) {
	results := []models.SearchResult{
		{ID: "a", DocID: "doc1"},
		{ID: "b", DocID: "doc1"},
		{ID: "c", DocID: "doc1"},
		{ID: "d", DocID: "doc2"},
	}

	out := capPerDoc(results, 2)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "b", "d"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestCapPerDoc_EmptyDocIDAlwaysPasses(t *testing.T) {
	results := []models.SearchResult{
		{ID: "a", DocID: ""},
		{ID: "b", DocID: ""},
	}
	out := capPerDoc(results, 1)
	assert.Len(t, out, 2)
}
