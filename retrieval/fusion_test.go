package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/config"
	"legalrag/models"
)

func testCfg() *config.Config {
	return &config.Config{
		RRFConstantK:           60,
		VectorWeightStatute:    0.6,
		KeywordWeightStatute:   0.25,
		RecencyWeightStatute:   0.1,
		AuthorityWeightStatute: 0.05,
		VectorWeightCase:       0.20,
	}
}

func TestFuseStatutes_DedupesByID(t *testing.T) {
	cfg := testCfg()
	analysis := models.QueryAnalysis{}

	dense := models.SearchResult{
		ID:              "s1",
		AuthorityWeight: 1,
		Scores:          models.ScoreBreakdown{VectorScore: 0.9},
		Statute:         &models.StatuteFields{SectionNo: "103"},
	}
	lexical := models.SearchResult{
		ID:              "s1",
		AuthorityWeight: 1,
		Scores:          models.ScoreBreakdown{KeywordScore: 0.8},
		Statute:         &models.StatuteFields{SectionNo: "103"},
	}

	out := fuseStatutes([]models.SearchResult{dense, lexical}, analysis, cfg)

	require.Len(t, out, 1)
	assert.Equal(t, "s1", out[0].ID)
	assert.InDelta(t, 0.9, out[0].Scores.VectorScore, 1e-9)
	assert.InDelta(t, 0.8, out[0].Scores.KeywordScore, 1e-9)
}

func TestFuseStatutes_FallbackMatchForcesTopScore(t *testing.T) {
	cfg := testCfg()
	analysis := models.QueryAnalysis{}

	low := models.SearchResult{
		ID:              "s2",
		AuthorityWeight: 1,
		Scores:          models.ScoreBreakdown{VectorScore: 0.1, KeywordScore: 0.1},
		Statute:         &models.StatuteFields{SectionNo: "302"},
	}
	fallback := models.SearchResult{
		ID:              "s2",
		AuthorityWeight: 1,
		Scores:          models.ScoreBreakdown{FallbackMatch: true},
		Statute:         &models.StatuteFields{SectionNo: "302"},
	}

	out := fuseStatutes([]models.SearchResult{low, fallback}, analysis, cfg)

	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].Scores.FinalScore)
}

func TestFuseStatutes_SectionGuessBoostsScore(t *testing.T) {
	cfg := testCfg()
	analysis := models.QueryAnalysis{SectionGuesses: []string{"103"}}

	a := models.SearchResult{
		ID:              "sa",
		AuthorityWeight: 1,
		Scores:          models.ScoreBreakdown{VectorScore: 0.5},
		Statute:         &models.StatuteFields{SectionNo: "999", CanonicalID: "999"},
	}
	b := models.SearchResult{
		ID:              "sb",
		AuthorityWeight: 1,
		Scores:          models.ScoreBreakdown{VectorScore: 0.5},
		Statute:         &models.StatuteFields{SectionNo: "103", CanonicalID: "BNS:2023:Sec:103"},
	}

	out := fuseStatutes([]models.SearchResult{a, b}, analysis, cfg)

	require.Len(t, out, 2)
	assert.Equal(t, "sb", out[0].ID, "section-guess match should outrank an equal vector score without it")
}

func TestFuseStatutes_SectionGuessBoostAppliesAtMostOncePerCandidate(t *testing.T) {
	cfg := testCfg()
	// Near-duplicate guesses for the same section/canonical ID, as the
	// query analyzer's regex+offense-table extraction can plausibly
	// produce (e.g. both "103" and "Sec 103").
	analysis := models.QueryAnalysis{SectionGuesses: []string{
		"103", "Sec 103", "BNS:2023:Sec:103", "BNS:2023:Sec:103",
	}}

	r := models.SearchResult{
		ID:              "sb",
		AuthorityWeight: 1,
		Scores:          models.ScoreBreakdown{VectorScore: 0.5},
		Statute:         &models.StatuteFields{SectionNo: "103", CanonicalID: "BNS:2023:Sec:103"},
	}

	out := fuseStatutes([]models.SearchResult{r}, analysis, cfg)

	require.Len(t, out, 1)
	// vecNorm=1 (only candidate) -> 0.6*1 = 0.6, plus the canonical
	// (+0.25) and section (+0.15) boosts each applied exactly once.
	assert.InDelta(t, 1.0, out[0].Scores.FinalScore, 1e-9)
}

func TestFuseCases_RRFGivesEveryCandidatePositiveScore(t *testing.T) {
	cfg := testCfg()
	analysis := models.QueryAnalysis{OriginalQuery: "test"}

	ann := []models.SearchResult{
		{ID: "c1", Scores: models.ScoreBreakdown{VectorScore: 0.9}},
		{ID: "c2", Scores: models.ScoreBreakdown{VectorScore: 0.5}},
	}
	kw := []models.SearchResult{
		{ID: "c2"},
		{ID: "c1"},
	}

	out := fuseCases(ann, kw, nil, analysis, cfg)

	require.Len(t, out, 2)
	for _, r := range out {
		assert.Greater(t, r.Scores.FinalScore, 0.0)
	}
}

func TestFuseCases_PartyResolverOutranksPlainRRF(t *testing.T) {
	cfg := testCfg()
	analysis := models.QueryAnalysis{}

	ann := []models.SearchResult{
		{ID: "c3", Scores: models.ScoreBreakdown{VectorScore: 0.9}},
	}
	resolved := []models.SearchResult{
		{ID: "c4", Scores: models.ScoreBreakdown{PartyResolver: true}},
	}

	out := fuseCases(ann, nil, resolved, analysis, cfg)

	require.Len(t, out, 2)
	assert.Equal(t, "c4", out[0].ID)
}

func TestSafeDiv(t *testing.T) {
	assert.Equal(t, 0.0, safeDiv(1, 0))
	assert.InDelta(t, 0.5, safeDiv(1, 2), 1e-9)
}
