package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/models"
)

func strPtr(s string) *string { return &s }

func TestVerify_DropsCitationNotInContext(t *testing.T) {
	v := NewVerifier()
	contract := &models.AnswerContract{
		Statutes: []models.CitedStatute{
			{ID: "known", Quote: strPtr("murder shall be punished")},
			{ID: "unknown", Quote: strPtr("something else")},
		},
		Analysis: []models.AnalysisEntry{{Issue: "murder", Application: "punished under the statute"}},
	}
	context := []models.SearchResult{
		{ID: "known", Content: "Whoever commits murder shall be punished with death.", Scores: models.ScoreBreakdown{FinalScore: 0.9}},
	}

	v.Verify(contract, context)

	require.Len(t, contract.Statutes, 1)
	assert.Equal(t, "known", contract.Statutes[0].ID)
	assert.Contains(t, contract.Confidence.Reasons, "dropped_1_unverified_citation(s)")
	require.Len(t, contract.Warnings, 1)
}

func TestVerify_DropsUnverifiableQuoteButKeepsCitation(t *testing.T) {
	v := NewVerifier()
	contract := &models.AnswerContract{
		Cases: []models.CitedCase{
			{ID: "c1", Quote: strPtr("this text does not appear anywhere")},
		},
	}
	context := []models.SearchResult{
		{ID: "c1", Content: "The court held the accused guilty.", Scores: models.ScoreBreakdown{FinalScore: 0.8}},
	}

	v.Verify(contract, context)

	require.Len(t, contract.Cases, 1)
	assert.Nil(t, contract.Cases[0].Quote)
	assert.Contains(t, contract.Confidence.Reasons, "dropped_1_unverified_quote(s)")
}

func TestVerify_NoCitationsYieldsZeroScoreAndCriticalTag(t *testing.T) {
	v := NewVerifier()
	contract := &models.AnswerContract{}

	v.Verify(contract, nil)

	assert.Equal(t, 0.0, contract.Confidence.Score)
	assert.Contains(t, contract.Confidence.Reasons, "no_verified_citations")
	assert.Contains(t, contract.Confidence.Reasons, "risk_critical")
}

func TestVerify_FullyVerifiedHighRankYieldsHighScore(t *testing.T) {
	v := NewVerifier()
	contract := &models.AnswerContract{
		Statutes: []models.CitedStatute{
			{ID: "s1", Quote: strPtr("murder shall be punished")},
		},
		Analysis: []models.AnalysisEntry{
			{Issue: "murder punishment", Application: "murder shall be punished under the statute"},
		},
	}
	context := []models.SearchResult{
		{ID: "s1", Content: "Whoever commits murder shall be punished with death or life imprisonment.", Scores: models.ScoreBreakdown{FinalScore: 0.95}},
	}

	v.Verify(contract, context)

	assert.Empty(t, contract.Confidence.Reasons, "a fully-verified, well-supported, high-rank contract should carry no warning tags")
	assert.Greater(t, contract.Confidence.Score, 0.7)
}

func TestQuoteVerifiable_ToleratesWhitespaceAndCase(t *testing.T) {
	assert.True(t, quoteVerifiable("MURDER   shall be", "whoever commits murder shall be punished"))
	assert.False(t, quoteVerifiable("completely absent text", "whoever commits murder shall be punished"))
	assert.False(t, quoteVerifiable("", "anything"))
}

func TestRiskTier_Thresholds(t *testing.T) {
	assert.Equal(t, "critical", riskTier(0.2, 0.9))
	assert.Equal(t, "critical", riskTier(0.9, 0.2))
	assert.Equal(t, "high", riskTier(0.4, 0.9))
	assert.Equal(t, "medium", riskTier(0.6, 0.9))
	assert.Equal(t, "low", riskTier(0.9, 0.9))
}

func TestFraction_ZeroDenominatorReturnsOne(t *testing.T) {
	assert.Equal(t, 1.0, fraction(0, 0))
	assert.InDelta(t, 0.5, fraction(1, 2), 1e-9)
}
