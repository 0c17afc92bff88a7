package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/models"
)

func TestExtractContext_PrecedenceOverDatePatterns(t *testing.T) {
	r := NewTemporalReasoner("")

	t.Run("explicit numeric date wins", func(t *testing.T) {
		ctx := r.ExtractContext("as on 15/03/2021 what applies")
		assert.Equal(t, "2021-03-15", ctx.AsOnDate)
		assert.Equal(t, models.DateExplicit, ctx.DateSource)
	})

	t.Run("explicit month-name date wins", func(t *testing.T) {
		ctx := r.ExtractContext("as on 5 March 2022 what applies")
		assert.Equal(t, "2022-03-05", ctx.AsOnDate)
		assert.Equal(t, models.DateExplicit, ctx.DateSource)
	})

	t.Run("BNS bare year infers enactment date", func(t *testing.T) {
		ctx := r.ExtractContext("under the Bharatiya Nyaya Sanhita 2023")
		assert.Equal(t, "2024-07-01", ctx.AsOnDate)
		assert.Equal(t, models.DateActsInference, ctx.DateSource)
	})

	t.Run("bare non-BNS year infers year end", func(t *testing.T) {
		ctx := r.ExtractContext("the 2015 judgment held")
		assert.Equal(t, "2015-12-31", ctx.AsOnDate)
		assert.Equal(t, models.DateInferredYear, ctx.DateSource)
	})

	t.Run("no date defaults to today", func(t *testing.T) {
		ctx := r.ExtractContext("what is bail")
		assert.Equal(t, time.Now().UTC().Format("2006-01-02"), ctx.AsOnDate)
		assert.Equal(t, models.DateDefault, ctx.DateSource)
	})
}

func TestEnforceTemporalValidity_FiltersStatutesOutsideWindow(t *testing.T) {
	r := NewTemporalReasoner("")
	results := []models.SearchResult{
		{
			ID:         "active",
			SourceType: models.SourceStatute,
			Statute:    &models.StatuteFields{EffectiveFrom: "2020-01-01", EffectiveTo: ""},
		},
		{
			ID:         "future",
			SourceType: models.SourceStatute,
			Statute:    &models.StatuteFields{EffectiveFrom: "2099-01-01", EffectiveTo: ""},
		},
		{
			ID:         "repealed",
			SourceType: models.SourceStatute,
			Statute:    &models.StatuteFields{EffectiveFrom: "2010-01-01", EffectiveTo: "2015-01-01"},
		},
	}

	out := r.EnforceTemporalValidity(results, "2024-01-01")

	require.Len(t, out, 1)
	assert.Equal(t, "active", out[0].ID)
}

func TestEnforceTemporalValidity_FiltersFutureJudgments(t *testing.T) {
	r := NewTemporalReasoner("")
	results := []models.SearchResult{
		{ID: "past", SourceType: models.SourceCase, Case: &models.CaseFields{DecisionDate: "2020-01-01"}},
		{ID: "future", SourceType: models.SourceCase, Case: &models.CaseFields{DecisionDate: "2099-01-01"}},
	}

	out := r.EnforceTemporalValidity(results, "2024-01-01")

	require.Len(t, out, 1)
	assert.Equal(t, "past", out[0].ID)
}

func TestEnforceTemporalValidity_AttachesLegacyMappings(t *testing.T) {
	r := &TemporalReasoner{legacyIndex: map[string][]models.LegacyMapping{
		"103": {{BNSSection: "103", LegacyAct: "IPC", LegacySection: "302"}},
	}}
	results := []models.SearchResult{
		{
			ID:         "s1",
			SourceType: models.SourceStatute,
			Statute:    &models.StatuteFields{SectionNo: "103", EffectiveFrom: "2020-01-01"},
		},
	}

	out := r.EnforceTemporalValidity(results, "2024-01-01")

	require.Len(t, out, 1)
	require.Len(t, out[0].Statute.LegacyMappings, 1)
	assert.Equal(t, "302", out[0].Statute.LegacyMappings[0].LegacySection)
}
