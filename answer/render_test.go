package answer

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/models"
)

func sampleContract() models.AnswerContract {
	return models.AnswerContract{
		ShortAnswer: "Murder is punishable under Section 103 of BNS 2023.",
		Statutes: []models.CitedStatute{
			{ID: "s1", Section: strPtr("103"), Quote: strPtr("Whoever commits murder shall be punished."), AsOn: strPtr("2024-01-01")},
		},
		Cases: []models.CitedCase{
			{ID: "c1", Citation: strPtr("AIR 1973 SC 1461"), Paragraph: strPtr("10-12"), Quote: strPtr("the court held")},
		},
		Analysis: []models.AnalysisEntry{
			{Issue: "murder", Application: "Grounded in the cited statutory provisions below."},
		},
		Confidence: models.Confidence{Score: 0.82, Reasons: []string{"risk_medium"}},
		Warnings:   []string{"removed 1 statute citation(s) not found in retrieved results"},
	}
}

func TestRenderMarkdown_IncludesEverySection(t *testing.T) {
	md := RenderMarkdown(sampleContract())

	assert.Contains(t, md, "# Short Answer")
	assert.Contains(t, md, "Murder is punishable under Section 103")
	assert.Contains(t, md, "## Statutes")
	assert.Contains(t, md, "- s1 (as-on: 2024-01-01)")
	assert.Contains(t, md, "## Cases")
	assert.Contains(t, md, "- c1 (AIR 1973 SC 1461) at 10-12")
	assert.Contains(t, md, "## Application to Facts")
	assert.Contains(t, md, "**murder**")
	assert.Contains(t, md, "## Confidence")
	assert.Contains(t, md, "Score: 0.82")
	assert.Contains(t, md, "risk_medium")
	assert.Contains(t, md, "## Warnings")
	assert.Contains(t, md, "removed 1 statute citation(s)")
}

func TestRenderMarkdown_NoAsOnDefaultsToToday(t *testing.T) {
	c := models.AnswerContract{
		Statutes: []models.CitedStatute{{ID: "s2"}},
	}
	md := RenderMarkdown(c)
	assert.Contains(t, md, "- s2 (as-on: today)")
}

func TestRenderDOCX_ProducesValidZipWithExpectedParts(t *testing.T) {
	data, err := RenderDOCX(sampleContract())
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range r.File {
		names[f.Name] = true
	}
	assert.True(t, names["[Content_Types].xml"])
	assert.True(t, names["_rels/.rels"])
	assert.True(t, names["word/document.xml"])
}

func TestDocumentXML_EscapesSpecialCharacters(t *testing.T) {
	out := documentXML("a & b < c")
	assert.Contains(t, out, "a &amp; b &lt; c")
}
