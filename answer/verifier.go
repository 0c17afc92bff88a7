package answer

import (
	"fmt"
	"strconv"
	"strings"

	"legalrag/models"
)

// Verifier checks an assembled AnswerContract against the retrieved
// context it was built from: every citation must exist in the
// retrieved set, every quote must be substring-verifiable against
// hydrated content, and every analysis claim should have keyword
// support. Confidence is a weighted function of how much of the
// contract survives verification, with short reason tags folded in
// from the risk-tier logic this mirrors.
type Verifier struct{}

// NewVerifier constructs a Verifier. It carries no state; all inputs
// are passed per call.
func NewVerifier() *Verifier {
	return &Verifier{}
}

const (
	weightCitations = 0.35
	weightQuotes    = 0.30
	weightClaims    = 0.25
	weightRank      = 0.10

	claimSupportOverlapThreshold = 0.6
)

// Verify mutates contract in place: it drops unverifiable citations
// and quotes, appends warnings explaining each drop, and fills in
// Confidence with a score and reason tags.
func (v *Verifier) Verify(contract *models.AnswerContract, context []models.SearchResult) {
	byID := map[string]models.SearchResult{}
	for _, r := range context {
		byID[r.ID] = r
	}

	var reasons []string

	validStatutes, droppedStatuteCitations, droppedStatuteQuotes := v.verifyStatutes(contract.Statutes, byID)
	contract.Statutes = validStatutes
	validCases, droppedCaseCitations, droppedCaseQuotes := v.verifyCases(contract.Cases, byID)
	contract.Cases = validCases

	totalCited := len(contract.Statutes) + len(contract.Cases) + droppedStatuteCitations + droppedCaseCitations
	validCited := len(contract.Statutes) + len(contract.Cases)
	citationFraction := fraction(validCited, totalCited)

	totalQuotes, validQuotes := 0, 0
	for _, s := range contract.Statutes {
		if s.Quote != nil {
			validQuotes++
		}
	}
	for _, c := range contract.Cases {
		if c.Quote != nil {
			validQuotes++
		}
	}
	totalQuotes = validQuotes + droppedStatuteQuotes + droppedCaseQuotes
	quoteFraction := fraction(validQuotes, totalQuotes)

	supportedClaims, totalClaims := v.verifyClaims(contract.Analysis, context)
	claimFraction := fraction(supportedClaims, totalClaims)

	rankQuality := topRankQuality(context)

	score := weightCitations*citationFraction +
		weightQuotes*quoteFraction +
		weightClaims*claimFraction +
		weightRank*rankQuality
	if validCited == 0 {
		score = 0
	}

	if droppedStatuteCitations+droppedCaseCitations > 0 {
		reasons = append(reasons, fmt.Sprintf("dropped_%d_unverified_citation(s)", droppedStatuteCitations+droppedCaseCitations))
	}
	if droppedStatuteQuotes+droppedCaseQuotes > 0 {
		reasons = append(reasons, fmt.Sprintf("dropped_%d_unverified_quote(s)", droppedStatuteQuotes+droppedCaseQuotes))
	}
	if totalClaims > 0 && claimFraction < claimSupportOverlapThreshold {
		reasons = append(reasons, "low_claim_support")
	}
	if validCited == 0 {
		reasons = append(reasons, "no_verified_citations")
	}
	if rankQuality < 0.5 {
		reasons = append(reasons, "low_citation_density")
	}

	switch riskTier(score, citationFraction) {
	case "critical":
		reasons = append(reasons, "risk_critical")
	case "high":
		reasons = append(reasons, "risk_high")
	case "medium":
		reasons = append(reasons, "risk_medium")
	}

	contract.Confidence = models.Confidence{Score: score, Reasons: reasons}
	contract.Warnings = append(contract.Warnings, warningsFor(droppedStatuteCitations, droppedCaseCitations, droppedStatuteQuotes, droppedCaseQuotes)...)
}

func (v *Verifier) verifyStatutes(in []models.CitedStatute, byID map[string]models.SearchResult) (out []models.CitedStatute, droppedCitations, droppedQuotes int) {
	for _, s := range in {
		src, ok := byID[s.ID]
		if !ok {
			droppedCitations++
			continue
		}
		if s.Quote != nil && !quoteVerifiable(*s.Quote, src.Content) {
			s.Quote = nil
			droppedQuotes++
		}
		out = append(out, s)
	}
	return out, droppedCitations, droppedQuotes
}

func (v *Verifier) verifyCases(in []models.CitedCase, byID map[string]models.SearchResult) (out []models.CitedCase, droppedCitations, droppedQuotes int) {
	for _, c := range in {
		src, ok := byID[c.ID]
		if !ok {
			droppedCitations++
			continue
		}
		if c.Quote != nil && !quoteVerifiable(*c.Quote, src.Content) {
			c.Quote = nil
			droppedQuotes++
		}
		out = append(out, c)
	}
	return out, droppedCitations, droppedQuotes
}

// quoteVerifiable checks the quote appears in content after
// whitespace-collapsing and case-folding, matching the original
// detector's tolerant substring check rather than requiring an exact
// byte match.
func quoteVerifiable(quote, content string) bool {
	q := normalizeWhitespace(strings.ToLower(quote))
	c := normalizeWhitespace(strings.ToLower(content))
	if q == "" {
		return false
	}
	return strings.Contains(c, q)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// verifyClaims checks each analysis entry's application text for
// keyword overlap against the retrieved context, mirroring
// hallucination_detector.py's _check_claim_support keyword-overlap
// heuristic (>=60% of the claim's significant words appear somewhere
// in the grounding text).
func (v *Verifier) verifyClaims(entries []models.AnalysisEntry, context []models.SearchResult) (supported, total int) {
	var combined strings.Builder
	for _, r := range context {
		combined.WriteString(strings.ToLower(r.Content))
		combined.WriteByte(' ')
	}
	pool := combined.String()

	for _, e := range entries {
		total++
		words := significantWords(e.Issue + " " + e.Application)
		if len(words) == 0 {
			continue
		}
		hits := 0
		for _, w := range words {
			if strings.Contains(pool, w) {
				hits++
			}
		}
		if float64(hits)/float64(len(words)) >= claimSupportOverlapThreshold {
			supported++
		}
	}
	return supported, total
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true, "to": true,
	"and": true, "or": true, "is": true, "for": true, "on": true, "under": true,
	"by": true, "with": true, "as": true, "at": true, "be": true, "this": true,
}

func significantWords(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:()\"'")
		if f == "" || stopWords[f] || len(f) < 3 {
			continue
		}
		out = append(out, f)
	}
	return out
}

// topRankQuality reports how strongly the top-ranked context items
// scored, in [0,1], as a coarse proxy for retrieval confidence.
func topRankQuality(context []models.SearchResult) float64 {
	if len(context) == 0 {
		return 0
	}
	top := context[0].Scores.FinalScore
	if top <= 0 {
		return 0
	}
	if top > 1 {
		return 1
	}
	return top
}

func fraction(num, denom int) float64 {
	if denom == 0 {
		return 1
	}
	return float64(num) / float64(denom)
}

// riskTier mirrors hallucination_detector.py's _determine_risk_level
// thresholds, recast in terms of the fraction of the contract that
// survived verification rather than a separate per-claim risk score.
func riskTier(score, citationFraction float64) string {
	switch {
	case score < 0.3 || citationFraction < 0.3:
		return "critical"
	case score < 0.5 || citationFraction < 0.6:
		return "high"
	case score < 0.7:
		return "medium"
	default:
		return "low"
	}
}

func warningsFor(droppedStatuteCitations, droppedCaseCitations, droppedStatuteQuotes, droppedCaseQuotes int) []string {
	var out []string
	if droppedStatuteCitations > 0 {
		out = append(out, "removed "+strconv.Itoa(droppedStatuteCitations)+" statute citation(s) not found in retrieved results")
	}
	if droppedCaseCitations > 0 {
		out = append(out, "removed "+strconv.Itoa(droppedCaseCitations)+" case citation(s) not found in retrieved results")
	}
	if droppedStatuteQuotes > 0 {
		out = append(out, "removed "+strconv.Itoa(droppedStatuteQuotes)+" statute quote(s) that could not be matched verbatim")
	}
	if droppedCaseQuotes > 0 {
		out = append(out, "removed "+strconv.Itoa(droppedCaseQuotes)+" case quote(s) that could not be matched verbatim")
	}
	return out
}
