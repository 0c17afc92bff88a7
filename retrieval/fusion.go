package retrieval

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"legalrag/config"
	"legalrag/models"
)

// fuseStatutes normalizes ANN and BM25 scores by their own max, then
// combines per §4.8 step 3: 0.6*vec_norm + 0.25*kw_norm + 0.1*recency
// + 0.05*(authority-1), plus section-guess boosts. Candidates are
// grouped by ID first so the same chunk surfaced by both dense and
// lexical search is fused rather than duplicated.
func fuseStatutes(candidates []models.SearchResult, analysis models.QueryAnalysis, cfg *config.Config) []models.SearchResult {
	byID := map[string]*models.SearchResult{}
	order := []string{}
	for _, c := range candidates {
		existing, ok := byID[c.ID]
		if !ok {
			clone := c.Clone()
			byID[c.ID] = &clone
			order = append(order, c.ID)
			existing = byID[c.ID]
		}
		if c.Scores.VectorScore > existing.Scores.VectorScore {
			existing.Scores.VectorScore = c.Scores.VectorScore
		}
		if c.Scores.KeywordScore > existing.Scores.KeywordScore {
			existing.Scores.KeywordScore = c.Scores.KeywordScore
		}
		if c.Scores.FallbackMatch {
			existing.Scores.FallbackMatch = true
			existing.SimilarityScore = 1.0
		}
	}

	maxVec, maxKw := 0.0, 0.0
	for _, id := range order {
		r := byID[id]
		if r.Scores.VectorScore > maxVec {
			maxVec = r.Scores.VectorScore
		}
		if r.Scores.KeywordScore > maxKw {
			maxKw = r.Scores.KeywordScore
		}
	}

	out := make([]models.SearchResult, 0, len(order))
	for _, id := range order {
		r := byID[id]
		vecNorm := safeDiv(r.Scores.VectorScore, maxVec)
		kwNorm := safeDiv(r.Scores.KeywordScore, maxKw)
		recency := statuteRecency(r)

		score := cfg.VectorWeightStatute*vecNorm +
			cfg.KeywordWeightStatute*kwNorm +
			cfg.RecencyWeightStatute*recency +
			cfg.AuthorityWeightStatute*(r.AuthorityWeight-1)

		if r.Scores.FallbackMatch {
			score = 1.0
		}

		if r.Statute != nil {
			canonicalGuessed := false
			sectionGuessed := false
			for _, guess := range analysis.SectionGuesses {
				if guess == r.Statute.CanonicalID {
					canonicalGuessed = true
				}
				if guess == r.Statute.SectionNo || strings.Contains(guess, r.Statute.SectionNo) {
					sectionGuessed = true
				}
			}
			if canonicalGuessed {
				score += 0.25
			}
			if sectionGuessed {
				score += 0.15
			}
		}

		r.Scores.FinalScore = score
		out = append(out, *r)
	}

	sortByScoreDesc(out)
	return out
}

// statuteRecency is a placeholder signal in [0,1]: statutes with a
// known effective_from in the last 2 years score higher, matching the
// spirit of the case recency boost since the source spec gives no
// exact statute recency formula beyond naming the term.
func statuteRecency(r *models.SearchResult) float64 {
	if r.Statute == nil || r.Statute.EffectiveFrom == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", r.Statute.EffectiveFrom)
	if err != nil {
		return 0
	}
	if time.Since(t) < 2*365*24*time.Hour {
		return 1
	}
	return 0
}

var statuteMarkerPattern = regexp.MustCompile(`(?i)\b(?:section|sec\.?|§)\s*(\d+[a-zA-Z\-]*|65b)\b|\barticle\s*(\d+[a-zA-Z\-]*)\b`)

// fuseCases computes RRF (K=60) across ANN and BM25 rank lists, then
// adds 0.20*vec_norm plus the additive boosts in §4.8 step 3.
func fuseCases(ann, kw, resolved []models.SearchResult, analysis models.QueryAnalysis, cfg *config.Config) []models.SearchResult {
	byID := map[string]*models.SearchResult{}
	order := []string{}
	ensure := func(r models.SearchResult) *models.SearchResult {
		if existing, ok := byID[r.ID]; ok {
			return existing
		}
		clone := r.Clone()
		byID[r.ID] = &clone
		order = append(order, r.ID)
		return byID[r.ID]
	}

	rrf := map[string]float64{}
	applyRank := func(list []models.SearchResult) {
		for rank, r := range list {
			ensure(r)
			rrf[r.ID] += 1.0 / float64(cfg.RRFConstantK+rank+1)
		}
	}
	applyRank(ann)
	applyRank(kw)

	maxVec := 0.0
	for _, r := range ann {
		if r.Scores.VectorScore > maxVec {
			maxVec = r.Scores.VectorScore
		}
	}
	vecByID := map[string]float64{}
	for _, r := range ann {
		vecByID[r.ID] = r.Scores.VectorScore
	}

	for _, r := range resolved {
		dst := ensure(r)
		if r.Scores.PartyResolver {
			dst.Scores.PartyResolver = true
		}
		if r.Scores.PartyResolverOr {
			dst.Scores.PartyResolverOr = true
		}
		if r.Scores.CitationResolver {
			dst.Scores.CitationResolver = true
		}
		if r.Scores.FallbackMatch {
			dst.Scores.FallbackMatch = true
		}
		if r.Scores.FallbackDoc {
			dst.Scores.FallbackDoc = true
			dst.Scores.KeywordHits = r.Scores.KeywordHits
		}
	}

	markers := statuteMarkers(analysis.OriginalQuery)

	out := make([]models.SearchResult, 0, len(order))
	for _, id := range order {
		r := byID[id]
		vecNorm := safeDiv(vecByID[id], maxVec)
		score := rrf[id] + cfg.VectorWeightCase*vecNorm

		if r.DocID != "" && strings.HasPrefix(r.DocID, "SC:") {
			score += 0.15
		}
		if year := caseDecisionYear(r); year > 0 && time.Now().Year()-year <= 10 {
			score += 0.05
		}

		hitCount := topicalHitCount(r.Content, analysis.ExpandedTerms)
		switch {
		case hitCount >= 2:
			score += 0.15
		case hitCount == 1:
			score += 0.10
		}

		for _, marker := range markers {
			if strings.Contains(strings.ToLower(r.Content), marker) {
				score += 0.20
				break
			}
		}

		switch {
		case r.Scores.PartyResolver:
			score += 0.25
		case r.Scores.PartyResolverOr:
			score += 0.10
		case r.Scores.FallbackMatch, r.Scores.FallbackDoc, r.Scores.CitationResolver:
			score += 0.20
		}

		r.Scores.FinalScore = score
		out = append(out, *r)
	}

	sortByScoreDesc(out)
	return out
}

func statuteMarkers(query string) []string {
	matches := statuteMarkerPattern.FindAllString(query, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.ToLower(strings.TrimSpace(m)))
	}
	return out
}

func topicalHitCount(content string, expanded map[string][]string) int {
	lower := strings.ToLower(content)
	count := 0
	seen := map[string]bool{}
	for term, syns := range expanded {
		for _, tok := range append([]string{term}, syns...) {
			if tok == "" || seen[tok] {
				continue
			}
			if strings.Contains(lower, strings.ToLower(tok)) {
				seen[tok] = true
				count++
			}
		}
	}
	return count
}

func caseDecisionYear(r *models.SearchResult) int {
	if r.Case == nil || r.Case.DecisionDate == "" {
		return 0
	}
	parts := strings.SplitN(r.Case.DecisionDate, "-", 2)
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	return y
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func sortByScoreDesc(results []models.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Scores.FinalScore > results[j].Scores.FinalScore
	})
}
