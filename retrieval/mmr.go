package retrieval

import "legalrag/models"

// diversify applies MMR: sort by combined score, then iteratively pick
// argmax(lambda*relevance - (1-lambda)*maxSim(selected)) until topK
// is reached or candidates are exhausted. Similarity between two
// results is 1.0 iff same doc_id and neither is a fallback match,
// else 0.0, per §4.8 step 5 (applies identically to statutes and
// cases since both use the same doc_id diversity rule).
func diversify(candidates []models.SearchResult, lambda float64, topK int) []models.SearchResult {
	if topK <= 0 || len(candidates) == 0 {
		return nil
	}
	pool := append([]models.SearchResult(nil), candidates...)
	sortByScoreDesc(pool)

	selected := make([]models.SearchResult, 0, topK)
	used := make([]bool, len(pool))

	for len(selected) < topK {
		bestIdx := -1
		bestScore := 0.0
		for i, cand := range pool {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, s := range selected {
				if mmrSimilarity(cand, s) > maxSim {
					maxSim = mmrSimilarity(cand, s)
				}
			}
			mmrScore := lambda*cand.Scores.FinalScore - (1-lambda)*maxSim
			if bestIdx == -1 || mmrScore > bestScore {
				bestIdx = i
				bestScore = mmrScore
			}
		}
		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, pool[bestIdx])
	}
	return selected
}

func mmrSimilarity(a, b models.SearchResult) float64 {
	if a.Scores.FallbackMatch || a.Scores.FallbackDoc || b.Scores.FallbackMatch || b.Scores.FallbackDoc {
		return 0.0
	}
	if a.DocID != "" && a.DocID == b.DocID {
		return 1.0
	}
	return 0.0
}

// capPerDoc enforces at most maxPerDoc case chunks sharing the same
// doc_id in the final list, preserving relative order (which is
// already score-sorted by the time this runs).
func capPerDoc(results []models.SearchResult, maxPerDoc int) []models.SearchResult {
	counts := map[string]int{}
	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if r.DocID == "" {
			out = append(out, r)
			continue
		}
		if counts[r.DocID] >= maxPerDoc {
			continue
		}
		counts[r.DocID]++
		out = append(out, r)
	}
	return out
}
