package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"legalrag/models"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

func extractTokens(query string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(query), -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func normalizePhrase(term string) string {
	if !strings.Contains(term, " ") {
		return term
	}
	parts := strings.Fields(term)
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		c := tokenPattern.FindString(strings.ToLower(p))
		if c == "" {
			c = p
		}
		if c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return term
	}
	return strings.Join(cleaned, "<->")
}

// BuildTsquery builds a disjunction of OR-groups per token, each
// expanded with synonyms, matching the original keyword search's
// _build_tsquery: multi-word synonyms become adjacency expressions,
// single tokens use prefix matching.
func BuildTsquery(query string, synonyms map[string][]string) string {
	tokens := extractTokens(query)
	if len(tokens) == 0 {
		return ""
	}
	var parts []string
	for _, tok := range tokens {
		variants := append([]string{tok}, synonyms[tok]...)
		seen := map[string]bool{}
		var exprs []string
		for _, term := range variants {
			cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(term, "'", " "), "-", " "))
			if cleaned == "" {
				continue
			}
			normalized := normalizePhrase(cleaned)
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			if strings.Contains(normalized, "<->") {
				exprs = append(exprs, "("+normalized+")")
			} else {
				exprs = append(exprs, normalized+":*")
			}
		}
		if len(exprs) > 0 {
			parts = append(parts, "("+strings.Join(exprs, " | ")+")")
		}
	}
	return strings.Join(parts, " | ")
}

var caseHintVsPattern = regexp.MustCompile(`(?i)\b(.+?)\s+v(?:\.|s\.)\s+(.+?)\b`)
var sccPattern = regexp.MustCompile(`(?i)\(\d{4}\)\s+\d+\s+SCC`)
var airPattern = regexp.MustCompile(`(?i)AIR\s+\d{4}\s+\w+\s+\d+`)
var nonAlnumPattern = regexp.MustCompile(`[^A-Za-z0-9 ]+`)

// ExtractCaseHints mirrors the original keyword search's party/
// citation hint extraction used to bias case ranking.
func ExtractCaseHints(query string) []string {
	var hints []string
	if m := caseHintVsPattern.FindStringSubmatch(query); m != nil {
		for _, g := range m[1:] {
			p := strings.TrimSpace(nonAlnumPattern.ReplaceAllString(g, " "))
			if p != "" {
				hints = append(hints, p)
			}
		}
	}
	if sccPattern.MatchString(query) {
		hints = append(hints, "SCC")
	}
	if airPattern.MatchString(query) {
		hints = append(hints, "AIR")
	}
	seen := map[string]bool{}
	out := hints[:0]
	for _, h := range hints {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

// SearchStatutesLexical runs the statute tsquery search with optional
// act/effective-date filters, per §4.3/§4.5.
func (s *ChunkStore) SearchStatutesLexical(ctx context.Context, query string, synonyms map[string][]string, filter StatuteFilter, limit int) ([]models.SearchResult, error) {
	tsq := strings.TrimSpace(query)
	if tsq == "" {
		return nil, nil
	}
	const q = `
		WITH q AS (SELECT plainto_tsquery('english_unaccent', $1) AS tsq)
		SELECT id, doc_id, section_no, unit_type,
			SUBSTRING(text, 1, 2000) AS text, effective_from, effective_to,
			ts_rank(tsv, (SELECT tsq FROM q)) AS rank
		FROM statute_chunks
		WHERE tsv @@ (SELECT tsq FROM q)
		  AND ($2::text IS NULL OR act = $2)
		  AND ($3::date IS NULL OR effective_from IS NULL OR effective_from <= $3)
		  AND ($3::date IS NULL OR effective_to IS NULL OR effective_to > $3)
		ORDER BY rank DESC
		LIMIT $4`
	rows, err := s.db.Query(ctx, q, tsq, filter.Act, filter.AsOnDate, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical statute search: %w", err)
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var (
			id, docID, sectionNo, unitType, text string
			effFrom, effTo                       *string
			rank                                  float64
		)
		if err := rows.Scan(&id, &docID, &sectionNo, &unitType, &text, &effFrom, &effTo, &rank); err != nil {
			return nil, fmt.Errorf("lexical statute scan: %w", err)
		}
		r := statuteResult(id, docID, sectionNo, unitType, text, effFrom, effTo, rank, false)
		r.Scores.KeywordScore = rank
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchCasesLexical runs the strict + broad + issue-terms union
// search with party/citation-hint soft boosts, per §4.5.
func (s *ChunkStore) SearchCasesLexical(ctx context.Context, query string, synonyms map[string][]string, filter CaseFilter, limit int) ([]models.SearchResult, error) {
	tsq := strings.TrimSpace(query)
	if tsq == "" {
		return nil, nil
	}
	hints := ExtractCaseHints(tsq)
	var party1, party2, citHint *string
	if len(hints) > 0 {
		v := strings.ToLower(hints[0])
		party1 = &v
	}
	if len(hints) > 1 {
		v := strings.ToLower(hints[1])
		party2 = &v
	}
	for _, h := range hints {
		if strings.EqualFold(h, "scc") {
			v := "scc"
			citHint = &v
		}
	}

	perQueryLimit := limit
	if perQueryLimit > 80 {
		perQueryLimit = 80
	}

	const strictSQL = `
		WITH q AS (SELECT plainto_tsquery('english_unaccent', $1) AS tsq)
		SELECT id, doc_id, case_title, decision_date, para_range,
			SUBSTRING(text, 1, 2000) AS text, citation_strings,
			ts_rank(tsv, (SELECT tsq FROM q))
			  + (CASE WHEN $5::text IS NOT NULL AND lower(case_title) LIKE '%' || $5 || '%' THEN 0.05 ELSE 0 END)
			  + (CASE WHEN $6::text IS NOT NULL AND lower(case_title) LIKE '%' || $6 || '%' THEN 0.05 ELSE 0 END)
			  + (CASE WHEN $7::text IS NOT NULL AND lower(citation_strings::text) LIKE '%' || $7 || '%' THEN 0.05 ELSE 0 END)
			  AS rank
		FROM judgment_chunks
		WHERE tsv @@ (SELECT tsq FROM q)
		  AND ($2::text IS NULL OR doc_id ILIKE $2 || '%')
		  AND ($3::date IS NULL OR decision_date IS NULL OR decision_date <= $3)
		ORDER BY rank DESC
		LIMIT $4`

	const broadSQL = `
		WITH q AS (SELECT plainto_tsquery('english_unaccent', $1) AS tsq)
		SELECT id, doc_id, case_title, decision_date, para_range,
			SUBSTRING(text, 1, 2000) AS text, citation_strings,
			ts_rank(tsv, (SELECT tsq FROM q)) AS rank
		FROM judgment_chunks
		WHERE tsv @@ (SELECT tsq FROM q)
		  AND ($2::text IS NULL OR doc_id ILIKE $2 || '%')
		  AND ($3::date IS NULL OR decision_date IS NULL OR decision_date <= $3)
		ORDER BY rank DESC
		LIMIT $4`

	rowsStrict, err := s.db.Query(ctx, strictSQL, tsq, filter.DocIDPrefix, filter.DecisionDateTo, perQueryLimit, party1, party2, citHint)
	if err != nil {
		return nil, fmt.Errorf("lexical case strict search: %w", err)
	}
	strict, err := scanCaseRankRows(rowsStrict)
	if err != nil {
		return nil, err
	}

	rowsBroad, err := s.db.Query(ctx, broadSQL, tsq, filter.DocIDPrefix, filter.DecisionDateTo, perQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("lexical case broad search: %w", err)
	}
	broad, err := scanCaseRankRows(rowsBroad)
	if err != nil {
		return nil, err
	}

	var issue []models.SearchResult
	issueTerms := issueTermsFor(tsq, synonyms)
	if len(issueTerms) > 0 {
		issueQuery := strings.Join(issueTerms[:min(len(issueTerms), 40)], " ")
		rowsIssue, err := s.db.Query(ctx, broadSQL, issueQuery, filter.DocIDPrefix, filter.DecisionDateTo, 40)
		if err == nil {
			issue, _ = scanCaseRankRows(rowsIssue)
		}
	}

	seen := map[string]bool{}
	var merged []models.SearchResult
	for _, group := range [][]models.SearchResult{strict, broad, issue} {
		for _, r := range group {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			r.Scores.KeywordScore = r.SimilarityScore
			merged = append(merged, r)
		}
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func issueTermsFor(query string, synonyms map[string][]string) []string {
	qlower := strings.ToLower(query)
	seen := map[string]bool{}
	var out []string
	for term, syns := range synonyms {
		if strings.Contains(qlower, term) {
			for _, syn := range syns {
				if syn != "" && !seen[syn] {
					seen[syn] = true
					out = append(out, syn)
				}
			}
		}
	}
	return out
}

func scanCaseRankRows(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
	Close()
}) ([]models.SearchResult, error) {
	defer rows.Close()
	var out []models.SearchResult
	for rows.Next() {
		var (
			id, docID, caseTitle, text string
			decisionDate, paraRange   *string
			citations                 []string
			rank                      float64
		)
		if err := rows.Scan(&id, &docID, &caseTitle, &decisionDate, &paraRange, &text, &citations, &rank); err != nil {
			return nil, fmt.Errorf("case rank row scan: %w", err)
		}
		var dd, pr string
		if decisionDate != nil {
			dd = *decisionDate
		}
		if paraRange != nil {
			pr = *paraRange
		}
		out = append(out, caseResult(id, docID, caseTitle, dd, pr, citations, text, rank, false))
	}
	return out, rows.Err()
}
