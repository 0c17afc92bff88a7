// Package store implements the spec's Chunk Store: point lookups, bulk
// hydration, and lexical (tsquery) search over the statute_chunks and
// judgment_chunks tables, plus (in ingest.go) the upserts the
// ingestion path uses to populate them. Dense ANN search lives in the
// sibling denseindex package; this package owns everything that talks
// directly to Postgres, following the teacher's
// repository/legal_chunk_repository.go query/Scan idiom.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"legalrag/models"
)

// ChunkStore is the relational API over statute_chunks and
// judgment_chunks: reads here, writes in ingest.go.
type ChunkStore struct {
	db *pgxpool.Pool
}

// New constructs a ChunkStore over an established pool.
func New(db *pgxpool.Pool) *ChunkStore {
	return &ChunkStore{db: db}
}

// StatuteFilter narrows a statute query per §4.3/§4.4.
type StatuteFilter struct {
	Act          *string
	AsOnDate     *string // YYYY-MM-DD
}

// CaseFilter narrows a judgment query per §4.3/§4.4.
type CaseFilter struct {
	DocIDPrefix    *string
	DecisionDateTo *string // YYYY-MM-DD
}

// StatutesBySectionNo implements the statute section resolver's point
// lookup: all rows across docs carrying the given section number.
func (s *ChunkStore) StatutesBySectionNo(ctx context.Context, sectionNo string) ([]models.SearchResult, error) {
	const q = `
		SELECT id, doc_id, act, section_no, unit_type, title,
			SUBSTRING(text, 1, 2000) AS text, effective_from, effective_to
		FROM statute_chunks
		WHERE section_no = $1
		ORDER BY doc_id, id`
	rows, err := s.db.Query(ctx, q, sectionNo)
	if err != nil {
		return nil, fmt.Errorf("statutes by section_no: %w", err)
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var (
			id, docID, act, sNo, unitType, title, text string
			effFrom, effTo                             *string
		)
		if err := rows.Scan(&id, &docID, &act, &sNo, &unitType, &title, &text, &effFrom, &effTo); err != nil {
			return nil, fmt.Errorf("statutes by section_no scan: %w", err)
		}
		out = append(out, statuteResult(id, docID, sNo, unitType, text, effFrom, effTo, 1.0, true))
	}
	return out, rows.Err()
}

// CasesByTitleLike runs the party resolver's lowercase LIKE query over
// case_title. When party2 is non-empty, mode "and" requires both to
// match (either order); mode "or" requires either to match.
func (s *ChunkStore) CasesByTitleLike(ctx context.Context, party1, party2, mode string) ([]models.SearchResult, error) {
	p1 := "%" + strings.ToLower(party1) + "%"
	var q string
	var args []any
	switch {
	case party2 == "":
		q = `SELECT id, doc_id, case_title, decision_date, para_range,
				SUBSTRING(text, 1, 2000) AS text, citation_strings
			FROM judgment_chunks WHERE lower(case_title) LIKE $1`
		args = []any{p1}
	case mode == "and":
		p2 := "%" + strings.ToLower(party2) + "%"
		q = `SELECT id, doc_id, case_title, decision_date, para_range,
				SUBSTRING(text, 1, 2000) AS text, citation_strings
			FROM judgment_chunks
			WHERE (lower(case_title) LIKE $1 AND lower(case_title) LIKE $2)
			   OR (lower(case_title) LIKE $2 AND lower(case_title) LIKE $1)`
		args = []any{p1, p2}
	default: // "or"
		p2 := "%" + strings.ToLower(party2) + "%"
		q = `SELECT id, doc_id, case_title, decision_date, para_range,
				SUBSTRING(text, 1, 2000) AS text, citation_strings
			FROM judgment_chunks
			WHERE lower(case_title) LIKE $1 OR lower(case_title) LIKE $2`
		args = []any{p1, p2}
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("cases by title like: %w", err)
	}
	defer rows.Close()
	return scanCaseRows(rows, 1.0)
}

// CasesByCitationLike matches a citation hint against the serialized
// citation_strings column.
func (s *ChunkStore) CasesByCitationLike(ctx context.Context, hint string) ([]models.SearchResult, error) {
	const q = `SELECT id, doc_id, case_title, decision_date, para_range,
			SUBSTRING(text, 1, 2000) AS text, citation_strings
		FROM judgment_chunks
		WHERE lower(citation_strings::text) LIKE $1`
	rows, err := s.db.Query(ctx, q, "%"+strings.ToLower(hint)+"%")
	if err != nil {
		return nil, fmt.Errorf("cases by citation like: %w", err)
	}
	defer rows.Close()
	return scanCaseRows(rows, 1.0)
}

// JudgmentsByDocID loads all chunks of a doc in order, for the doc-ID
// resolver.
func (s *ChunkStore) JudgmentsByDocID(ctx context.Context, docID string) ([]models.JudgmentChunk, error) {
	const q = `SELECT id, doc_id, "order", case_title, decision_date, para_range,
			text, tokens, citation_strings
		FROM judgment_chunks WHERE doc_id = $1 ORDER BY "order"`
	rows, err := s.db.Query(ctx, q, docID)
	if err != nil {
		return nil, fmt.Errorf("judgments by doc_id: %w", err)
	}
	defer rows.Close()

	var out []models.JudgmentChunk
	for rows.Next() {
		var c models.JudgmentChunk
		var decisionDate *string
		if err := rows.Scan(&c.ID, &c.DocID, &c.Order, &c.CaseTitle, &decisionDate, &c.ParaRange, &c.Text, &c.Tokens, &c.CitationStrings); err != nil {
			return nil, fmt.Errorf("judgments by doc_id scan: %w", err)
		}
		if decisionDate != nil {
			c.DecisionDate = *decisionDate
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// HydrateStatutes fetches full text for a set of statute chunk IDs.
func (s *ChunkStore) HydrateStatutes(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	const q = `SELECT id, text FROM statute_chunks WHERE id = ANY($1)`
	rows, err := s.db.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate statutes: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string, len(ids))
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("hydrate statutes scan: %w", err)
		}
		out[id] = text
	}
	return out, rows.Err()
}

// HydrateCases fetches full text for a set of judgment chunk IDs.
func (s *ChunkStore) HydrateCases(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	const q = `SELECT id, text FROM judgment_chunks WHERE id = ANY($1)`
	rows, err := s.db.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate cases: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string, len(ids))
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("hydrate cases scan: %w", err)
		}
		out[id] = text
	}
	return out, rows.Err()
}

func scanCaseRows(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}, similarity float64) ([]models.SearchResult, error) {
	var out []models.SearchResult
	for rows.Next() {
		var (
			id, docID, caseTitle, text string
			decisionDate               *string
			paraRange                  *string
			citations                  []string
		)
		if err := rows.Scan(&id, &docID, &caseTitle, &decisionDate, &paraRange, &text, &citations); err != nil {
			return nil, fmt.Errorf("case row scan: %w", err)
		}
		var dd, pr string
		if decisionDate != nil {
			dd = *decisionDate
		}
		if paraRange != nil {
			pr = *paraRange
		}
		out = append(out, caseResult(id, docID, caseTitle, dd, pr, citations, text, similarity, true))
	}
	return out, rows.Err()
}

func statuteResult(id, docID, sectionNo, unitType, text string, effFrom, effTo *string, similarity float64, fallback bool) models.SearchResult {
	var ef, et string
	if effFrom != nil {
		ef = *effFrom
	}
	if effTo != nil {
		et = *effTo
	}
	return models.SearchResult{
		ID:              id,
		DocID:           docID,
		Content:         text,
		SourceType:      models.SourceStatute,
		AuthorityWeight: 1.0,
		SimilarityScore: similarity,
		Statute: &models.StatuteFields{
			SectionNo:     sectionNo,
			UnitType:      models.UnitType(unitType),
			CanonicalID:   docID + ":Sec:" + sectionNo,
			EffectiveFrom: ef,
			EffectiveTo:   et,
		},
		Scores: models.ScoreBreakdown{FallbackMatch: fallback},
	}
}

func caseResult(id, docID, caseTitle, decisionDate, paraRange string, citations []string, text string, similarity float64, fallback bool) models.SearchResult {
	return models.SearchResult{
		ID:              id,
		DocID:           docID,
		Content:         text,
		SourceType:      models.SourceCase,
		AuthorityWeight: 1.0,
		SimilarityScore: similarity,
		Case: &models.CaseFields{
			CaseTitle:       caseTitle,
			DecisionDate:    decisionDate,
			ParaRange:       paraRange,
			CitationStrings: citations,
		},
	}
}
