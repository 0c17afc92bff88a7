package store

import (
	"context"
	"fmt"

	"legalrag/models"
)

// UpsertStatuteChunk writes one statute chunk row, used only by the
// ingestion path (cmd/ingest-stub); the retrieval core itself only
// ever reads through ChunkStore's other methods.
func (s *ChunkStore) UpsertStatuteChunk(ctx context.Context, c models.StatuteChunk) error {
	const q = `
		INSERT INTO statute_chunks (
			id, doc_id, act, year, section_no, unit_type, title, "order",
			text, tokens, sha256, effective_from, effective_to, tsv
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''),
			to_tsvector('english_unaccent', $9)
		)
		ON CONFLICT (doc_id, section_no, unit_type) DO UPDATE SET
			text = EXCLUDED.text, tokens = EXCLUDED.tokens, sha256 = EXCLUDED.sha256,
			effective_from = EXCLUDED.effective_from, effective_to = EXCLUDED.effective_to,
			tsv = EXCLUDED.tsv`
	_, err := s.db.Exec(ctx, q, c.ID, c.DocID, c.Act, c.Year, c.SectionNo, string(c.UnitType),
		c.Title, c.Part, c.Text, c.Tokens, c.SHA256, c.EffectiveFrom, c.EffectiveTo)
	if err != nil {
		return fmt.Errorf("upsert statute chunk %s: %w", c.ID, err)
	}
	return nil
}

// UpsertJudgmentChunk writes one judgment chunk row.
func (s *ChunkStore) UpsertJudgmentChunk(ctx context.Context, c models.JudgmentChunk) error {
	const q = `
		INSERT INTO judgment_chunks (
			id, doc_id, case_title, decision_date, bench, citation_strings,
			para_range, "order", text, tokens, overlap_tokens, sha256, tsv
		) VALUES (
			$1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12,
			to_tsvector('english_unaccent', $9)
		)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text, tokens = EXCLUDED.tokens, sha256 = EXCLUDED.sha256,
			tsv = EXCLUDED.tsv`
	_, err := s.db.Exec(ctx, q, c.ID, c.DocID, c.CaseTitle, c.DecisionDate, c.Bench,
		c.CitationStrings, c.ParaRange, c.Order, c.Text, c.Tokens, c.OverlapTokens, c.SHA256)
	if err != nil {
		return fmt.Errorf("upsert judgment chunk %s: %w", c.ID, err)
	}
	return nil
}
