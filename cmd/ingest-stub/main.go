// Command ingest-stub loads pre-chunked records (JSONL, one object per
// line) into the Chunk Store and the dense index. Chunking, OCR and
// corpus crawling are explicitly out of scope (see SPEC_FULL.md); this
// skips records outside the 80-800 token range or the 0-80
// overlap-token range and records whose sha256 was already seen, and
// otherwise only performs the embed+upsert steps, mirroring cmd/build-embeddings' storage half without its
// Gemini-chunking half.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"legalrag/config"
	"legalrag/denseindex"
	"legalrag/embedding"
	"legalrag/models"
	"legalrag/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statuteRecord mirrors the statute_unit ingestion contract.
type statuteRecord struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	DocID         string `json:"doc_id"`
	Order         int    `json:"order"`
	Act           string `json:"act"`
	Year          int    `json:"year"`
	SectionNo     string `json:"section_no"`
	UnitType      string `json:"unit_type"`
	Title         string `json:"title"`
	Text          string `json:"text"`
	Tokens        int    `json:"tokens"`
	EffectiveFrom string `json:"effective_from"`
	EffectiveTo   string `json:"effective_to"`
	SHA256        string `json:"sha256"`
}

// judgmentRecord mirrors the judgment_window ingestion contract.
type judgmentRecord struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	DocID           string   `json:"doc_id"`
	Order           int      `json:"order"`
	Text            string   `json:"text"`
	Tokens          int      `json:"tokens"`
	OverlapTokens   int      `json:"overlap_tokens"`
	CaseTitle       string   `json:"case_title"`
	DecisionDate    string   `json:"decision_date"`
	Bench           []string `json:"bench"`
	CitationStrings []string `json:"citation_strings"`
	ParaRange       string   `json:"para_range"`
	SHA256          string   `json:"sha256"`
}

func main() {
	path := flag.String("file", "", "path to a JSONL file of statute_unit/judgment_window records")
	flag.Parse()
	if *path == "" {
		log.Fatal("usage: ingest-stub -file records.jsonl")
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()
	chunkStore := store.New(pool)

	dense, err := newDenseIndex(cfg)
	if err != nil {
		log.Fatalf("connect qdrant: %v", err)
	}

	embedder := embedding.NewHTTPClient(cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension)

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open %s: %v", *path, err)
	}
	defer f.Close()

	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var statutes, judgments, skipped, duplicates int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var probe struct {
			Type   string `json:"type"`
			SHA256 string `json:"sha256"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			log.Printf("skip malformed line: %v", err)
			skipped++
			continue
		}
		if seen[probe.SHA256] {
			duplicates++
			continue
		}
		seen[probe.SHA256] = true

		switch probe.Type {
		case "statute_unit":
			var rec statuteRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				log.Printf("skip malformed statute_unit: %v", err)
				skipped++
				continue
			}
			if rec.Tokens < 80 || rec.Tokens > 800 {
				log.Printf("skip %s: tokens %d out of [80,800]", rec.ID, rec.Tokens)
				skipped++
				continue
			}
			if err := ingestStatute(ctx, chunkStore, dense, embedder, rec); err != nil {
				log.Printf("ingest statute %s: %v", rec.ID, err)
				skipped++
				continue
			}
			statutes++

		case "judgment_window":
			var rec judgmentRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				log.Printf("skip malformed judgment_window: %v", err)
				skipped++
				continue
			}
			if rec.Tokens < 80 || rec.Tokens > 800 {
				log.Printf("skip %s: tokens %d out of [80,800]", rec.ID, rec.Tokens)
				skipped++
				continue
			}
			if rec.OverlapTokens < 0 || rec.OverlapTokens > 80 {
				log.Printf("skip %s: overlap_tokens %d out of [0,80]", rec.ID, rec.OverlapTokens)
				skipped++
				continue
			}
			if err := ingestJudgment(ctx, chunkStore, dense, embedder, rec); err != nil {
				log.Printf("ingest judgment %s: %v", rec.ID, err)
				skipped++
				continue
			}
			judgments++

		default:
			log.Printf("skip unknown record type %q", probe.Type)
			skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("scan %s: %v", *path, err)
	}

	fmt.Printf("ingested %d statute chunks, %d judgment chunks, skipped %d, deduped %d\n",
		statutes, judgments, skipped, duplicates)
}

func ingestStatute(ctx context.Context, s *store.ChunkStore, dense *denseindex.Index, embedder embedding.Client, rec statuteRecord) error {
	vec, err := embedder.Embed(ctx, rec.Text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	chunk := models.StatuteChunk{
		ID:            rec.ID,
		DocID:         rec.DocID,
		Act:           rec.Act,
		Year:          rec.Year,
		SectionNo:     rec.SectionNo,
		UnitType:      models.UnitType(rec.UnitType),
		Title:         rec.Title,
		Text:          rec.Text,
		Tokens:        rec.Tokens,
		SHA256:        rec.SHA256,
		EffectiveFrom: rec.EffectiveFrom,
		EffectiveTo:   rec.EffectiveTo,
		Embedding:     vec,
		Part:          rec.Order,
	}
	if err := s.UpsertStatuteChunk(ctx, chunk); err != nil {
		return err
	}
	return dense.UpsertStatute(ctx, chunk)
}

func ingestJudgment(ctx context.Context, s *store.ChunkStore, dense *denseindex.Index, embedder embedding.Client, rec judgmentRecord) error {
	vec, err := embedder.Embed(ctx, rec.Text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	chunk := models.JudgmentChunk{
		ID:              rec.ID,
		DocID:           rec.DocID,
		Order:           rec.Order,
		CaseTitle:       rec.CaseTitle,
		DecisionDate:    rec.DecisionDate,
		Bench:           rec.Bench,
		CitationStrings: rec.CitationStrings,
		ParaRange:       rec.ParaRange,
		Text:            rec.Text,
		Tokens:          rec.Tokens,
		OverlapTokens:   rec.OverlapTokens,
		SHA256:          rec.SHA256,
		Embedding:       vec,
	}
	if err := s.UpsertJudgmentChunk(ctx, chunk); err != nil {
		return err
	}
	return dense.UpsertCase(ctx, chunk)
}

func newDenseIndex(cfg *config.Config) (*denseindex.Index, error) {
	host, portStr, err := net.SplitHostPort(cfg.QdrantAddr)
	if err != nil {
		host, portStr = cfg.QdrantAddr, "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 6334
	}
	return denseindex.New(denseindex.Config{
		Host:               host,
		Port:               port,
		EmbeddingDimension: cfg.EmbeddingDimension,
		InitializeSchema:   true,
	})
}
