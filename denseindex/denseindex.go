// Package denseindex wraps the Qdrant Go client for ANN search over
// the statute and judgment embedding collections. It owns only the
// vector side of the spec's Dense Search component; relational point
// lookups and lexical search live in the sibling store package.
package denseindex

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"legalrag/models"
)

const (
	statuteCollection = "statute_chunks"
	caseCollection    = "judgment_chunks"

	// caseEfSearch favors recall for judgment ANN queries, per the
	// spec's session-local ef_search tunable.
	caseEfSearch = 256
)

// Index is the ANN search surface used by the Hybrid Retrieval Engine.
type Index struct {
	client *qdrant.Client
}

// Config configures the Qdrant connection.
type Config struct {
	Host string
	Port int

	// EmbeddingDimension sizes the collections created by
	// ensureCollection. Required when InitializeSchema is true.
	EmbeddingDimension int

	// InitializeSchema creates the statute_chunks/judgment_chunks
	// collections on dial if they don't already exist, mirroring the
	// Tangerg-lynx qdrant store's CollectionExists/CreateCollection
	// gate.
	InitializeSchema bool
}

// New dials a Qdrant instance and, if cfg.InitializeSchema is set,
// provisions the statute_chunks/judgment_chunks collections.
func New(cfg Config) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("denseindex: failed to create qdrant client: %w", err)
	}
	ix := &Index{client: client}

	if cfg.InitializeSchema {
		if cfg.EmbeddingDimension <= 0 {
			return nil, fmt.Errorf("denseindex: EmbeddingDimension required when InitializeSchema is set")
		}
		ctx := context.Background()
		if err := ix.ensureCollection(ctx, statuteCollection, cfg.EmbeddingDimension); err != nil {
			return nil, err
		}
		if err := ix.ensureCollection(ctx, caseCollection, cfg.EmbeddingDimension); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// ensureCollection creates the named collection with a cosine-distance
// vector config of the given dimension if it doesn't already exist.
func (ix *Index) ensureCollection(ctx context.Context, name string, dim int) error {
	exists, err := ix.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("denseindex: check collection %s: %w", name, err)
	}
	if exists {
		return nil
	}
	err = ix.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("denseindex: create collection %s: %w", name, err)
	}
	return nil
}

// StatuteANNFilter narrows the statute ANN query: act equality and an
// effective-date window, per §4.4.
type StatuteANNFilter struct {
	Act      string
	AsOnDate string // YYYY-MM-DD, empty disables the window filter
}

// CaseANNFilter narrows the judgment ANN query: doc-id prefix and a
// decision-date upper bound, per §4.4.
type CaseANNFilter struct {
	DocIDPrefix    string
	DecisionDateTo string // YYYY-MM-DD
}

// SearchStatutes returns top-k statute SearchResults with
// similarity = 1 - cosine_distance. The threshold is permissive
// (score_threshold left unset); fusion does the real filtering.
func (ix *Index) SearchStatutes(ctx context.Context, embedding []float32, filter StatuteANNFilter, topK int) ([]models.SearchResult, error) {
	qp := &qdrant.QueryPoints{
		CollectionName: statuteCollection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          ptrUint64(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if f := buildStatuteFilter(filter); f != nil {
		qp.Filter = f
	}

	points, err := ix.client.Query(ctx, qp)
	if err != nil {
		return nil, fmt.Errorf("denseindex: statute ANN query: %w", err)
	}
	return toStatuteResults(points), nil
}

// SearchCases returns top-k judgment SearchResults, with ef_search
// biased for recall.
func (ix *Index) SearchCases(ctx context.Context, embedding []float32, filter CaseANNFilter, topK int) ([]models.SearchResult, error) {
	qp := &qdrant.QueryPoints{
		CollectionName: caseCollection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          ptrUint64(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		Params: &qdrant.SearchParams{
			HnswEf: ptrUint64(caseEfSearch),
		},
	}
	if f := buildCaseFilter(filter); f != nil {
		qp.Filter = f
	}

	points, err := ix.client.Query(ctx, qp)
	if err != nil {
		return nil, fmt.Errorf("denseindex: case ANN query: %w", err)
	}
	return toCaseResults(points), nil
}

// UpsertStatute writes one statute chunk's embedding and payload,
// used by the ingestion path (chunking/OCR themselves are out of
// scope; this assumes a pre-chunked StatuteChunk).
func (ix *Index) UpsertStatute(ctx context.Context, chunk models.StatuteChunk) error {
	payload := qdrant.NewValueMap(map[string]any{
		"id":             chunk.ID,
		"doc_id":         chunk.DocID,
		"act":            chunk.Act,
		"section_no":     chunk.SectionNo,
		"unit_type":      string(chunk.UnitType),
		"effective_from": chunk.EffectiveFrom,
		"effective_to":   chunk.EffectiveTo,
	})
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(stableHash(chunk.ID))),
		Vectors: qdrant.NewVectors(chunk.Embedding...),
		Payload: payload,
	}
	_, err := ix.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: statuteCollection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("denseindex: statute upsert: %w", err)
	}
	return nil
}

// UpsertCase writes one judgment chunk's embedding and payload.
func (ix *Index) UpsertCase(ctx context.Context, chunk models.JudgmentChunk) error {
	payload := qdrant.NewValueMap(map[string]any{
		"id":            chunk.ID,
		"doc_id":        chunk.DocID,
		"case_title":    chunk.CaseTitle,
		"decision_date": chunk.DecisionDate,
		"para_range":    chunk.ParaRange,
	})
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(stableHash(chunk.ID))),
		Vectors: qdrant.NewVectors(chunk.Embedding...),
		Payload: payload,
	}
	_, err := ix.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: caseCollection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("denseindex: case upsert: %w", err)
	}
	return nil
}

// stableHash maps a string chunk ID to a stable uint64 point ID, since
// Qdrant point IDs must be a UUID or unsigned integer rather than an
// arbitrary string.
func stableHash(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func buildStatuteFilter(f StatuteANNFilter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.Act != "" {
		must = append(must, qdrant.NewMatch("act", f.Act))
	}
	if f.AsOnDate != "" {
		must = append(must,
			qdrant.NewRange("effective_from", &qdrant.Range{Lte: floatDate(f.AsOnDate)}),
		)
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func buildCaseFilter(f CaseANNFilter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.DocIDPrefix != "" {
		must = append(must, qdrant.NewMatchText("doc_id", f.DocIDPrefix))
	}
	if f.DecisionDateTo != "" {
		must = append(must,
			qdrant.NewRange("decision_date", &qdrant.Range{Lte: floatDate(f.DecisionDateTo)}),
		)
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// floatDate converts a YYYY-MM-DD string to a sortable float (yyyymmdd)
// for Qdrant's numeric range filter, since payload dates are indexed
// as integers at ingestion time.
func floatDate(d string) float64 {
	var y, m, day int
	fmt.Sscanf(d, "%d-%d-%d", &y, &m, &day)
	return float64(y*10000 + m*100 + day)
}

func ptrUint64(v uint64) *uint64 { return &v }

func toStatuteResults(points []*qdrant.ScoredPoint) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		similarity := float64(p.GetScore())
		out = append(out, models.SearchResult{
			ID:              payloadString(payload, "id"),
			DocID:           payloadString(payload, "doc_id"),
			SourceType:      models.SourceStatute,
			AuthorityWeight: 1.0,
			SimilarityScore: similarity,
			Statute: &models.StatuteFields{
				SectionNo:     payloadString(payload, "section_no"),
				UnitType:      models.UnitType(payloadString(payload, "unit_type")),
				CanonicalID:   payloadString(payload, "doc_id") + ":Sec:" + payloadString(payload, "section_no"),
				EffectiveFrom: payloadString(payload, "effective_from"),
				EffectiveTo:   payloadString(payload, "effective_to"),
			},
			Scores: models.ScoreBreakdown{VectorScore: similarity},
		})
	}
	return out
}

func toCaseResults(points []*qdrant.ScoredPoint) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		similarity := float64(p.GetScore())
		out = append(out, models.SearchResult{
			ID:              payloadString(payload, "id"),
			DocID:           payloadString(payload, "doc_id"),
			SourceType:      models.SourceCase,
			AuthorityWeight: 1.0,
			SimilarityScore: similarity,
			Case: &models.CaseFields{
				CaseTitle:    payloadString(payload, "case_title"),
				DecisionDate: payloadString(payload, "decision_date"),
				ParaRange:    payloadString(payload, "para_range"),
			},
			Scores: models.ScoreBreakdown{VectorScore: similarity},
		})
	}
	return out
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return v.GetStringValue()
}
