// Package eval implements the evaluation harness named in the spec's
// external interfaces (§6): Statute@3/@5, Case@5/@8, overall recall,
// latency percentiles, and cross-encoder cache hit-rate, run against a
// golden set of questions with expected statute/case IDs. It drives
// the same analysis->retrieval pipeline the Query API exposes, minus
// the gin binding layer.
package eval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"legalrag/analysis"
	"legalrag/config"
	"legalrag/embedding"
	"legalrag/models"
	"legalrag/retrieval"
)

// cacheStatter is satisfied by rerank.HTTPReranker; a NoopReranker
// doesn't implement it, so CE cache stats are simply omitted then.
type cacheStatter interface {
	CacheHitRate() float64
}

// EvalCase is one golden-set question with its expected retrieved IDs.
type EvalCase struct {
	Question         string
	ExpectedStatutes []string
	ExpectedCases    []string
	Filters          retrieval.Filters
}

// CaseResult records one case's outcome, for per-question inspection
// alongside the aggregate EvalReport.
type CaseResult struct {
	Question      string
	StatuteHitsAt string
	Latency       time.Duration
	Err           error
}

// EvalReport is the harness's aggregate output.
type EvalReport struct {
	NumCases       int
	StatuteAt3     float64
	StatuteAt5     float64
	CaseAt5        float64
	CaseAt8        float64
	Recall         float64
	LatencyP50     time.Duration
	LatencyP95     time.Duration
	LatencyMax     time.Duration
	CECacheHitRate float64
	Errors         int
	PerCase        []CaseResult
}

// Harness wires the components needed to run the retrieval pipeline
// standalone, outside of an HTTP request.
type Harness struct {
	Analyzer *analysis.QueryAnalyzer
	Temporal *analysis.TemporalReasoner
	Embedder embedding.Client
	Engine   *retrieval.Engine
	Cfg      *config.Config
	Reranker cacheStatter // optional; nil if using rerank.NoopReranker
}

// NewHarness constructs a Harness.
func NewHarness(analyzer *analysis.QueryAnalyzer, temporal *analysis.TemporalReasoner, embedder embedding.Client, engine *retrieval.Engine, cfg *config.Config, reranker cacheStatter) *Harness {
	return &Harness{Analyzer: analyzer, Temporal: temporal, Embedder: embedder, Engine: engine, Cfg: cfg, Reranker: reranker}
}

// RunSuite runs every EvalCase and returns an aggregate EvalReport.
func (h *Harness) RunSuite(ctx context.Context, cases []EvalCase) EvalReport {
	var (
		latencies                        []time.Duration
		statuteAt3Sum, statuteAt5Sum      float64
		caseAt5Sum, caseAt8Sum, recallSum float64
		scored                            int
		errCount                          int
		perCase                           []CaseResult
	)

	for _, ec := range cases {
		start := time.Now()
		statutes, retrievedCases, err := h.runOne(ctx, ec)
		elapsed := time.Since(start)
		latencies = append(latencies, elapsed)

		cr := CaseResult{Question: ec.Question, Latency: elapsed}
		if err != nil {
			errCount++
			cr.Err = err
			perCase = append(perCase, cr)
			continue
		}

		statuteIDs := resultIDs(statutes)
		caseIDs := resultIDs(retrievedCases)

		s3 := recallAtK(statuteIDs, ec.ExpectedStatutes, 3)
		s5 := recallAtK(statuteIDs, ec.ExpectedStatutes, 5)
		c5 := recallAtK(caseIDs, ec.ExpectedCases, 5)
		c8 := recallAtK(caseIDs, ec.ExpectedCases, 8)

		statuteAt3Sum += s3
		statuteAt5Sum += s5
		caseAt5Sum += c5
		caseAt8Sum += c8
		recallSum += overallRecall(statuteIDs, caseIDs, ec.ExpectedStatutes, ec.ExpectedCases)
		scored++

		cr.StatuteHitsAt = fmt.Sprintf("@3=%.2f @5=%.2f", s3, s5)
		perCase = append(perCase, cr)
	}

	report := EvalReport{
		NumCases: len(cases),
		Errors:   errCount,
		PerCase:  perCase,
	}
	if scored > 0 {
		report.StatuteAt3 = statuteAt3Sum / float64(scored)
		report.StatuteAt5 = statuteAt5Sum / float64(scored)
		report.CaseAt5 = caseAt5Sum / float64(scored)
		report.CaseAt8 = caseAt8Sum / float64(scored)
		report.Recall = recallSum / float64(scored)
	}
	report.LatencyP50, report.LatencyP95, report.LatencyMax = percentiles(latencies)
	if h.Reranker != nil {
		report.CECacheHitRate = h.Reranker.CacheHitRate()
	}
	return report
}

// runOne executes the analysis->embed->retrieve pipeline for one
// question, mirroring handlers.QueryHandler.run without the gin
// binding/response layer.
func (h *Harness) runOne(ctx context.Context, ec EvalCase) ([]models.SearchResult, []models.SearchResult, error) {
	queryAnalysis := h.Analyzer.Analyze(ec.Question)
	if reason := h.Analyzer.ShouldRefuse(queryAnalysis); reason != "" {
		return nil, nil, fmt.Errorf("refused: %s", reason)
	}

	embeddingVec, err := h.Embedder.Embed(ctx, ec.Question)
	if err != nil {
		return nil, nil, fmt.Errorf("embed: %w", err)
	}

	req := retrieval.Request{
		Query:          ec.Question,
		QueryEmbedding: embeddingVec,
		StatuteK:       h.Cfg.StatuteK,
		CaseK:          h.Cfg.CaseK,
		Synonyms:       queryAnalysis.ExpandedTerms,
		Analysis:       queryAnalysis,
		Filters:        ec.Filters,
	}
	result, err := h.Engine.Search(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("search: %w", err)
	}

	asOn := queryAnalysis.TemporalContext.AsOnDate
	if ec.Filters.AsOnDate != "" {
		asOn = ec.Filters.AsOnDate
	}
	statutes := h.Temporal.EnforceTemporalValidity(result.Statutes, asOn)
	retrievedCases := h.Temporal.EnforceTemporalValidity(result.Cases, asOn)
	return statutes, retrievedCases, nil
}

func resultIDs(results []models.SearchResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

// recallAtK is the fraction of expected IDs present anywhere in the
// top-k retrieved IDs. Returns 1 when expected is empty (nothing to
// miss).
func recallAtK(retrieved, expected []string, k int) float64 {
	if len(expected) == 0 {
		return 1
	}
	if k > len(retrieved) {
		k = len(retrieved)
	}
	top := make(map[string]bool, k)
	for _, id := range retrieved[:k] {
		top[id] = true
	}
	hits := 0
	for _, id := range expected {
		if top[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(expected))
}

// overallRecall is the fraction of the union of expected statute+case
// IDs found anywhere in the corresponding retrieved lists (no k cap).
func overallRecall(retrievedStatutes, retrievedCases, expectedStatutes, expectedCases []string) float64 {
	total := len(expectedStatutes) + len(expectedCases)
	if total == 0 {
		return 1
	}
	statuteSet := make(map[string]bool, len(retrievedStatutes))
	for _, id := range retrievedStatutes {
		statuteSet[id] = true
	}
	caseSet := make(map[string]bool, len(retrievedCases))
	for _, id := range retrievedCases {
		caseSet[id] = true
	}
	hits := 0
	for _, id := range expectedStatutes {
		if statuteSet[id] {
			hits++
		}
	}
	for _, id := range expectedCases {
		if caseSet[id] {
			hits++
		}
	}
	return float64(hits) / float64(total)
}

// percentiles returns p50, p95 and the max of a latency sample.
func percentiles(durations []time.Duration) (p50, p95, max time.Duration) {
	if len(durations) == 0 {
		return 0, 0, 0
	}
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	p50 = sorted[percentileIndex(len(sorted), 0.50)]
	p95 = sorted[percentileIndex(len(sorted), 0.95)]
	max = sorted[len(sorted)-1]
	return
}

func percentileIndex(n int, p float64) int {
	idx := int(float64(n-1) * p)
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
