// Package retrieval implements the Hybrid Retrieval Engine: the
// four-way dense+lexical fan-out, deterministic fallback resolvers,
// per-source-type fusion, optional cross-encoder rerank, MMR
// diversification, per-document caps, and fallback widening described
// in §4.8. It is the single largest component of the pipeline and the
// one every other retrieval-adjacent package (rerank, answer) is
// wired against.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"legalrag/config"
	"legalrag/denseindex"
	"legalrag/errs"
	"legalrag/models"
	"legalrag/rerank"
	"legalrag/store"
)

// Store is the subset of store.ChunkStore the engine depends on,
// narrowed to an interface so tests can substitute a fake.
type Store interface {
	StatutesBySectionNo(ctx context.Context, sectionNo string) ([]models.SearchResult, error)
	CasesByTitleLike(ctx context.Context, party1, party2, mode string) ([]models.SearchResult, error)
	CasesByCitationLike(ctx context.Context, hint string) ([]models.SearchResult, error)
	JudgmentsByDocID(ctx context.Context, docID string) ([]models.JudgmentChunk, error)
	SearchStatutesLexical(ctx context.Context, query string, synonyms map[string][]string, filter store.StatuteFilter, limit int) ([]models.SearchResult, error)
	SearchCasesLexical(ctx context.Context, query string, synonyms map[string][]string, filter store.CaseFilter, limit int) ([]models.SearchResult, error)
	HydrateStatutes(ctx context.Context, ids []string) (map[string]string, error)
	HydrateCases(ctx context.Context, ids []string) (map[string]string, error)
}

// DenseIndex is the subset of denseindex.Index the engine depends on.
type DenseIndex interface {
	SearchStatutes(ctx context.Context, embedding []float32, filter denseindex.StatuteANNFilter, topK int) ([]models.SearchResult, error)
	SearchCases(ctx context.Context, embedding []float32, filter denseindex.CaseANNFilter, topK int) ([]models.SearchResult, error)
}

// Engine is the Hybrid Retrieval Engine.
type Engine struct {
	store    Store
	dense    DenseIndex
	reranker rerank.Reranker
	cfg      *config.Config
}

// New constructs an Engine. reranker may be rerank.NoopReranker{} to
// disable cross-encoder rerank entirely without changing the public
// API shape.
func New(st Store, dense DenseIndex, reranker rerank.Reranker, cfg *config.Config) *Engine {
	return &Engine{store: st, dense: dense, reranker: reranker, cfg: cfg}
}

// Request bundles everything the engine needs for one query.
type Request struct {
	Query          string
	QueryEmbedding []float32
	StatuteK       int
	CaseK          int
	Synonyms       map[string][]string
	Analysis       models.QueryAnalysis
	Filters        Filters
}

// Filters carries the Query API's optional narrowing parameters
// (§6): act, court_prefix, as_on_date, decision_date_to. A nil/empty
// field leaves the corresponding dimension unconstrained.
type Filters struct {
	Act            string
	CourtPrefix    string
	AsOnDate       string
	DecisionDateTo string
}

// Result is the engine's output: hydrated, final statute and case
// lists, ready for temporal post-filtering and answer assembly.
type Result struct {
	Statutes []models.SearchResult
	Cases    []models.SearchResult
}

// fanOutResult carries the four concurrent search outcomes plus the
// case ANN/BM25 candidates used again during fallback widening.
type fanOutResult struct {
	statuteANN []models.SearchResult
	statuteKW  []models.SearchResult
	caseANN    []models.SearchResult
	caseKW     []models.SearchResult
}

// Search runs the full pipeline: fan-out, resolvers, fusion, optional
// rerank, MMR, per-doc cap, widening, hydration.
func (e *Engine) Search(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.RequestDeadline)
	defer cancel()

	initialPrefix := "SC:"
	if req.Filters.CourtPrefix != "" {
		initialPrefix = req.Filters.CourtPrefix
	}
	fo, err := e.fanOut(ctx, req, initialPrefix)
	if err != nil {
		return Result{}, err
	}

	statuteResolved := e.runStatuteResolvers(ctx, req.Analysis)
	caseResolved := e.runCaseResolvers(ctx, req.Analysis, req.CaseK)

	statutes := fuseStatutes(append(append(fo.statuteANN, fo.statuteKW...), statuteResolved...), req.Analysis, e.cfg)
	cases := fuseCases(fo.caseANN, fo.caseKW, caseResolved, req.Analysis, e.cfg)

	cases = e.rerankCases(ctx, req.Query, cases)

	statutes = diversify(statutes, e.cfg.MMRLambda, req.StatuteK)
	cases = diversify(cases, e.cfg.MMRLambda, req.CaseK*4) // wide pre-cap pool, capped below
	cases = capPerDoc(cases, e.cfg.PerDocCap)
	if len(cases) > req.CaseK {
		cases = cases[:req.CaseK]
	}

	if len(cases) < req.CaseK && req.Filters.CourtPrefix == "" {
		fo2, err := e.fanOut(ctx, req, "")
		if err == nil {
			widened := fuseCases(fo2.caseANN, fo2.caseKW, caseResolved, req.Analysis, e.cfg)
			widened = e.rerankCases(ctx, req.Query, widened)
			merged := dedupByID(append(cases, widened...))
			merged = diversify(merged, e.cfg.MMRLambda, req.CaseK*4)
			merged = capPerDoc(merged, e.cfg.PerDocCap)
			if len(merged) > req.CaseK {
				merged = merged[:req.CaseK]
			}
			cases = merged
		}
	}

	if len(statutes) > req.StatuteK {
		statutes = statutes[:req.StatuteK]
	}

	if err := e.hydrate(ctx, statutes, cases); err != nil {
		return Result{}, err
	}

	if len(statutes) == 0 && len(cases) == 0 {
		return Result{}, errs.New(errs.KindUpstream, "retrieval.Search", fmt.Errorf("no candidates from any source"))
	}
	return Result{Statutes: statutes, Cases: cases}, nil
}

// fanOut runs the four concurrent searches and is safe to call twice
// (prefix="" for the widening pass). Any single sub-query failing is
// logged and treated as empty, per §4.8's failure semantics.
func (e *Engine) fanOut(ctx context.Context, req Request, casePrefix string) (fanOutResult, error) {
	var fo fanOutResult
	g, gctx := errgroup.WithContext(ctx)

	asOnDate := req.Analysis.TemporalContext.AsOnDate
	if req.Filters.AsOnDate != "" {
		asOnDate = req.Filters.AsOnDate
	}

	g.Go(func() error {
		ctx, cancel := context.WithTimeout(gctx, e.cfg.ANNTimeout)
		defer cancel()
		res, err := e.dense.SearchStatutes(ctx, req.QueryEmbedding, denseindex.StatuteANNFilter{
			Act:      req.Filters.Act,
			AsOnDate: asOnDate,
		}, req.StatuteK*3)
		if err != nil {
			log.Printf("retrieval: statute ANN search failed: %v", err)
			return nil // degrade to empty, not fatal
		}
		fo.statuteANN = res
		return nil
	})

	g.Go(func() error {
		ctx, cancel := context.WithTimeout(gctx, e.cfg.LexicalTimeout)
		defer cancel()
		tsq := buildExpandedQuery(req)
		res, err := e.store.SearchStatutesLexical(ctx, tsq, req.Synonyms, store.StatuteFilter{
			Act:      nonEmptyPtr(req.Filters.Act),
			AsOnDate: nonEmptyPtr(asOnDate),
		}, req.StatuteK*3)
		if err != nil {
			log.Printf("retrieval: statute lexical search failed: %v", err)
			return nil
		}
		fo.statuteKW = res
		return nil
	})

	g.Go(func() error {
		ctx, cancel := context.WithTimeout(gctx, e.cfg.ANNTimeout)
		defer cancel()
		res, err := e.dense.SearchCases(ctx, req.QueryEmbedding, denseindex.CaseANNFilter{
			DocIDPrefix:    casePrefix,
			DecisionDateTo: req.Filters.DecisionDateTo,
		}, req.CaseK*4)
		if err != nil {
			log.Printf("retrieval: case ANN search failed: %v", err)
			return nil
		}
		fo.caseANN = res
		return nil
	})

	g.Go(func() error {
		ctx, cancel := context.WithTimeout(gctx, e.cfg.LexicalTimeout)
		defer cancel()
		tsq := buildExpandedQuery(req)
		res, err := e.store.SearchCasesLexical(ctx, tsq, req.Synonyms, store.CaseFilter{
			DocIDPrefix:    nonEmptyPtr(casePrefix),
			DecisionDateTo: nonEmptyPtr(req.Filters.DecisionDateTo),
		}, req.CaseK*4)
		if err != nil {
			log.Printf("retrieval: case lexical search failed: %v", err)
			return nil
		}
		fo.caseKW = res
		return nil
	})

	_ = g.Wait() // errors above are swallowed by design; nil-slices degrade gracefully
	return fo, nil
}

func buildExpandedQuery(req Request) string {
	parts := []string{req.Query}
	for _, syns := range req.Analysis.ExpandedTerms {
		parts = append(parts, syns...)
	}
	return strings.Join(parts, " ")
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// runStatuteResolvers executes the statute section resolver for every
// distinct explicit section and section guess in the analysis; a
// failed lookup is skipped.
func (e *Engine) runStatuteResolvers(ctx context.Context, analysis models.QueryAnalysis) []models.SearchResult {
	var out []models.SearchResult
	sections := lo.Uniq(append(append([]string{}, analysis.ExplicitSections...), analysis.SectionGuesses...))
	for _, sec := range sections {
		res, err := e.store.StatutesBySectionNo(ctx, sec)
		if err != nil {
			continue
		}
		out = append(out, res...)
	}
	return out
}

var sanitizeTokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// runCaseResolvers executes the party, citation, and doc-ID resolvers
// unconditionally when their respective signals are present in the
// query analysis.
func (e *Engine) runCaseResolvers(ctx context.Context, analysis models.QueryAnalysis, caseK int) []models.SearchResult {
	var out []models.SearchResult
	seen := map[string]bool{}

	for _, mention := range analysis.CaseMentions {
		andRes, err := e.store.CasesByTitleLike(ctx, mention[0], mention[1], "and")
		if err == nil {
			for _, r := range andRes {
				if seen[r.ID] {
					continue
				}
				seen[r.ID] = true
				r.Scores.PartyResolver = true
				out = append(out, r)
			}
		}
		orRes, err := e.store.CasesByTitleLike(ctx, mention[0], mention[1], "or")
		if err == nil {
			for _, r := range orRes {
				if seen[r.ID] {
					continue
				}
				seen[r.ID] = true
				r.Scores.PartyResolverOr = true
				out = append(out, r)
			}
		}
	}

	for _, hint := range store.ExtractCaseHints(analysis.OriginalQuery) {
		res, err := e.store.CasesByCitationLike(ctx, hint)
		if err != nil {
			continue
		}
		for _, r := range res {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			r.Scores.CitationResolver = true
			out = append(out, r)
		}
	}

	limitPerDoc := caseK
	if limitPerDoc < 6 {
		limitPerDoc = 6
	}
	for _, docID := range analysis.ExplicitCaseIDs {
		chunks, err := e.store.JudgmentsByDocID(ctx, docID)
		if err != nil || len(chunks) == 0 {
			continue
		}
		out = append(out, docIDResolverTopHits(chunks, analysis.OriginalQuery, seen, limitPerDoc)...)
	}

	return out
}

// docIDResolverTopHits scores each chunk by count of sanitized query
// tokens present, returns up to limitPerDoc positive hits plus the
// last-ordered chunk, per §4.8 step 2.
func docIDResolverTopHits(chunks []models.JudgmentChunk, query string, seen map[string]bool, limitPerDoc int) []models.SearchResult {
	tokens := sanitizeTokenPattern.FindAllString(strings.ToLower(query), -1)

	type hit struct {
		chunk models.JudgmentChunk
		count int
	}
	hits := make([]hit, 0, len(chunks))
	for _, c := range chunks {
		lower := strings.ToLower(c.Text)
		count := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				count++
			}
		}
		hits = append(hits, hit{chunk: c, count: count})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].count > hits[j].count })

	var out []models.SearchResult
	picked := map[string]bool{}
	for _, h := range hits {
		if h.count <= 0 || len(out) >= limitPerDoc {
			break
		}
		if seen[h.chunk.ID] {
			continue
		}
		seen[h.chunk.ID] = true
		picked[h.chunk.ID] = true
		out = append(out, judgmentChunkToResult(h.chunk, h.count))
	}

	last := chunks[len(chunks)-1]
	if !picked[last.ID] && !seen[last.ID] {
		seen[last.ID] = true
		out = append(out, judgmentChunkToResult(last, 0))
	}
	return out
}

func judgmentChunkToResult(c models.JudgmentChunk, keywordHits int) models.SearchResult {
	return models.SearchResult{
		ID:              c.ID,
		DocID:           c.DocID,
		Content:         c.Text,
		SourceType:      models.SourceCase,
		AuthorityWeight: 1.0,
		SimilarityScore: 1.0,
		Case: &models.CaseFields{
			CaseTitle:       c.CaseTitle,
			DecisionDate:    c.DecisionDate,
			Bench:           c.Bench,
			CitationStrings: c.CitationStrings,
			ParaRange:       c.ParaRange,
		},
		Scores: models.ScoreBreakdown{FallbackDoc: true, KeywordHits: keywordHits},
	}
}

// rerankCases scores the top-N (N<=50) case candidates with the
// cross-encoder when enabled; combined = 0.65*current + 0.35*ce_score.
func (e *Engine) rerankCases(ctx context.Context, query string, cases []models.SearchResult) []models.SearchResult {
	if !e.reranker.Enabled() || len(cases) == 0 {
		return cases
	}
	sort.SliceStable(cases, func(i, j int) bool { return cases[i].Scores.FinalScore > cases[j].Scores.FinalScore })

	n := len(cases)
	if n > 50 {
		n = 50
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.RerankerTimeout)
	defer cancel()

	for i := 0; i < n; i++ {
		ce, err := e.reranker.Score(ctx, query, cases[i].Content, cases[i].ID)
		if err != nil {
			// Reranker has disabled itself; stop attempting further calls
			// this request and leave remaining scores untouched.
			break
		}
		v := ce
		cases[i].Scores.CEScore = &v
		cases[i].Scores.FinalScore = e.cfg.CurrentScoreWeight*cases[i].Scores.FinalScore + e.cfg.CEWeight*ce
	}
	return cases
}

func dedupByID(results []models.SearchResult) []models.SearchResult {
	seen := map[string]bool{}
	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// hydrate fetches full text for the final statute/case IDs and writes
// it back into Content, in place.
func (e *Engine) hydrate(ctx context.Context, statutes, cases []models.SearchResult) error {
	statuteIDs := lo.Map(statutes, func(r models.SearchResult, _ int) string { return r.ID })
	caseIDs := lo.Map(cases, func(r models.SearchResult, _ int) string { return r.ID })

	statuteText, err := e.store.HydrateStatutes(ctx, statuteIDs)
	if err != nil {
		return errs.New(errs.KindUpstream, "retrieval.hydrate", err)
	}
	caseText, err := e.store.HydrateCases(ctx, caseIDs)
	if err != nil {
		return errs.New(errs.KindUpstream, "retrieval.hydrate", err)
	}

	for i := range statutes {
		if t, ok := statuteText[statutes[i].ID]; ok && t != "" {
			statutes[i].Content = t
		}
	}
	for i := range cases {
		if t, ok := caseText[cases[i].ID]; ok && t != "" {
			cases[i].Content = t
		}
	}
	return nil
}
