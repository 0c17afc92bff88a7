package handlers

import (
	"net/http"

	"legalrag/analysis"
	"legalrag/cache"
	"legalrag/config"
	"legalrag/embedding"
	"legalrag/errs"
	"legalrag/models"
	"legalrag/retrieval"

	"github.com/gin-gonic/gin"
)

// QueryHandler serves the Query API (§6): query analysis, temporal
// reasoning, and hybrid retrieval, without answer assembly.
type QueryHandler struct {
	analyzer  *analysis.QueryAnalyzer
	temporal  *analysis.TemporalReasoner
	embedder  *embedding.HTTPClient
	engine    *retrieval.Engine
	cache     *cache.RedisCache
	cfg       *config.Config
}

// NewQueryHandler constructs a QueryHandler.
func NewQueryHandler(analyzer *analysis.QueryAnalyzer, temporal *analysis.TemporalReasoner, embedder *embedding.HTTPClient, engine *retrieval.Engine, resultCache *cache.RedisCache, cfg *config.Config) *QueryHandler {
	return &QueryHandler{analyzer: analyzer, temporal: temporal, embedder: embedder, engine: engine, cache: resultCache, cfg: cfg}
}

// queryFilters mirrors the Query API's optional filters object.
type queryFilters struct {
	Act            string `json:"act"`
	CourtPrefix    string `json:"court_prefix"`
	AsOnDate       string `json:"as_on_date"`
	DecisionDateTo string `json:"decision_date_to"`
}

// QueryRequest is the Query API input per §6.
type QueryRequest struct {
	Query    string       `json:"query" binding:"required"`
	StatuteK int          `json:"statute_k"`
	CaseK    int          `json:"case_k"`
	Filters  queryFilters `json:"filters"`
}

// QueryResponse is the Query API output per §6.
type QueryResponse struct {
	TemporalContext    models.TemporalContext `json:"temporal_context"`
	QueryAnalysis      models.QueryAnalysis   `json:"query_analysis"`
	ClarifyingQuestion string                 `json:"clarifying_question,omitempty"`
	RefusalReason      string                 `json:"refusal_reason,omitempty"`
	Statutes           []models.SearchResult  `json:"statutes"`
	Cases              []models.SearchResult  `json:"cases"`
	TotalRetrieved     int                    `json:"total_retrieved"`
}

// HandleQuery implements POST /api/query.
func (h *QueryHandler) HandleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, "BadRequest", err.Error(), 0)
		return
	}
	resp, err := h.run(c, req)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// run executes the shared query pipeline; AnswerHandler calls it too
// so both endpoints share one analysis/retrieval code path.
func (h *QueryHandler) run(c *gin.Context, req QueryRequest) (QueryResponse, error) {
	if req.StatuteK <= 0 {
		req.StatuteK = h.cfg.StatuteK
	}
	if req.CaseK <= 0 {
		req.CaseK = h.cfg.CaseK
	}

	queryAnalysis := h.analyzer.Analyze(req.Query)

	resp := QueryResponse{
		TemporalContext: queryAnalysis.TemporalContext,
		QueryAnalysis:   queryAnalysis,
	}

	if reason := h.analyzer.ShouldRefuse(queryAnalysis); reason != "" {
		resp.RefusalReason = reason
		return resp, nil
	}
	if question := h.analyzer.GenerateClarification(queryAnalysis); question != "" {
		resp.ClarifyingQuestion = question
	}

	embeddingVec, err := h.embedder.Embed(c.Request.Context(), req.Query)
	if err != nil {
		return resp, errs.New(errs.KindUpstream, "handlers.QueryHandler.run", err)
	}

	retrievalReq := retrieval.Request{
		Query:          req.Query,
		QueryEmbedding: embeddingVec,
		StatuteK:       req.StatuteK,
		CaseK:          req.CaseK,
		Synonyms:       queryAnalysis.ExpandedTerms,
		Analysis:       queryAnalysis,
		Filters: retrieval.Filters{
			Act:            req.Filters.Act,
			CourtPrefix:    req.Filters.CourtPrefix,
			AsOnDate:       req.Filters.AsOnDate,
			DecisionDateTo: req.Filters.DecisionDateTo,
		},
	}

	result, err := h.engine.Search(c.Request.Context(), retrievalReq)
	if err != nil {
		return resp, err
	}

	asOn := queryAnalysis.TemporalContext.AsOnDate
	if req.Filters.AsOnDate != "" {
		asOn = req.Filters.AsOnDate
	}
	resp.Statutes = h.temporal.EnforceTemporalValidity(result.Statutes, asOn)
	resp.Cases = h.temporal.EnforceTemporalValidity(result.Cases, asOn)
	resp.TotalRetrieved = len(resp.Statutes) + len(resp.Cases)

	return resp, nil
}

func writeAPIError(c *gin.Context, status int, kind, message string, retryAfter int) {
	body := gin.H{"kind": kind, "message": message}
	if retryAfter > 0 {
		body["retry_after"] = retryAfter
	}
	c.JSON(status, body)
}

// writeEngineError maps the errs.Kind taxonomy to the Query/Answer
// API's {kind, message, retry_after?} error shape and HTTP status,
// per §6/§7.
func writeEngineError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, errs.KindBadInput):
		writeAPIError(c, http.StatusBadRequest, "BadRequest", err.Error(), 0)
	case errs.Is(err, errs.KindUpstream):
		writeAPIError(c, http.StatusServiceUnavailable, "Unavailable", err.Error(), 2)
	case errs.Is(err, errs.KindValidation), errs.Is(err, errs.KindIntegrity):
		writeAPIError(c, http.StatusUnprocessableEntity, "BadRequest", err.Error(), 0)
	default:
		writeAPIError(c, http.StatusInternalServerError, "Internal", err.Error(), 0)
	}
}
