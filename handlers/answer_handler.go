package handlers

import (
	"bytes"
	"net/http"

	"legalrag/answer"
	"legalrag/models"
	"legalrag/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnswerMode mirrors the Answer API's optional mode field.
type AnswerMode string

const (
	AnswerModeQA            AnswerMode = "qa"
	AnswerModeDrafting      AnswerMode = "drafting"
	AnswerModeSummarization AnswerMode = "summarization"
)

// AnswerHandler serves the Answer API (§6): runs the same
// query/retrieval pipeline as QueryHandler, then assembles and
// verifies a structured AnswerContract, persisting its rendered
// representations via storage.Storage.
type AnswerHandler struct {
	query     *QueryHandler
	assembler *answer.Assembler
	verifier  *answer.Verifier
	generator *answer.Generator
	storage   storage.Storage
}

// NewAnswerHandler constructs an AnswerHandler. generator may be nil,
// in which case drafting/summarization modes degrade to plain QA.
func NewAnswerHandler(query *QueryHandler, assembler *answer.Assembler, verifier *answer.Verifier, generator *answer.Generator, store storage.Storage) *AnswerHandler {
	return &AnswerHandler{query: query, assembler: assembler, verifier: verifier, generator: generator, storage: store}
}

// AnswerRequest is the Answer API input: the Query API's input plus
// an optional mode and, for drafting mode, the fact pattern and
// template type.
type AnswerRequest struct {
	Query     string           `json:"query" binding:"required"`
	StatuteK  int              `json:"statute_k"`
	CaseK     int              `json:"case_k"`
	Filters   queryFilters     `json:"filters"`
	Mode      AnswerMode       `json:"mode"`
	DraftType models.DraftType `json:"draft_type"`
	Facts     string           `json:"facts"`
}

// HandleAnswer implements POST /api/answer.
func (h *AnswerHandler) HandleAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, "BadRequest", err.Error(), 0)
		return
	}

	queryResp, err := h.query.run(c, QueryRequest{
		Query:    req.Query,
		StatuteK: req.StatuteK,
		CaseK:    req.CaseK,
		Filters:  req.Filters,
	})
	if err != nil {
		writeEngineError(c, err)
		return
	}

	if queryResp.RefusalReason != "" {
		c.JSON(http.StatusOK, models.AnswerContract{
			Warnings: []string{"refused: " + queryResp.RefusalReason},
		})
		return
	}

	contract, context := h.assembler.Assemble(queryResp.QueryAnalysis, queryResp.Statutes, queryResp.Cases)
	if queryResp.ClarifyingQuestion != "" {
		contract.Warnings = append(contract.Warnings, "clarification_needed: "+queryResp.ClarifyingQuestion)
	}
	h.verifier.Verify(&contract, context)

	switch req.Mode {
	case AnswerModeDrafting:
		if h.generator != nil {
			h.generator.Draft(c.Request.Context(), &contract, req.DraftType, req.Facts)
		}
	case AnswerModeSummarization:
		if h.generator != nil {
			h.generator.Summarize(c.Request.Context(), &contract)
		}
	}

	h.persistArtifacts(c, contract)

	c.JSON(http.StatusOK, contract)
}

// persistArtifacts renders Markdown and DOCX for the assembled
// contract and stores both, best-effort: a storage or DOCX rendering
// failure is dropped silently, never fails the response and adds no
// warning to the contract, since the JSON contract is the Answer API's
// primary deliverable.
func (h *AnswerHandler) persistArtifacts(c *gin.Context, contract models.AnswerContract) {
	if h.storage == nil {
		return
	}
	id := uuid.New()
	md := answer.RenderMarkdown(contract)
	if _, err := h.storage.Upload(c.Request.Context(), id, "answer.md", bytes.NewReader([]byte(md))); err != nil {
		return
	}
	if docx, err := answer.RenderDOCX(contract); err == nil {
		_, _ = h.storage.Upload(c.Request.Context(), id, "answer.docx", bytes.NewReader(docx))
	}
}
