// Package answer implements the Answer Assembler and Verifier
// (§4.9/§4.10): builds a token-budgeted AnswerContract from ranked,
// hydrated search results, then verifies its claims/citations/quotes
// before the contract is emitted to a caller.
package answer

import (
	"strings"

	"legalrag/models"
	"legalrag/tokenize"
)

const maxQuoteChars = 300

// Assembler builds an AnswerContract from a retrieval.Result, subject
// to a token budget. The first chunk is always admitted, even when it
// alone exceeds the budget; each later chunk is admitted only while the
// running total stays within the budget.
type Assembler struct {
	maxContextTokens     int
	responseReserveRatio float64
}

// NewAssembler constructs an Assembler with the exposed budget
// constants (maxContextTokens default 12000, reserve 0.25 per
// SPEC_FULL.md's "Constants exposed").
func NewAssembler(maxContextTokens int, responseReserveRatio float64) *Assembler {
	return &Assembler{maxContextTokens: maxContextTokens, responseReserveRatio: responseReserveRatio}
}

// contextBudget is the token count available for source text after
// reserving the response share.
func (a *Assembler) contextBudget() int {
	return int(float64(a.maxContextTokens) * (1 - a.responseReserveRatio))
}

// Assemble builds the context block (trimmed to budget) and the
// AnswerContract's statutes/cases/analysis sections. short_answer and
// draft are left for the caller's generative layer (a Non-goal here
// beyond the structured contract itself) to populate; Assemble
// produces the grounded, verifiable skeleton.
func (a *Assembler) Assemble(analysis models.QueryAnalysis, statutes, cases []models.SearchResult) (models.AnswerContract, []models.SearchResult) {
	budget := a.contextBudget()
	used := 0

	var citedStatutes []models.CitedStatute
	var citedCases []models.CitedCase
	var contextChunks []models.SearchResult

	for _, s := range statutes {
		tokens := tokenize.Count(s.Content)
		if used+tokens > budget && used > 0 {
			break
		}
		used += tokens
		contextChunks = append(contextChunks, s)

		var section *string
		var asOn *string
		if s.Statute != nil {
			if s.Statute.SectionNo != "" {
				section = &s.Statute.SectionNo
			}
			if analysis.TemporalContext.AsOnDate != "" {
				asOn = &analysis.TemporalContext.AsOnDate
			}
		}
		quote := quoteFrom(s.Content, maxQuoteChars)
		citedStatutes = append(citedStatutes, models.CitedStatute{
			ID:      s.ID,
			Section: section,
			Quote:   quote,
			AsOn:    asOn,
		})
	}

	for _, c := range cases {
		tokens := tokenize.Count(c.Content)
		if used+tokens > budget && used > 0 {
			break
		}
		used += tokens
		contextChunks = append(contextChunks, c)

		var citation, para *string
		if c.Case != nil {
			if len(c.Case.CitationStrings) > 0 {
				v := strings.Join(c.Case.CitationStrings, "; ")
				citation = &v
			}
			if c.Case.ParaRange != "" {
				para = &c.Case.ParaRange
			}
		}
		quote := quoteFrom(c.Content, maxQuoteChars)
		citedCases = append(citedCases, models.CitedCase{
			ID:       c.ID,
			Citation: citation,
			Paragraph: para,
			Quote:    quote,
		})
	}

	analysisEntries := buildAnalysisEntries(analysis, statutes, cases)

	contract := models.AnswerContract{
		ShortAnswer: "",
		Statutes:    citedStatutes,
		Cases:       citedCases,
		Analysis:    analysisEntries,
		Draft:       nil,
		Confidence:  models.Confidence{},
		Warnings:    nil,
	}
	return contract, contextChunks
}

// quoteFrom extracts a short verbatim lead from content, bounded at
// maxChars, or nil if content is empty.
func quoteFrom(content string, maxChars int) *string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	r := []rune(trimmed)
	if len(r) > maxChars {
		trimmed = string(r[:maxChars])
	}
	return &trimmed
}

// buildAnalysisEntries produces one {issue, application} pair per
// offense keyword or explicit section the query raised, tying the
// grounded statute/case text back to the issue it answers. When no
// such signal exists, a single generic entry covers the query itself.
func buildAnalysisEntries(analysis models.QueryAnalysis, statutes, cases []models.SearchResult) []models.AnalysisEntry {
	if len(analysis.OffenseKeywords) == 0 && len(analysis.ExplicitSections) == 0 {
		return []models.AnalysisEntry{{
			Issue:       analysis.OriginalQuery,
			Application: applicationFor(statutes, cases),
		}}
	}
	var out []models.AnalysisEntry
	for _, kw := range analysis.OffenseKeywords {
		out = append(out, models.AnalysisEntry{
			Issue:       kw,
			Application: applicationFor(statutes, cases),
		})
	}
	for _, sec := range analysis.ExplicitSections {
		out = append(out, models.AnalysisEntry{
			Issue:       "Section " + sec,
			Application: applicationFor(statutes, cases),
		})
	}
	return out
}

func applicationFor(statutes, cases []models.SearchResult) string {
	switch {
	case len(statutes) > 0 && len(cases) > 0:
		return "Grounded in the cited statutory provisions and supporting judgments below."
	case len(statutes) > 0:
		return "Grounded in the cited statutory provisions below."
	case len(cases) > 0:
		return "Grounded in the cited judgments below."
	default:
		return "No grounding material was retrieved for this query."
	}
}
